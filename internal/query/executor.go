package query

import (
	"context"
	"database/sql"
	"time"

	"github.com/dbconnect/dbconnect/internal/database"
	"github.com/jmoiron/sqlx"
)

// Conn is the connection an Executor runs statements on. *sqlx.Conn, *sqlx.DB
// and *sqlx.Tx satisfy it.
type Conn interface {
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type Executor struct {
	conn Conn
}

func NewExecutor(conn Conn) *Executor {
	return &Executor{conn: conn}
}

// Query runs a row-returning statement and reads every row set it produces.
// Row sets without columns (statements that return no result) are skipped.
func (e *Executor) Query(ctx context.Context, query string, args ...interface{}) (*ResultSet, error) {
	if e.conn == nil {
		return nil, database.NewError(database.ErrorCodeConnectionOpen, "Database connection is not open", "")
	}

	startTime := time.Now()

	rows, err := e.conn.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, database.TranslateError(err, database.ErrorCodeCommandExecution)
	}
	defer rows.Close()

	result := &ResultSet{}
	for {
		table, err := parseRows(rows)
		if err != nil {
			return nil, err
		}
		if table != nil {
			result.Tables = append(result.Tables, table)
		}
		if !rows.NextResultSet() {
			break
		}
	}

	if err := rows.Err(); err != nil {
		return nil, database.TranslateError(err, database.ErrorCodeCommandExecution)
	}

	result.ExecutionTime = time.Since(startTime)
	return result, nil
}

// Exec runs a statement that returns no rows and reports the affected row count.
func (e *Executor) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if e.conn == nil {
		return 0, database.NewError(database.ErrorCodeConnectionOpen, "Database connection is not open", "")
	}

	res, err := e.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, database.TranslateError(err, database.ErrorCodeCommandExecution)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, database.TranslateError(err, database.ErrorCodeCommandExecution)
	}
	return affected, nil
}

// parseRows reads the current row set. It returns nil when the set has no columns.
func parseRows(rows *sqlx.Rows) (*Table, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, database.TranslateError(err, database.ErrorCodeCommandExecution)
	}

	if len(columnTypes) == 0 {
		for rows.Next() {
		}
		return nil, nil
	}

	columns := make([]Column, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = Column{Name: ct.Name(), DatabaseType: ct.DatabaseTypeName()}
	}

	table := NewTable(columns)

	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, database.TranslateError(err, database.ErrorCodeCommandExecution)
		}

		row := make([]Value, len(columns))
		for i, col := range columns {
			var src interface{}
			if i < len(values) {
				src = values[i]
			}
			row[i] = NewValue(src, col.DatabaseType)
		}
		table.AppendRow(row)
	}

	if err := rows.Err(); err != nil {
		return nil, database.TranslateError(err, database.ErrorCodeCommandExecution)
	}

	return table, nil
}

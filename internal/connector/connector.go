// Package connector runs text commands and stored procedures over one
// database connection and keeps the most recent result.
//
// A Connector never returns errors from its operations. Failures set a
// sticky error flag and an error message that carries the diagnostic log of
// the connection string, command text, procedure names and parameters seen
// so far; callers check HasError after each call:
//
//	c := connector.Open(cfg, "")
//	defer c.Close()
//
//	c.ExecuteText("SELECT COUNT(*) FROM Users")
//	if c.HasError() {
//	    log.Printf("[ERROR] %s", c.ErrorMessage())
//	    return
//	}
//	fmt.Println(c.ScalarInt())
//
// A failed execution leaves the previous table and scalars in place.
// A Connector is not safe for concurrent use.
package connector

import (
	"context"
	"strings"

	"github.com/dbconnect/dbconnect/internal/config"
	"github.com/dbconnect/dbconnect/internal/database"
	"github.com/dbconnect/dbconnect/internal/query"
	"github.com/shopspring/decimal"
)

// State is the lifecycle state of a Connector.
type State int

const (
	StateUnopened State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "Unopened"
	case StateOpen:
		return "Open"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Mode selects how a stored procedure is executed.
type Mode int

const (
	// ModeRows reads the procedure's result set into the table.
	ModeRows Mode = iota
	// ModeNonQuery executes the procedure and keeps the affected row count.
	ModeNonQuery
)

func (m Mode) String() string {
	if m == ModeNonQuery {
		return "nonquery"
	}
	return "rows"
}

// Parameter is a named stored procedure argument. Values are sent as text.
type Parameter struct {
	Name  string
	Value string
}

const additionalInformation = "\n\nAdditional information:\n\n"

// Connector owns one database connection and the results of the last
// successful execution on it.
type Connector struct {
	entry    config.ConnectionString
	conn     *database.Connection
	dialect  database.Dialect
	executor query.QueryExecutor
	state    State

	table   *query.Table
	results *query.ResultSet
	scalars query.Scalars

	hasError     bool
	errorMessage string
	err          error
	openErr      error
	info         strings.Builder
}

// Open resolves the named connection string (the first configured entry
// when name is empty) and connects. Failures are recorded on the returned
// Connector, which then stays unopened.
func Open(cfg *config.Config, name string) *Connector {
	c := &Connector{
		table:   query.NewTable(nil),
		results: &query.ResultSet{},
	}

	entry, err := cfg.Resolve(name)
	if err != nil {
		c.failOpen(database.WrapError(database.ErrorCodeConfigResolution, "Unable to resolve connection string", err))
		return c
	}
	c.entry = entry

	c.trace("Connection string: ", config.Redact(entry.ConnectionString))

	driver, err := database.DriverName(entry.Provider())
	if err != nil {
		c.failOpen(database.WrapError(database.ErrorCodeConfigResolution, "Unsupported provider", err))
		return c
	}

	conn, err := database.NewConnection(context.Background(), driver, entry.ConnectionString)
	if err != nil {
		c.failOpen(database.TranslateError(err, database.ErrorCodeConnectionOpen))
		return c
	}

	c.conn = conn
	c.dialect = database.DialectFor(conn.Driver())
	c.executor = query.NewExecutor(conn.Conn())
	c.state = StateOpen
	c.trace("Connection state: ", c.state.String())
	return c
}

// OpenDefault opens the first configured connection string.
func OpenDefault(cfg *config.Config) *Connector {
	return Open(cfg, "")
}

// ExecuteText runs command as-is and reads its first row set into the table.
func (c *Connector) ExecuteText(command string) {
	c.trace("Command text: ", command)

	if err := query.ValidateCommand(command); err != nil {
		c.fail(err)
		return
	}
	if !c.ready() {
		return
	}

	c.fill(command)
}

// ExecuteStoredProcedure calls procedure with params bound by name in the
// given order. ModeRows reads the result into the table; ModeNonQuery stores
// the affected row count as the integer scalar and leaves the table alone.
func (c *Connector) ExecuteStoredProcedure(procedure string, params []Parameter, mode Mode) {
	c.trace("Stored procedure name: ", procedure)

	if err := query.ValidateProcedureName(procedure); err != nil {
		c.fail(err)
		return
	}

	names := make([]string, 0, len(params))
	args := make([]interface{}, 0, len(params))
	for _, p := range params {
		c.trace("Parameter name: ", p.Name)
		c.trace("Parameter value: ", p.Value)

		name, err := query.NormalizeParameterName(p.Name)
		if err != nil {
			c.fail(err)
			return
		}
		names = append(names, name)
		args = append(args, p.Value)
	}

	if !c.ready() {
		return
	}

	statement := c.dialect.ProcedureCall(procedure, names, mode == ModeRows)

	if mode == ModeRows {
		c.fill(statement, args...)
		return
	}

	affected, err := c.executor.Exec(context.Background(), statement, args...)
	if err != nil {
		c.fail(err)
		return
	}
	c.scalars.Int = affected
}

// fill runs a row-returning statement. The table, result set and scalars
// change only when the statement succeeds and yields at least one row set.
func (c *Connector) fill(statement string, args ...interface{}) {
	result, err := c.executor.Query(context.Background(), statement, args...)
	if err != nil {
		c.fail(err)
		return
	}

	first := result.First()
	if first == nil {
		return
	}

	c.results = result
	c.table = first
	c.scalars.Project(first)
}

func (c *Connector) ready() bool {
	switch c.state {
	case StateOpen:
		return true
	case StateClosed:
		c.fail(database.NewError(database.ErrorCodeCommandExecution, "Connector is closed", "The connector cannot be reused after Close"))
	default:
		// Keep the open failure as the reported cause.
		if c.openErr != nil {
			c.fail(c.openErr)
			break
		}
		c.fail(database.NewError(database.ErrorCodeConnectionOpen, "Database connection is not open", ""))
	}
	return false
}

// Close releases the connection and the retained results. Only the first
// call does any work; Close never changes the error state.
func (c *Connector) Close() error {
	if c.state == StateClosed {
		return nil
	}

	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}

	c.executor = nil
	c.table = query.NewTable(nil)
	c.results = &query.ResultSet{}
	c.state = StateClosed
	c.trace("Connection state: ", c.state.String())
	return err
}

func (c *Connector) fail(err error) {
	c.hasError = true
	c.err = err
	c.errorMessage = err.Error() + additionalInformation + c.info.String()
}

func (c *Connector) failOpen(err error) {
	c.openErr = err
	c.fail(err)
}

func (c *Connector) trace(label, value string) {
	c.info.WriteString(label)
	c.info.WriteString(value)
	c.info.WriteString("\n")
}

// Table returns the most recently filled table. It is empty until a
// row-returning execution succeeds.
func (c *Connector) Table() *query.Table { return c.table }

// Results returns every row set of the most recent successful fill.
func (c *Connector) Results() *query.ResultSet { return c.results }

func (c *Connector) ScalarString() string { return c.scalars.String }

func (c *Connector) ScalarInt() int64 { return c.scalars.Int }

func (c *Connector) ScalarDecimal() decimal.Decimal { return c.scalars.Decimal }

// Scalars returns all three scalar projections.
func (c *Connector) Scalars() query.Scalars { return c.scalars }

// HasError reports whether any operation on this Connector has failed.
func (c *Connector) HasError() bool { return c.hasError }

// ErrorMessage describes the most recent failure followed by the diagnostic log.
func (c *Connector) ErrorMessage() string { return c.errorMessage }

// Err returns the most recent failure, usually a *database.Error.
func (c *Connector) Err() error { return c.err }

// Diagnostics returns the diagnostic log accumulated so far.
func (c *Connector) Diagnostics() string { return c.info.String() }

func (c *Connector) State() State { return c.state }

// ConnectionName returns the name of the resolved connection string.
func (c *Connector) ConnectionName() string { return c.entry.Name }

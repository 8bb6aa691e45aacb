// Package dbtest provides an in-memory database/sql driver for tests.
//
// Each Backend is reachable through its own DSN under the driver name
// DriverName. Statements are answered by a Handler, and every call is
// recorded so tests can assert on the text and arguments that reached the
// driver:
//
//	backend := dbtest.NewBackend(func(call dbtest.Call) (dbtest.Result, error) {
//	    return dbtest.Scalar("count", "INT8", int64(7)), nil
//	})
//	db, _ := sql.Open(dbtest.DriverName, backend.DSN())
package dbtest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// DriverName is the name the driver is registered under.
const DriverName = "dbtest"

func init() {
	sql.Register(DriverName, Driver{})
}

var (
	backendsMu sync.Mutex
	backends   = map[string]*Backend{}
	nextID     atomic.Int64
)

// Call is one statement received by a Backend.
type Call struct {
	Query string
	Args  []driver.NamedValue
	Exec  bool
}

// ArgValues returns the bound argument values in order.
func (c Call) ArgValues() []driver.Value {
	values := make([]driver.Value, len(c.Args))
	for i, arg := range c.Args {
		values[i] = arg.Value
	}
	return values
}

// ResultSet is one row set returned by a query.
type ResultSet struct {
	Columns []string
	Types   []string
	Rows    [][]driver.Value
}

// Result answers one statement. Queries return Sets; Exec returns RowsAffected.
type Result struct {
	Sets         []ResultSet
	RowsAffected int64
}

// Handler answers statements sent to a Backend.
type Handler func(call Call) (Result, error)

// Scalar builds a single-row, single-column result.
func Scalar(column, dbType string, value driver.Value) Result {
	return Result{Sets: []ResultSet{{
		Columns: []string{column},
		Types:   []string{dbType},
		Rows:    [][]driver.Value{{value}},
	}}}
}

// Table builds a single result set.
func Table(columns []string, types []string, rows ...[]driver.Value) Result {
	return Result{Sets: []ResultSet{{Columns: columns, Types: types, Rows: rows}}}
}

// Backend is a fake database server.
type Backend struct {
	dsn string

	mu      sync.Mutex
	handler Handler
	openErr error
	calls   []Call
	opened  int
	closed  int
}

// NewBackend registers a backend answering with h.
func NewBackend(h Handler) *Backend {
	b := &Backend{
		dsn:     fmt.Sprintf("dbtest-%d", nextID.Add(1)),
		handler: h,
	}
	backendsMu.Lock()
	backends[b.dsn] = b
	backendsMu.Unlock()
	return b
}

// DSN returns the data source name that opens this backend.
func (b *Backend) DSN() string {
	return b.dsn
}

// SetHandler replaces the statement handler.
func (b *Backend) SetHandler(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

// FailOpen makes every new connection fail with err.
func (b *Backend) FailOpen(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openErr = err
}

// Calls returns the statements received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// LastCall returns the most recent statement.
func (b *Backend) LastCall() (Call, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) == 0 {
		return Call{}, false
	}
	return b.calls[len(b.calls)-1], true
}

// OpenConnections returns connections opened and not yet closed.
func (b *Backend) OpenConnections() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened - b.closed
}

func (b *Backend) handle(call Call) (Result, error) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	h := b.handler
	b.mu.Unlock()

	if h == nil {
		return Result{}, errors.New("dbtest: no handler")
	}
	return h(call)
}

// Driver implements driver.Driver over the registered backends.
type Driver struct{}

func (Driver) Open(name string) (driver.Conn, error) {
	backendsMu.Lock()
	b, ok := backends[name]
	backendsMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("dbtest: unknown dsn %q", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.opened++
	return &conn{backend: b}, nil
}

type conn struct {
	backend *Backend
	closed  bool
}

func (c *conn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("dbtest: prepared statements are not supported")
}

func (c *conn) Begin() (driver.Tx, error) {
	return nil, errors.New("dbtest: transactions are not supported")
}

func (c *conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.backend.mu.Lock()
	c.backend.closed++
	c.backend.mu.Unlock()
	return nil
}

func (c *conn) Ping(context.Context) error {
	if c.closed {
		return driver.ErrBadConn
	}
	return nil
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	res, err := c.backend.handle(Call{Query: query, Args: args})
	if err != nil {
		return nil, err
	}
	return &rows{sets: res.Sets}, nil
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	res, err := c.backend.handle(Call{Query: query, Args: args, Exec: true})
	if err != nil {
		return nil, err
	}
	return driver.RowsAffected(res.RowsAffected), nil
}

type rows struct {
	sets []ResultSet
	set  int
	pos  int
}

func (r *rows) current() *ResultSet {
	if r.set >= len(r.sets) {
		return nil
	}
	return &r.sets[r.set]
}

func (r *rows) Columns() []string {
	if cur := r.current(); cur != nil {
		return append([]string(nil), cur.Columns...)
	}
	return []string{}
}

func (r *rows) Close() error { return nil }

func (r *rows) Next(dest []driver.Value) error {
	cur := r.current()
	if cur == nil || r.pos >= len(cur.Rows) {
		return io.EOF
	}
	row := cur.Rows[r.pos]
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	r.pos++
	return nil
}

func (r *rows) HasNextResultSet() bool {
	return r.set+1 < len(r.sets)
}

func (r *rows) NextResultSet() error {
	if !r.HasNextResultSet() {
		return io.EOF
	}
	r.set++
	r.pos = 0
	return nil
}

func (r *rows) ColumnTypeDatabaseTypeName(index int) string {
	if cur := r.current(); cur != nil && index < len(cur.Types) {
		return cur.Types[index]
	}
	return ""
}

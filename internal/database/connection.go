package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	// A Connection owns exactly one server connection.
	maxOpenConnections = 1
	maxIdleConnections = 1
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

var providerAliases = map[string]string{
	"postgres":   DriverPostgres,
	"postgresql": DriverPostgres,
	"pq":         DriverPostgres,
	"mysql":      DriverMySQL,
	"mariadb":    DriverMySQL,
}

// DriverName maps a configured provider name to a registered database/sql
// driver. Unknown names are accepted when a driver of that name is registered.
func DriverName(provider string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(provider))
	if key == "" {
		return DriverPostgres, nil
	}
	if name, ok := providerAliases[key]; ok {
		return name, nil
	}
	if slices.Contains(sql.Drivers(), provider) {
		return provider, nil
	}
	return "", fmt.Errorf("unsupported provider %q", provider)
}

// Connection is a single dedicated database connection.
type Connection struct {
	driver string
	db     *sqlx.DB
	conn   *sqlx.Conn
}

// NewConnection opens the driver for provider and pins one connection from it.
func NewConnection(ctx context.Context, provider string, dsn string) (*Connection, error) {
	driver, err := DriverName(provider)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConnections)
	db.SetMaxIdleConns(maxIdleConnections)

	conn, err := db.Connx(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	c := &Connection{driver: driver, db: db, conn: conn}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return c, nil
}

// Driver returns the database/sql driver name in use.
func (c *Connection) Driver() string {
	return c.driver
}

// Conn returns the pinned connection.
func (c *Connection) Conn() *sqlx.Conn {
	return c.conn
}

// Close releases the pinned connection and the driver handle. It is safe to
// call more than once.
func (c *Connection) Close() error {
	var firstErr error
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			firstErr = err
		}
		c.conn = nil
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.db = nil
	}
	return firstErr
}

// Ping verifies the connection is still alive
func (c *Connection) Ping(ctx context.Context) error {
	if c.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return c.conn.PingContext(ctx)
}

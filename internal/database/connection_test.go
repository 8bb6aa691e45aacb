package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dbconnect/dbconnect/internal/dbtest"
)

func TestDriverName(t *testing.T) {
	tests := []struct {
		provider string
		want     string
		wantErr  bool
	}{
		{"", DriverPostgres, false},
		{"postgres", DriverPostgres, false},
		{"PostgreSQL", DriverPostgres, false},
		{" pq ", DriverPostgres, false},
		{"mysql", DriverMySQL, false},
		{"MariaDB", DriverMySQL, false},
		{dbtest.DriverName, dbtest.DriverName, false},
		{"System.Data.SqlClient", "", true},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			got, err := DriverName(tt.provider)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DriverName(%q) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DriverName(%q) = %q, want %q", tt.provider, got, tt.want)
			}
		})
	}
}

func TestNewConnection(t *testing.T) {
	backend := dbtest.NewBackend(func(call dbtest.Call) (dbtest.Result, error) {
		return dbtest.Scalar("one", "INT4", int64(1)), nil
	})

	conn, err := NewConnection(context.Background(), dbtest.DriverName, backend.DSN())
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}

	if conn.Driver() != dbtest.DriverName {
		t.Errorf("Driver() = %q, want %q", conn.Driver(), dbtest.DriverName)
	}
	if conn.Conn() == nil {
		t.Fatal("Conn() returned nil")
	}
	if err := conn.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if backend.OpenConnections() != 1 {
		t.Errorf("Expected exactly one pinned connection, got %d", backend.OpenConnections())
	}

	if err := conn.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
	if backend.OpenConnections() != 0 {
		t.Errorf("Expected the connection to be released, got %d open", backend.OpenConnections())
	}
	if err := conn.Ping(context.Background()); err == nil {
		t.Error("Expected Ping to fail after Close")
	}
}

func TestNewConnection_OpenFailure(t *testing.T) {
	backend := dbtest.NewBackend(nil)
	backend.FailOpen(errors.New("connection refused"))

	_, err := NewConnection(context.Background(), dbtest.DriverName, backend.DSN())
	if err == nil {
		t.Fatal("Expected an error when the server refuses connections")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Expected cause in error, got %v", err)
	}
}

func TestNewConnection_UnsupportedProvider(t *testing.T) {
	_, err := NewConnection(context.Background(), "oracle", "user/pass@db")
	if err == nil || !strings.Contains(err.Error(), "unsupported provider") {
		t.Errorf("Expected unsupported provider error, got %v", err)
	}
}

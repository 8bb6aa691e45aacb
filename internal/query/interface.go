package query

import "context"

// QueryExecutor defines the interface for running statements on one connection
type QueryExecutor interface {
	Query(ctx context.Context, query string, args ...interface{}) (*ResultSet, error)
	Exec(ctx context.Context, query string, args ...interface{}) (int64, error)
}

// Ensure Executor implements QueryExecutor
var _ QueryExecutor = (*Executor)(nil)

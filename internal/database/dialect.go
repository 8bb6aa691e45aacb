package database

import (
	"fmt"
	"strings"
)

// Dialect renders stored procedure invocations for one provider.
type Dialect interface {
	Name() string

	// ProcedureCall returns the statement invoking procedure with one bind
	// placeholder per parameter, in order. returnsRows selects the form that
	// produces a result set.
	ProcedureCall(procedure string, paramNames []string, returnsRows bool) string
}

// DialectFor returns the dialect for a database/sql driver name.
func DialectFor(driver string) Dialect {
	if driver == DriverMySQL {
		return mysqlDialect{}
	}
	return postgresDialect{}
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return DriverPostgres }

// Named notation binds by parameter name, so the server ignores declaration order.
func (postgresDialect) ProcedureCall(procedure string, paramNames []string, returnsRows bool) string {
	args := make([]string, len(paramNames))
	for i, name := range paramNames {
		args[i] = fmt.Sprintf("%s => $%d", name, i+1)
	}
	call := fmt.Sprintf("%s(%s)", procedure, strings.Join(args, ", "))
	if returnsRows {
		return "SELECT * FROM " + call
	}
	return "CALL " + call
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return DriverMySQL }

// MySQL has no named arguments; parameters bind positionally.
func (mysqlDialect) ProcedureCall(procedure string, paramNames []string, returnsRows bool) string {
	placeholders := make([]string, len(paramNames))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf("CALL %s(%s)", procedure, strings.Join(placeholders, ", "))
}

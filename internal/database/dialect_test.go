package database

import "testing"

func TestDialectFor(t *testing.T) {
	if got := DialectFor(DriverMySQL).Name(); got != DriverMySQL {
		t.Errorf("DialectFor(mysql) = %s, want mysql", got)
	}
	if got := DialectFor(DriverPostgres).Name(); got != DriverPostgres {
		t.Errorf("DialectFor(postgres) = %s, want postgres", got)
	}
	if got := DialectFor("sometestdriver").Name(); got != DriverPostgres {
		t.Errorf("DialectFor(unknown) = %s, want postgres", got)
	}
}

func TestProcedureCall(t *testing.T) {
	params := []string{"UserId", "FirstName", "LastName"}

	tests := []struct {
		name        string
		dialect     Dialect
		params      []string
		returnsRows bool
		expected    string
	}{
		{
			name:        "postgres non-query",
			dialect:     DialectFor(DriverPostgres),
			params:      params,
			returnsRows: false,
			expected:    "CALL AddUser(UserId => $1, FirstName => $2, LastName => $3)",
		},
		{
			name:        "postgres row-returning",
			dialect:     DialectFor(DriverPostgres),
			params:      params,
			returnsRows: true,
			expected:    "SELECT * FROM AddUser(UserId => $1, FirstName => $2, LastName => $3)",
		},
		{
			name:        "postgres without parameters",
			dialect:     DialectFor(DriverPostgres),
			params:      nil,
			returnsRows: true,
			expected:    "SELECT * FROM AddUser()",
		},
		{
			name:        "mysql non-query",
			dialect:     DialectFor(DriverMySQL),
			params:      params,
			returnsRows: false,
			expected:    "CALL AddUser(?, ?, ?)",
		},
		{
			name:        "mysql row-returning",
			dialect:     DialectFor(DriverMySQL),
			params:      params,
			returnsRows: true,
			expected:    "CALL AddUser(?, ?, ?)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.dialect.ProcedureCall("AddUser", tt.params, tt.returnsRows)
			if got != tt.expected {
				t.Errorf("ProcedureCall() = %q, want %q", got, tt.expected)
			}
		})
	}
}

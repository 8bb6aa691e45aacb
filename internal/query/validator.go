package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dbconnect/dbconnect/internal/database"
)

// identifier, optionally schema-qualified
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

// ValidateCommand checks that command text is present. Syntax is left to the server.
func ValidateCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return database.NewError(
			database.ErrorCodeCommandExecution,
			"Missing command text",
			"The command text is required and cannot be empty",
		)
	}
	return nil
}

// ValidateProcedureName checks that name can be placed in a procedure call.
func ValidateProcedureName(name string) error {
	if !identifierPattern.MatchString(name) {
		return database.NewError(
			database.ErrorCodeCommandExecution,
			"Invalid stored procedure name",
			fmt.Sprintf("%q is not a valid identifier", name),
		)
	}
	return nil
}

// NormalizeParameterName strips a leading @ and validates the remainder.
func NormalizeParameterName(name string) (string, error) {
	normalized := strings.TrimPrefix(strings.TrimSpace(name), "@")
	if !identifierPattern.MatchString(normalized) || strings.Contains(normalized, ".") {
		return "", database.NewError(
			database.ErrorCodeCommandExecution,
			"Invalid parameter name",
			fmt.Sprintf("%q is not a valid identifier", name),
		)
	}
	return normalized, nil
}

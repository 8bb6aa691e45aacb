package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Error codes
const (
	ErrorCodeConfigResolution     = "CONFIG_RESOLUTION"
	ErrorCodeConnectionOpen       = "CONNECTION_OPEN"
	ErrorCodeCommandExecution     = "COMMAND_EXECUTION"
	ErrorCodeInvalidRequest       = "INVALID_REQUEST"
	ErrorCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrorCodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	ErrorCodeInternalError        = "INTERNAL_ERROR"
)

// HTTP status codes for error codes
const (
	HTTPStatusConfigResolution     = 404
	HTTPStatusConnectionOpen       = 503
	HTTPStatusCommandExecution     = 400
	HTTPStatusInvalidRequest       = 400
	HTTPStatusMissingRequiredField = 400
	HTTPStatusMethodNotAllowed     = 405
	HTTPStatusInternalError        = 500
)

// Error is a coded database error.
type Error struct {
	Code    string
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new coded error
func NewError(code, message, detail string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Detail:  detail,
	}
}

// WrapError creates a coded error carrying err as its cause and detail.
func WrapError(code, message string, err error) *Error {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &Error{
		Code:    code,
		Message: message,
		Detail:  detail,
		Err:     err,
	}
}

// SQLSTATE messages for common failures
var sqlStateMessages = map[string]string{
	"42601": "Invalid SQL syntax",          // syntax_error
	"42703": "Undefined column",            // undefined_column
	"42P01": "Undefined table",             // undefined_table
	"42883": "Undefined function",          // undefined_function
	"42804": "Data type mismatch",          // datatype_mismatch
	"22P02": "Invalid text representation", // invalid_text_representation
	"23505": "Unique constraint violation", // unique_violation
	"23503": "Foreign key violation",       // foreign_key_violation
	"23502": "Not null violation",          // not_null_violation
	"57014": "Query canceled",              // query_canceled
	"28P01": "Authentication failed",       // invalid_password
	"28000": "Authorization failed",        // invalid_authorization_specification
	"3D000": "Database does not exist",     // invalid_catalog_name
}

// MySQL server error numbers
var mysqlMessages = map[uint16]string{
	1044: "Authorization failed",
	1045: "Authentication failed",
	1049: "Database does not exist",
	1054: "Undefined column",
	1062: "Unique constraint violation",
	1064: "Invalid SQL syntax",
	1146: "Undefined table",
	1305: "Undefined procedure",
	1318: "Wrong number of procedure arguments",
	1452: "Foreign key violation",
}

// TranslateError converts a driver error into a coded Error. Connection
// failures are always reported as CONNECTION_OPEN; anything else takes code.
func TranslateError(err error, code string) *Error {
	if err == nil {
		return nil
	}

	var dbErr *Error
	if errors.As(err, &dbErr) {
		return dbErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return WrapError(code, "Command canceled", err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return translatePQError(pqErr, code)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return translateMySQLError(myErr, code)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return WrapError(ErrorCodeConnectionOpen, "Database connection is unavailable", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return WrapError(ErrorCodeConnectionOpen, "Database is unreachable", err)
	}

	return WrapError(code, "Database operation failed", err)
}

func translatePQError(pqErr *pq.Error, code string) *Error {
	sqlState := string(pqErr.Code)

	// 08: connection exception, 28: invalid authorization, 3D000: unknown database
	switch pqErr.Code.Class() {
	case "08", "28":
		code = ErrorCodeConnectionOpen
	}
	if sqlState == "3D000" {
		code = ErrorCodeConnectionOpen
	}

	message, found := sqlStateMessages[sqlState]
	if !found {
		message = pqErr.Message
	}
	if message == "" {
		message = "An error occurred"
	}

	return &Error{
		Code:    code,
		Message: message,
		Detail:  buildPQDetail(pqErr),
		Err:     pqErr,
	}
}

// buildPQDetail creates detailed error information
func buildPQDetail(pqErr *pq.Error) string {
	detail := fmt.Sprintf("PostgreSQL error %s: %s", pqErr.Code, pqErr.Message)

	if pqErr.Detail != "" {
		detail += fmt.Sprintf(" | Detail: %s", pqErr.Detail)
	}

	if pqErr.Hint != "" {
		detail += fmt.Sprintf(" | Hint: %s", pqErr.Hint)
	}

	if pqErr.Position != "" {
		detail += fmt.Sprintf(" | Position: %s", pqErr.Position)
	}

	if pqErr.Where != "" {
		detail += fmt.Sprintf(" | Where: %s", pqErr.Where)
	}

	return detail
}

func translateMySQLError(myErr *mysql.MySQLError, code string) *Error {
	switch myErr.Number {
	case 1044, 1045, 1049:
		code = ErrorCodeConnectionOpen
	}

	message, found := mysqlMessages[myErr.Number]
	if !found {
		message = myErr.Message
	}

	return &Error{
		Code:    code,
		Message: message,
		Detail:  fmt.Sprintf("MySQL error %d: %s", myErr.Number, myErr.Message),
		Err:     myErr,
	}
}

// GetHTTPStatusCode returns the HTTP status code for an error code
func GetHTTPStatusCode(errorCode string) int {
	switch errorCode {
	case ErrorCodeConfigResolution:
		return HTTPStatusConfigResolution
	case ErrorCodeConnectionOpen:
		return HTTPStatusConnectionOpen
	case ErrorCodeCommandExecution:
		return HTTPStatusCommandExecution
	case ErrorCodeInvalidRequest:
		return HTTPStatusInvalidRequest
	case ErrorCodeMissingRequiredField:
		return HTTPStatusMissingRequiredField
	case ErrorCodeMethodNotAllowed:
		return HTTPStatusMethodNotAllowed
	case ErrorCodeInternalError:
		return HTTPStatusInternalError
	default:
		return HTTPStatusInternalError
	}
}

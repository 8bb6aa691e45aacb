// Package server exposes connector executions over HTTP.
// It re-exports the database error codes it answers with and provides
// helpers for the request errors the handler produces itself.
package server

import (
	"fmt"

	"github.com/dbconnect/dbconnect/internal/database"
)

// Error code constants (imported from database package for convenience)
const (
	ErrorCodeConfigResolution     = database.ErrorCodeConfigResolution
	ErrorCodeConnectionOpen       = database.ErrorCodeConnectionOpen
	ErrorCodeCommandExecution     = database.ErrorCodeCommandExecution
	ErrorCodeInvalidRequest       = database.ErrorCodeInvalidRequest
	ErrorCodeMissingRequiredField = database.ErrorCodeMissingRequiredField
	ErrorCodeMethodNotAllowed     = database.ErrorCodeMethodNotAllowed
	ErrorCodeInternalError        = database.ErrorCodeInternalError
)

// GetHTTPStatusCode returns the HTTP status code for a given error code
func GetHTTPStatusCode(errorCode string) int {
	return database.GetHTTPStatusCode(errorCode)
}

// NewMissingFieldError creates an error for a missing required field
func NewMissingFieldError(fieldName string) *database.Error {
	return database.NewError(
		ErrorCodeMissingRequiredField,
		fmt.Sprintf("Missing required field: %s", fieldName),
		fmt.Sprintf("The request must include a '%s' field", fieldName),
	)
}

// NewInvalidRequestError creates an error for a malformed request body
func NewInvalidRequestError(detail string) *database.Error {
	return database.NewError(
		ErrorCodeInvalidRequest,
		"Invalid request",
		detail,
	)
}

func NewMethodNotAllowedError(method string) *database.Error {
	return database.NewError(
		ErrorCodeMethodNotAllowed,
		"Method not allowed",
		fmt.Sprintf("%s is not supported, use POST", method),
	)
}

// NewInternalError creates an error for internal server errors
func NewInternalError(detail string) *database.Error {
	return database.NewError(
		ErrorCodeInternalError,
		"An internal error occurred",
		detail,
	)
}

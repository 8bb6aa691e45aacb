package server

import (
	"encoding/json"
	"net/http"

	"github.com/dbconnect/dbconnect/internal/database"
	"github.com/dbconnect/dbconnect/internal/query"
	"github.com/shopspring/decimal"
)

// ExecuteRequest is the body of POST /v1/execute. Exactly one of Command and
// Procedure must be set.
type ExecuteRequest struct {
	Connection string             `json:"connection,omitempty"`
	Command    string             `json:"command,omitempty"`
	Procedure  string             `json:"procedure,omitempty"`
	Parameters []ParameterRequest `json:"parameters,omitempty"`
	Mode       string             `json:"mode,omitempty"`
}

// ParameterRequest is one ordered stored procedure argument.
type ParameterRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ExecuteResponse represents an execution response (success or error)
type ExecuteResponse struct {
	Success       bool                     `json:"success"`
	Columns       []string                 `json:"columns,omitempty"`
	Rows          []map[string]interface{} `json:"rows,omitempty"`
	RowCount      int                      `json:"rowCount,omitempty"`
	Scalar        *ScalarDetail            `json:"scalar,omitempty"`
	ExecutionTime float64                  `json:"executionTime,omitempty"`
	Error         *ErrorDetail             `json:"error,omitempty"`
}

// ScalarDetail carries the three scalar projections of the execution.
type ScalarDetail struct {
	String  string          `json:"string"`
	Int     int64           `json:"int"`
	Decimal decimal.Decimal `json:"decimal"`
}

// ErrorDetail represents error information in the response
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// NewSuccessResponse creates a successful execution response
func NewSuccessResponse(table *query.Table, scalars query.Scalars, executionTime float64) *ExecuteResponse {
	return &ExecuteResponse{
		Success:  true,
		Columns:  table.ColumnNames(),
		Rows:     table.Maps(),
		RowCount: table.RowCount(),
		Scalar: &ScalarDetail{
			String:  scalars.String,
			Int:     scalars.Int,
			Decimal: scalars.Decimal,
		},
		ExecutionTime: executionTime,
	}
}

// NewErrorResponse creates an error response from a coded error
func NewErrorResponse(err *database.Error) *ExecuteResponse {
	if err == nil {
		return &ExecuteResponse{
			Success: false,
			Error: &ErrorDetail{
				Code:    database.ErrorCodeInternalError,
				Message: "Unknown error occurred",
			},
		}
	}

	return &ExecuteResponse{
		Success: false,
		Error: &ErrorDetail{
			Code:    err.Code,
			Message: err.Message,
			Detail:  err.Detail,
		},
	}
}

// WriteJSON writes an ExecuteResponse as JSON to the HTTP response writer
func WriteJSON(w http.ResponseWriter, statusCode int, response *ExecuteResponse) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)
	return encoder.Encode(response)
}

// WriteSuccess writes a successful execution response with 200 OK status
func WriteSuccess(w http.ResponseWriter, table *query.Table, scalars query.Scalars, executionTime float64) error {
	response := NewSuccessResponse(table, scalars, executionTime)
	return WriteJSON(w, http.StatusOK, response)
}

// WriteError writes an error response with appropriate HTTP status code
func WriteError(w http.ResponseWriter, err *database.Error) error {
	response := NewErrorResponse(err)
	// response.Error.Code is set even when err is nil
	statusCode := database.GetHTTPStatusCode(response.Error.Code)
	return WriteJSON(w, statusCode, response)
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/dbconnect/dbconnect/internal/config"
	"github.com/dbconnect/dbconnect/internal/connector"
	"github.com/dbconnect/dbconnect/internal/database"
	"github.com/dbconnect/dbconnect/internal/query"
)

// MaxRequestBytes bounds the size of an execute request body.
const MaxRequestBytes = 1 << 20

// Session is the part of *connector.Connector the handler drives.
type Session interface {
	ExecuteText(command string)
	ExecuteStoredProcedure(procedure string, params []connector.Parameter, mode connector.Mode)
	HasError() bool
	Err() error
	Table() *query.Table
	Results() *query.ResultSet
	Scalars() query.Scalars
	Close() error
}

// Opener opens a Session on the named connection string.
type Opener func(connection string) Session

// ConnectorOpener opens connectors against cfg.
func ConnectorOpener(cfg *config.Config) Opener {
	return func(connection string) Session {
		return connector.Open(cfg, connection)
	}
}

type Handler struct {
	open Opener
}

func NewHandler(open Opener) *Handler {
	return &Handler{
		open: open,
	}
}

func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, NewMethodNotAllowedError(r.Method))
		log.Printf("[ERROR] Method not allowed: %s %s", r.Method, r.URL.Path)
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	if err != nil {
		WriteError(w, NewInvalidRequestError("Failed to read request body: "+err.Error()))
		log.Printf("[ERROR] Failed to read request body: %v", err)
		return
	}

	var req ExecuteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON request body"))
		log.Printf("[ERROR] Invalid JSON: %v", err)
		return
	}

	command := strings.TrimSpace(req.Command)
	procedure := strings.TrimSpace(req.Procedure)

	if command == "" && procedure == "" {
		WriteError(w, NewMissingFieldError("command"))
		log.Printf("[ERROR] Missing required field: command")
		return
	}
	if command != "" && procedure != "" {
		WriteError(w, NewInvalidRequestError("Specify either 'command' or 'procedure', not both"))
		log.Printf("[ERROR] Both command and procedure given")
		return
	}

	mode, err := parseMode(req.Mode)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		log.Printf("[ERROR] %v", err)
		return
	}

	session := h.open(req.Connection)
	defer session.Close()

	if session.HasError() {
		writeSessionError(w, session)
		return
	}

	if command != "" {
		log.Printf("[INFO] Executing command: %.100s", command)
		session.ExecuteText(command)
	} else {
		log.Printf("[INFO] Executing procedure %s (%d parameters, %s)", procedure, len(req.Parameters), mode)
		session.ExecuteStoredProcedure(procedure, toParameters(req.Parameters), mode)
	}

	if session.HasError() {
		writeSessionError(w, session)
		return
	}

	executionTimeMs := float64(session.Results().ExecutionTime.Microseconds()) / 1000.0
	table := session.Table()

	if err := WriteSuccess(w, table, session.Scalars(), executionTimeMs); err != nil {
		log.Printf("[ERROR] Failed to write response: %v", err)
		return
	}

	log.Printf("[INFO] Execution succeeded: %d rows returned in %.2fms", table.RowCount(), executionTimeMs)
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/execute", h.HandleExecute)
}

func parseMode(mode string) (connector.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "rows":
		return connector.ModeRows, nil
	case "nonquery":
		return connector.ModeNonQuery, nil
	default:
		return connector.ModeRows, fmt.Errorf("unknown mode %q, expected \"rows\" or \"nonquery\"", mode)
	}
}

func toParameters(in []ParameterRequest) []connector.Parameter {
	params := make([]connector.Parameter, len(in))
	for i, p := range in {
		params[i] = connector.Parameter{Name: p.Name, Value: p.Value}
	}
	return params
}

// writeSessionError answers with the session's coded error. The diagnostic
// log is not sent to the client.
func writeSessionError(w http.ResponseWriter, session Session) {
	err := session.Err()
	log.Printf("[ERROR] Execution failed: %v", err)

	var dbErr *database.Error
	if errors.As(err, &dbErr) {
		WriteError(w, dbErr)
		return
	}
	if err == nil {
		WriteError(w, NewInternalError("execution failed without an error"))
		return
	}
	WriteError(w, NewInternalError(err.Error()))
}

package server

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dbconnect/dbconnect/internal/config"
	"github.com/dbconnect/dbconnect/internal/dbtest"
)

func newTestServer(t *testing.T) (*Server, *dbtest.Backend) {
	t.Helper()
	t.Setenv("DBCONNECT_PORT", "0")

	backend := dbtest.NewBackend(func(call dbtest.Call) (dbtest.Result, error) {
		return dbtest.Scalar("result", "TEXT", "ok"), nil
	})
	cfg, err := config.New(config.ConnectionString{Name: "Primary", ConnectionString: backend.DSN(), ProviderName: dbtest.DriverName})
	if err != nil {
		t.Fatalf("config.New failed: %v", err)
	}
	return NewServer(ConnectorOpener(cfg)), backend
}

func TestServer_StartAndStop(t *testing.T) {
	server, _ := newTestServer(t)

	if server.IsReady() {
		t.Error("Server should not be ready before Start()")
	}

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	if !server.IsReady() {
		t.Error("Server should be ready after Start()")
	}

	addr := server.Addr()
	if _, port, err := net.SplitHostPort(addr); err != nil || port == "0" {
		t.Errorf("Expected a concrete listen address, got %q", addr)
	}

	resp, err := http.Post("http://"+addr+"/v1/execute", "application/json", bytes.NewBufferString(`{"command":"SELECT 'ok'"}`))
	if err != nil {
		t.Fatalf("Failed to connect to server: %v", err)
	}

	var response ExecuteResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	resp.Body.Close()

	if !response.Success || response.Scalar.String != "ok" {
		t.Errorf("Unexpected response: %+v", response)
	}

	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}

	if server.IsReady() {
		t.Error("Server should not be ready after Stop()")
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := http.Get("http://" + addr + "/v1/execute"); err == nil {
		t.Error("Should not be able to connect after Stop()")
	}
}

func TestServer_StopWithoutStart(t *testing.T) {
	server, _ := newTestServer(t)

	if err := server.Stop(); err != nil {
		t.Errorf("Stop() without Start() should not error: %v", err)
	}
}

func TestServer_Timeouts(t *testing.T) {
	server, _ := newTestServer(t)

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer server.Stop()

	if server.httpServer.ReadTimeout != ReadTimeout {
		t.Errorf("ReadTimeout = %v, want %v", server.httpServer.ReadTimeout, ReadTimeout)
	}
	if server.httpServer.WriteTimeout != WriteTimeout {
		t.Errorf("WriteTimeout = %v, want %v", server.httpServer.WriteTimeout, WriteTimeout)
	}
	if server.httpServer.ReadHeaderTimeout != ReadHeaderTimeout {
		t.Errorf("ReadHeaderTimeout = %v, want %v", server.httpServer.ReadHeaderTimeout, ReadHeaderTimeout)
	}
}

func TestGetBindHost(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("DBCONNECT_BIND_HOST", "")
		if got := GetBindHost(); got != DefaultHost {
			t.Errorf("GetBindHost() = %q, want %q", got, DefaultHost)
		}
	})

	t.Run("override", func(t *testing.T) {
		t.Setenv("DBCONNECT_BIND_HOST", "0.0.0.0")
		if got := GetBindHost(); got != "0.0.0.0" {
			t.Errorf("GetBindHost() = %q, want 0.0.0.0", got)
		}
	})
}

func TestGetBindPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"default", "", DefaultPort},
		{"override", "8088", 8088},
		{"any free port", "0", 0},
		{"not a number", "http", DefaultPort},
		{"out of range", "70000", DefaultPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DBCONNECT_PORT", tt.value)
			if got := GetBindPort(); got != tt.want {
				t.Errorf("GetBindPort() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLimitedListener_Functionality(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}
	defer listener.Close()

	limitListener := &limitedListener{
		Listener:       listener,
		maxConnections: 2,
		semaphore:      make(chan struct{}, 2),
	}

	addr := listener.Addr().String()

	conn1, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("First connection failed: %v", err)
	}
	defer conn1.Close()

	acceptedConn1, err := limitListener.Accept()
	if err != nil {
		t.Fatalf("First accept failed: %v", err)
	}
	defer acceptedConn1.Close()

	conn2, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Second connection failed: %v", err)
	}
	defer conn2.Close()

	acceptedConn2, err := limitListener.Accept()
	if err != nil {
		t.Fatalf("Second accept failed: %v", err)
	}
	defer acceptedConn2.Close()

	conn3, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Third connection failed: %v", err)
	}
	defer conn3.Close()

	accept3Done := make(chan bool)
	go func() {
		acceptedConn3, err := limitListener.Accept()
		if err == nil {
			acceptedConn3.Close()
			accept3Done <- true
		} else {
			accept3Done <- false
		}
	}()

	select {
	case <-accept3Done:
		t.Error("Third Accept() should block when limit reached")
	case <-time.After(200 * time.Millisecond):
	}

	if err := acceptedConn1.Close(); err != nil {
		t.Errorf("Failed to close first connection: %v", err)
	}

	select {
	case success := <-accept3Done:
		if !success {
			t.Error("Third Accept() should succeed after slot freed")
		}
	case <-time.After(2 * time.Second):
		t.Error("Third Accept() should complete after slot freed")
	}
}

func TestLimitedConn_Close(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}
	defer listener.Close()

	semaphore := make(chan struct{}, 1)
	semaphore <- struct{}{}

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}

	limitConn := &limitedConn{
		Conn:      conn,
		semaphore: semaphore,
	}

	if err := limitConn.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if len(semaphore) != 0 {
		t.Errorf("Expected semaphore to be empty after close, got %d", len(semaphore))
	}

	if err := limitConn.Close(); err != nil {
		t.Errorf("Second close should not error: %v", err)
	}
}

func TestServer_Constants(t *testing.T) {
	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"DefaultHost", DefaultHost, "127.0.0.1"},
		{"DefaultPort", DefaultPort, 5180},
		{"MaxConnections", MaxConnections, 4},
		{"ShutdownTimeout", ShutdownTimeout, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

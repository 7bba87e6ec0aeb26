package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockContentServer is a test server standing in for the content APIs.
// Requests are routed by URL path; unknown paths get a 404.
type MockContentServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockContentServer creates a new mock content server.
func NewMockContentServer(t *testing.T) *MockContentServer {
	t.Helper()
	m := &MockContentServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// JSON serves body as JSON on path.
func (m *MockContentServer) JSON(path string, body any) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // test mock response
	}
}

// Raw serves a fixed status and body on path with the given content type.
func (m *MockContentServer) Raw(path string, status int, contentType, body string) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package testinfra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// Capture is one request received by a MockProviderServer.
type Capture struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

// MockProviderServer stands in for an external HTTP API (embeddings, chat
// completions, RSS feeds). It records every request.
type MockProviderServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	captures []Capture

	// ResponseStatus is the HTTP status code to return (default: 200).
	ResponseStatus int

	// ResponseBody is returned verbatim when ResponseFunc is nil.
	ResponseBody []byte

	// ResponseFunc allows custom response handling per request.
	ResponseFunc func(w http.ResponseWriter, r *http.Request, body []byte)
}

// NewMockProviderServer starts a server that is closed when the test ends.
func NewMockProviderServer(t *testing.T) *MockProviderServer {
	t.Helper()

	m := &MockProviderServer{ResponseStatus: http.StatusOK}

	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body.Close()
		}

		m.mu.Lock()
		m.captures = append(m.captures, Capture{
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		fn, status, resp := m.ResponseFunc, m.ResponseStatus, m.ResponseBody
		m.mu.Unlock()

		if fn != nil {
			fn(w, r, body)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if resp != nil {
			w.Write(resp) //nolint:errcheck
		}
	}))
	t.Cleanup(m.Server.Close)

	return m
}

// URL returns the server URL.
func (m *MockProviderServer) URL() string {
	return m.Server.URL
}

// Respond sets a fixed status and JSON-encoded body for later requests.
func (m *MockProviderServer) Respond(status int, body any) {
	data, _ := json.Marshal(body) //nolint:errcheck // test fixtures are plain maps and structs
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResponseFunc = nil
	m.ResponseStatus = status
	m.ResponseBody = data
}

// Handle installs fn as the handler for later requests.
func (m *MockProviderServer) Handle(fn func(w http.ResponseWriter, r *http.Request, body []byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResponseFunc = fn
}

// Captures returns a copy of all captured requests.
func (m *MockProviderServer) Captures() []Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Capture, len(m.captures))
	copy(out, m.captures)
	return out
}

// WaitForCaptures waits until at least n requests are captured or timeout elapses.
func (m *MockProviderServer) WaitForCaptures(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		count := len(m.captures)
		m.mu.Unlock()
		if count >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WriteJSON encodes v as a JSON response with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

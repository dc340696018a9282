// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	calls    atomic.Int64
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.calls.Add(1)
	return m.response, m.err
}

// Calls returns how many requests went through the round tripper.
func (m *MockRoundTripper) Calls() int64 { return m.calls.Load() }

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// CountingServer is an [httptest.Server] that counts requests and remembers the last Authorization header.
type CountingServer struct {
	*httptest.Server
	hits atomic.Int64
	mu   sync.Mutex
	auth string
	path string
}

// NewCountingServer starts a [CountingServer] serving h. It is closed when the test ends.
func NewCountingServer(t *testing.T, h http.HandlerFunc) *CountingServer {
	t.Helper()

	s := &CountingServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.mu.Lock()
		s.auth = r.Header.Get("Authorization")
		s.path = r.URL.RequestURI()
		s.mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *CountingServer) Hits() int64 { return s.hits.Load() }

func (s *CountingServer) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth
}

func (s *CountingServer) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// JSONHandler responds with status and v encoded as JSON.
func JSONHandler(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
}

// TokenHandler mimics an OAuth2 token endpoint granting accessToken with the given space separated scope.
func TokenHandler(accessToken, scope string) http.HandlerFunc {
	return JSONHandler(http.StatusOK, map[string]any{
		"access_token":  accessToken,
		"token_type":    "Bearer",
		"expires_in":    3600,
		"refresh_token": "refresh-" + accessToken,
		"scope":         scope,
	})
}

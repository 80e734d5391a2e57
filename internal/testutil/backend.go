package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// RecordedRequest captures one request seen by the fake backend.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Query  url.Values
	Body   []byte
}

// FakeBackend is a scripted stand-in for the solitude REST API. Tests
// register handlers per method+path and assert on the recorded traffic.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []RecordedRequest
}

func NewFakeBackend() *FakeBackend {
	f := &FakeBackend{handlers: make(map[string]http.HandlerFunc)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.dispatch))
	return f
}

func (f *FakeBackend) dispatch(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Query:  r.URL.Query(),
		Body:   body,
	})
	handler := f.handlers[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if handler == nil {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

// Handle registers a handler for a method and path.
func (f *FakeBackend) Handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = h
}

// JSON registers a handler that replies with a fixed status and body.
func (f *FakeBackend) JSON(method, path string, status int, body string) {
	f.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

// Requests returns a copy of all recorded requests.
func (f *FakeBackend) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// Count returns how many requests matched the method and path.
func (f *FakeBackend) Count(method, path string) int {
	n := 0
	for _, req := range f.Requests() {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

// Close shuts the underlying test server down.
func (f *FakeBackend) Close() {
	f.Server.Close()
}

// Package testutil provides testing utilities for the finguide application.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestServer wraps httptest.Server with convenience methods
type TestServer struct {
	Server  *httptest.Server
	BaseURL string
	t       *testing.T
}

// NewTestServer creates a new test server around the given handler
func NewTestServer(t *testing.T, router http.Handler) *TestServer {
	t.Helper()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:  server,
		BaseURL: server.URL,
		t:       t,
	}
}

// GET performs a GET request to the given path
func (ts *TestServer) GET(path string) *http.Response {
	ts.t.Helper()

	resp, err := http.Get(ts.BaseURL + path)
	if err != nil {
		ts.t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

// Do performs a request with the given method, path and optional headers
func (ts *TestServer) Do(method, path string, body io.Reader, headers map[string]string) *http.Response {
	ts.t.Helper()

	req, err := http.NewRequest(method, ts.BaseURL+path, body)
	if err != nil {
		ts.t.Fatalf("%s %s: failed to build request: %v", method, path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ts.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// PostJSON performs a POST with a JSON-encoded body
func (ts *TestServer) PostJSON(path string, payload interface{}) *http.Response {
	ts.t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		ts.t.Fatalf("POST %s: failed to encode payload: %v", path, err)
	}
	return ts.Do(http.MethodPost, path, bytes.NewReader(data),
		map[string]string{"Content-Type": "application/json"})
}

// PutJSON performs a PUT with a JSON-encoded body
func (ts *TestServer) PutJSON(path string, payload interface{}) *http.Response {
	ts.t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		ts.t.Fatalf("PUT %s: failed to encode payload: %v", path, err)
	}
	return ts.Do(http.MethodPut, path, bytes.NewReader(data),
		map[string]string{"Content-Type": "application/json"})
}

// DELETE performs a DELETE request to the given path
func (ts *TestServer) DELETE(path string) *http.Response {
	ts.t.Helper()
	return ts.Do(http.MethodDelete, path, nil, nil)
}

// ReadBody reads and returns the response body as a string
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return string(body)
}

// DecodeJSON decodes the response body into out
func DecodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response JSON: %v", err)
	}
}

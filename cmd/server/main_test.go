package main

import (
	"path/filepath"
	"testing"

	"finguide/internal/config"
	"finguide/internal/testutil"
)

// setupTestServer wires the full stack against a temporary data directory
func setupTestServer(t *testing.T) *testutil.TestServer {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		ListenAddr:    ":0",
		DataDirectory: dir,
		DataFile:      filepath.Join(dir, "finguide.json"),
	}

	if err := SetupDependencies(cfg); err != nil {
		t.Fatalf("Failed to setup dependencies: %v", err)
	}

	return testutil.NewTestServer(t, SetupRouter())
}

// TestHealthEndpoint tests the /api/health endpoint
func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.GET("/api/health")
	testutil.AssertResponse(t, resp).
		StatusOK().
		ContentTypeJSON().
		Contains(`"status":"ok"`).
		Contains(`"version"`)
}

// TestRoutesRegistered smoke-tests every API route through the real router
func TestRoutesRegistered(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/api/insights")).StatusOK()
	testutil.AssertResponse(t, ts.GET("/api/budgets")).StatusOK()
	testutil.AssertResponse(t, ts.GET("/api/recurring")).StatusOK()
	testutil.AssertResponse(t, ts.Do("POST", "/api/recurring/process", nil, nil)).StatusOK()
}

// TestUnknownRoute tests that unregistered paths return 404
func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/api/nope")).Status(404)
}

package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestReport_AllOkIsHealthy(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, nil, func() error { return nil }, func() error { return nil })
	// store check is nil-db by construction in this test; override it
	// directly since New always wires a db ping for "store".
	c.checks["store"] = func() error { return nil }

	status, checks := c.Report()
	if status != StatusHealthy {
		t.Fatalf("expected healthy, got %s (%v)", status, checks)
	}
	if checks["filesystem"] != "ok" {
		t.Fatalf("expected filesystem ok, got %v", checks)
	}
}

func TestReport_StoreFailureIsUnhealthy(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, nil, func() error { return nil }, func() error { return nil })
	c.checks["store"] = func() error { return errors.New("database is locked") }

	status, checks := c.Report()
	if status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", status)
	}
	if checks["store"] != "database is locked" {
		t.Fatalf("expected store failure message, got %v", checks)
	}
}

func TestReport_BusFailureIsDegradedNotUnhealthy(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, nil, func() error { return errors.New("no connections") }, func() error { return nil })
	c.checks["store"] = func() error { return nil }

	status, _ := c.Report()
	if status != StatusDegraded {
		t.Fatalf("expected degraded when a non-critical check fails, got %s", status)
	}
}

func TestReport_UnwritableFilesystemIsDegraded(t *testing.T) {
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	defer os.Chmod(dir, 0o700)

	c := New(dir, nil, func() error { return nil }, func() error { return nil })
	c.checks["store"] = func() error { return nil }

	status, checks := c.Report()
	if status != StatusDegraded {
		t.Fatalf("expected degraded on unwritable data dir, got %s (%v)", status, checks)
	}
}

func TestReport_NilChecksAreNotConfigured(t *testing.T) {
	c := New(t.TempDir(), nil, nil, nil)
	c.checks["store"] = func() error { return nil }

	_, checks := c.Report()
	if checks["bus"] != "not configured" || checks["bridge"] != "not configured" {
		t.Fatalf("expected nil checks to report not configured, got %v", checks)
	}
}

func TestServeHTTP_HealthyReturns200(t *testing.T) {
	c := New(t.TempDir(), nil, func() error { return nil }, func() error { return nil })
	c.checks["store"] = func() error { return nil }

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body report
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != StatusHealthy {
		t.Fatalf("expected healthy body, got %s", body.Status)
	}
}

func TestServeHTTP_UnhealthyReturns503(t *testing.T) {
	c := New(t.TempDir(), nil, func() error { return nil }, func() error { return nil })
	c.checks["store"] = func() error { return errors.New("gone") }

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

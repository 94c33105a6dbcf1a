package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestLiveness(t *testing.T) {
	checker := NewHealthChecker(nil)

	w := httptest.NewRecorder()
	checker.Liveness(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var status HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if status.Status != StatusHealthy {
		t.Errorf("Expected status %q, got %q", StatusHealthy, status.Status)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	checker := NewHealthChecker(map[string]Pinger{
		"storage": fakePinger{},
	})

	w := httptest.NewRecorder()
	checker.Readiness(w, httptest.NewRequest("GET", "/readyz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var status HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if status.Status != StatusHealthy {
		t.Errorf("Expected status %q, got %q", StatusHealthy, status.Status)
	}
	if status.Dependencies["storage"] != StatusHealthy {
		t.Errorf("Expected storage dependency healthy, got %q", status.Dependencies["storage"])
	}
}

func TestReadiness_DependencyFailure(t *testing.T) {
	checker := NewHealthChecker(map[string]Pinger{
		"storage": fakePinger{err: errors.New("connection refused")},
		"cache":   fakePinger{},
	})

	w := httptest.NewRecorder()
	checker.Readiness(w, httptest.NewRequest("GET", "/readyz", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}

	var status HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if status.Status != StatusUnhealthy {
		t.Errorf("Expected status %q, got %q", StatusUnhealthy, status.Status)
	}
	if status.Dependencies["storage"] != "connection refused" {
		t.Errorf("Expected failure message for storage, got %q", status.Dependencies["storage"])
	}
	if status.Dependencies["cache"] != StatusHealthy {
		t.Errorf("Expected cache dependency healthy, got %q", status.Dependencies["cache"])
	}
}

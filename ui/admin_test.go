package ui

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestAdminRouter tests the health endpoints without a database
func TestAdminRouter(t *testing.T) {
	handler := NewAdminRouter(nil, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Errorf("Unexpected healthz response: %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ready" {
		t.Errorf("Unexpected readyz response: %d %q", w.Code, w.Body.String())
	}

	// Without a metric set there is no /metrics route.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for /metrics, got %d", w.Code)
	}
}

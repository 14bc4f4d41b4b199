package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRouter_HealthIsOpen(t *testing.T) {
	router := NewRouter(testContainer())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	router := NewRouter(testContainer())

	paths := map[string]string{
		http.MethodGet:  "/api/v1/policies",
		http.MethodPost: "/api/v1/impact/run",
	}
	for method, path := range paths {
		req := httptest.NewRequest(method, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected status 401, got %d", method, path, rec.Code)
		}
	}
}

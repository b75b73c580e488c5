package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS_SetsHeadersOnRegularRequests(t *testing.T) {
	handler := CORS("https://atelier.example.com")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	headers := map[string]string{
		"Access-Control-Allow-Origin":  "https://atelier.example.com",
		"Access-Control-Allow-Methods": "GET, POST, PATCH, DELETE, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization",
		"Access-Control-Max-Age":       "86400",
	}
	for name, want := range headers {
		if got := w.Header().Get(name); got != want {
			t.Errorf("%s: got %q, want %q", name, got, want)
		}
	}
}

func TestCORS_PreflightAnsweredDirectly(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	handler := CORS("https://atelier.example.com")(next)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight: expected 204, got %d", w.Code)
	}
	if called {
		t.Error("preflight request should not reach the next handler")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://atelier.example.com" {
		t.Errorf("Access-Control-Allow-Origin: got %q", got)
	}
}

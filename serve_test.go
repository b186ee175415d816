package cotton

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServeHandlerHealthz(t *testing.T) {
	app := newTestApp(t)
	handler := app.serveHandler(ServeOptions{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz: status = %d, body = %q", rec.Code, rec.Body.String())
	}
}

func TestServeHandlerRoutesToApp(t *testing.T) {
	app := newTestApp(t)
	handler := app.serveHandler(ServeOptions{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<div id=\"app\">") {
		t.Error("expected the rendered page")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request ID header")
	}
}

func TestServeHandlerAppliesCallerMiddleware(t *testing.T) {
	app := newTestApp(t)

	marker := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Marked", "yes")
			next.ServeHTTP(w, r)
		})
	}
	handler := app.serveHandler(ServeOptions{Middleware: []func(http.Handler) http.Handler{marker}})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Marked") != "yes" {
		t.Error("caller middleware was not applied")
	}
}

package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health/live", "/health/live"},
		{"/metrics", "/metrics"},
		{"/api/v1/artworks", "/api/v1/artworks"},
		{"/api/v1/artworks/42", "/api/v1/artworks/{id}"},
		{"/api/v1/artworks/7/files/image", "/api/v1/artworks/{id}/files/image"},
		{"/api/v1/tags", "/api/v1/tags"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидали %q", tt.path, got, tt.want)
		}
	}
}

// newObservedRouter — роутер с RequestObserver и маршрутом файла произведения.
func newObservedRouter(buf *bytes.Buffer, status int) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestObserver(slog.New(slog.NewTextHandler(buf, nil))))
	r.Get("/api/v1/artworks/{id}/files/{field}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func TestRequestObserver_Level(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		rec := httptest.NewRecorder()
		newObservedRouter(&buf, tt.status).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/artworks/1/files/image", nil))

		out := buf.String()
		if !strings.Contains(out, "level="+tt.level) {
			t.Errorf("статус %d: ожидали уровень %s, лог: %s", tt.status, tt.level, out)
		}
		if !strings.Contains(out, "bytes=2") {
			t.Errorf("статус %d: ожидали bytes=2, лог: %s", tt.status, out)
		}
	}
}

func TestRequestObserver_GroupsByRoute(t *testing.T) {
	const route = "/api/v1/artworks/{id}/files/{field}"
	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, route, "200")
	before := testutil.ToFloat64(counter)

	var buf bytes.Buffer
	h := newObservedRouter(&buf, http.StatusOK)
	for _, path := range []string{"/api/v1/artworks/42/files/image", "/api/v1/artworks/43/files/preview"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("rm_http_requests_total{route=%q} вырос на %v, ожидали 2", route, got)
	}
	out := buf.String()
	if strings.Count(out, "route="+route) != 2 {
		t.Errorf("ожидали шаблон маршрута в обеих записях, лог: %s", out)
	}
	if !strings.Contains(out, "record_id=42") || !strings.Contains(out, "record_id=43") {
		t.Errorf("ожидали record_id в логе: %s", out)
	}
}

func TestRequestObserver_UnmatchedPath(t *testing.T) {
	var buf bytes.Buffer
	rec := httptest.NewRecorder()
	newObservedRouter(&buf, http.StatusOK).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown/5", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("статус = %d, ожидали 404", rec.Code)
	}
	if !strings.Contains(buf.String(), "route=/api/v1/unknown/{id}") {
		t.Errorf("ожидали нормализованный путь, лог: %s", buf.String())
	}
}

package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
	}{
		{name: "200 logs info", path: "/api/violations/all", status: http.StatusOK, wantLevel: "level=INFO"},
		{name: "404 logs warn", path: "/api/violations/9", status: http.StatusNotFound, wantLevel: "level=WARN"},
		{name: "500 logs error", path: "/api/violations", status: http.StatusInternalServerError, wantLevel: "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf strings.Builder
			logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelInfo}))

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Idempotency-Key", "key-1")
			rec := httptest.NewRecorder()

			LoggingMiddleware(logger)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			out := logBuf.String()
			assert.Contains(t, out, tt.wantLevel)
			assert.Contains(t, out, "path="+tt.path)
			assert.Contains(t, out, "bytes_written=4")
			assert.Contains(t, out, "idempotency_key=key-1")
		})
	}
}

func TestLoggingMiddleware_SkipPaths(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := LoggingMiddleware(logger, "/api/health")(next)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Empty(t, logBuf.String())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/violations/all", nil))
	assert.Contains(t, logBuf.String(), "HTTP request")
}

func TestResponseWriter_DefaultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	n, err := rw.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusOK, rw.statusCode)
	assert.Equal(t, int64(5), rw.written)
}

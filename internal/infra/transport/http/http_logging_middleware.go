package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkrupp/mediagate/internal/infra/logging"
)

// LoggingMiddlewareResponseWriter wraps http.ResponseWriter to capture response metrics.
type LoggingMiddlewareResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	BytesSent  int

	wroteHeader bool
}

func (w *LoggingMiddlewareResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.StatusCode = code
		w.wroteHeader = true
	}

	w.ResponseWriter.WriteHeader(code)
}

func (w *LoggingMiddlewareResponseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true

	n, err := w.ResponseWriter.Write(b)
	w.BytesSent += n

	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}

	return n, nil
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *LoggingMiddlewareResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// LoggingMiddleware creates middleware that logs HTTP request and response details.
// It logs requests at DEBUG level and responses at a level determined by the status code:
// - 5xx: ERROR
// - 4xx: WARN
// - Other: INFO.
// Cookies and form values are never logged.
func LoggingMiddleware(log logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		//nolint:varnamelen
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			log.DebugContext(r.Context(), "request", slog.Group("http",
				"path", r.URL.Path,
				"method", r.Method,
				"remote", r.RemoteAddr,
			))

			mw := &LoggingMiddlewareResponseWriter{
				ResponseWriter: w,
				StatusCode:     http.StatusOK, // This is default if no response code is written
				BytesSent:      0,
			}

			next.ServeHTTP(mw, r)

			var level logging.Level

			switch {
			case mw.StatusCode >= http.StatusInternalServerError:
				level = logging.LevelError
			case mw.StatusCode >= http.StatusBadRequest:
				level = logging.LevelWarn
			default:
				level = logging.LevelInfo
			}

			log.Log(r.Context(), level, "response", slog.Group("http",
				"path", r.URL.Path,
				"method", r.Method,
				"status", mw.StatusCode,
				"bytes_sent", mw.BytesSent,
				"duration", time.Since(start).String(),
			))
		})
	}
}

// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/marketshare/internal/logging"
)

// Logger logs one structured line per request with the chi request ID.
//
// Log fields:
//   - method, path: the request line
//   - status: response status code
//   - bytes: response body size
//   - duration_ms: processing time in milliseconds
//   - ip: client IP (RemoteAddr, resolved by TrustedRealIP)
//   - user_agent: client user agent string
//
// Server errors are logged at Error, client errors at Warn.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		switch {
		case ww.status >= http.StatusInternalServerError:
			level = slog.LevelError
		case ww.status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		logging.FromContext(r.Context()).Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Unwrap gives http.ResponseController access to the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

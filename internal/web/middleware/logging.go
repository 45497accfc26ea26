// Package middleware holds the HTTP middleware the web server installs ahead
// of its handlers.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/testsheet/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// Logger writes one structured line per request once the handler returns.
// The entry carries the request ID through logging.FromContext. Server
// errors are logged at error level, everything else at info.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		began := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			// nothing written; net/http sends 200
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		logging.FromContext(r.Context()).Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(began).Milliseconds(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}

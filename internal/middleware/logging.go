package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"callmonitor-bridge/internal/common/logging"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logging logs every request with method, path, status and duration
func Logging(logger logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", wrapped.statusCode),
				logging.Duration("duration", time.Since(start)),
				logging.String("remote_addr", r.RemoteAddr),
			}

			switch {
			case wrapped.statusCode >= 500:
				logger.Error("HTTP request completed", nil, fields...)
			case wrapped.statusCode >= 400:
				logger.Warn("HTTP request completed", fields...)
			default:
				logger.Debug("HTTP request completed", fields...)
			}
		})
	}
}

// Package middleware carries the HTTP middleware chain: request logging and
// Prometheus instrumentation. Authentication middleware lives in pkg/auth
// next to the credential code it depends on.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/moop-bio/moop-engine/pkg/metrics"
)

// RequestLogger returns middleware that logs HTTP requests at DEBUG level.
// Pass nil logger to disable logging.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// Instrument counts requests per matched route pattern and status code. The
// mux resolves the pattern so path parameters do not explode label
// cardinality.
func Instrument(m *metrics.Metrics, mux *http.ServeMux) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			_, route := mux.Handler(r)
			if route == "" {
				route = "unmatched"
			}
			m.HTTPRequests.WithLabelValues(route, strconv.Itoa(wrapped.statusCode)).Inc()
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

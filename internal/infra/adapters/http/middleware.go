package http

import (
	"context"
	"net/http"
	"time"

	"github.com/wedlockhq/wedlock/pkg/common/logger"
)

// Middleware wraps an HTTP handler and returns a new handler, allowing for
// pre and post-processing of requests.
type Middleware func(http.Handler) http.Handler

// APIMetrics defines metrics for API operations.
type APIMetrics interface {
	// ObserveRequestLatency records the latency of API requests.
	ObserveRequestLatency(ctx context.Context, endpoint string, method string, statusCode int, duration time.Duration)

	// IncRequestCount increments the count of requests by endpoint and status.
	IncRequestCount(ctx context.Context, endpoint string, method string, statusCode int)

	// TrackConcurrentRequests tracks the number of concurrent requests.
	TrackConcurrentRequests(ctx context.Context, endpoint string, f func() error) error
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and passes it to the wrapped ResponseWriter.
func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write captures a 200 status if WriteHeader hasn't been called yet.
func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// StatusCode returns the HTTP status code of the response.
func (w *statusWriter) StatusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// MetricsMiddleware creates middleware that records API metrics.
func MetricsMiddleware(metrics APIMetrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			endpoint := r.URL.Path
			method := r.Method

			sw := &statusWriter{ResponseWriter: w}

			err := metrics.TrackConcurrentRequests(r.Context(), endpoint, func() error {
				next.ServeHTTP(sw, r)
				return nil
			})

			statusCode := sw.StatusCode()
			metrics.IncRequestCount(r.Context(), endpoint, method, statusCode)
			metrics.ObserveRequestLatency(r.Context(), endpoint, method, statusCode, time.Since(start))

			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		})
	}
}

// LoggerMiddleware logs the start and completion of HTTP requests along with
// method, path, status code, and duration.
func LoggerMiddleware(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			sw := &statusWriter{ResponseWriter: w}

			log.Info(ctx, "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			next.ServeHTTP(sw, r)

			log.Info(ctx, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"status_code", sw.StatusCode(),
				"took", time.Since(start).String(),
			)
		})
	}
}

// PanicsMiddleware recovers from handler panics and converts them into a 500
// so one bad request cannot take the server down.
func PanicsMiddleware(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error(r.Context(), "handler panic recovered",
						"method", r.Method,
						"path", r.URL.Path,
						"panic", rec,
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// wrap applies the middleware chain so the first entry is the outermost.
func wrap(h http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/simplycrm/simplycrm/pkg/httputil"
	"github.com/simplycrm/simplycrm/pkg/observability"
)

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Instrument records request counts, durations, and an access log line.
// logger and metrics may be nil.
func Instrument(logger *observability.Logger, metrics *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			elapsed := time.Since(start)
			path := routePattern(r)

			if metrics != nil {
				metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
				metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(elapsed.Seconds())
			}
			if logger != nil {
				logger.WithFields(map[string]interface{}{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      rec.status,
					"duration_ms": elapsed.Milliseconds(),
					"request_id":  observability.GetRequestID(r.Context()),
				}).Info("request completed")
			}
		})
	}
}

// routePattern returns the mux route template so metric cardinality stays
// bounded, falling back to the raw path outside a mux router.
func routePattern(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if pattern, err := route.GetPathTemplate(); err == nil {
			return pattern
		}
	}
	return r.URL.Path
}

// Recover converts panics into 500 responses and logs the stack.
func Recover(logger *observability.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					observability.LogPanic(logger, rec, "http "+r.URL.Path)
					httputil.WriteInternalError(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"time"

	"github.com/hpyride/hpyride/pkg/metrics"
)

// Metrics records HTTP metrics. Paths are labelled by their route pattern so that ids do
// not explode the label set.
func (m *Middleware) Metrics(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			metrics.HttpRequestsInFlight.WithLabelValues(serviceName).Inc()
			defer metrics.HttpRequestsInFlight.WithLabelValues(serviceName).Dec()

			r, rt := withRoute(r)
			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r)

			path := rt.pattern
			if path == "" {
				path = "unmatched"
			}
			metrics.RecordHTTPMetrics(serviceName, r.Method, path, rw.status, time.Since(start))
		})
	}
}

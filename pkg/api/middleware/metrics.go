package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MetricsRecorder receives HTTP request metrics.
type MetricsRecorder interface {
	RecordHTTPRequest(method, path, status string, duration time.Duration)
	RecordResponseSize(method, path string, size float64)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()
}

// Metrics records request count, latency, size and in-flight requests.
// Paths are reduced to route templates to bound label cardinality.
func Metrics(recorder MetricsRecorder) Middleware {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder.IncHTTPRequestsInFlight()
			defer recorder.DecHTTPRequestsInFlight()

			rw := wrapResponseWriter(w)
			next.ServeHTTP(rw, r)

			path := routeLabel(r.URL.Path)
			recorder.RecordHTTPRequest(r.Method, path, strconv.Itoa(rw.status), time.Since(start))
			recorder.RecordResponseSize(r.Method, path, float64(rw.bytes))
		})
	}
}

// routeLabel replaces the node ID segment of /nodes/{id}/... paths.
func routeLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "nodes" {
		parts[1] = "{id}"
		return "/" + strings.Join(parts, "/")
	}
	return path
}

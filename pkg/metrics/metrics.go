package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the size of an HTTP response body.
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// IncHTTPRequestsInFlight increments the in-flight request gauge.
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight request gauge.
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func (r *Registry) RecordRateLimited() {
	r.HTTPRateLimitedTotal.Inc()
}

// StreamConnected adjusts the viewer gauge by delta.
func (r *Registry) StreamConnected(delta int) {
	r.StreamClients.Add(float64(delta))
}

// RecordStreamFrame counts one frame written to a viewer and the frames it
// skipped since the previous write.
func (r *Registry) RecordStreamFrame(skipped uint64) {
	r.StreamFramesTotal.Inc()
	if skipped > 0 {
		r.StreamDroppedTotal.Add(float64(skipped))
	}
}

// RecordTick records one layout tick that produced a frame.
func (r *Registry) RecordTick(duration time.Duration, alpha float64, nodes, edges int) {
	r.LayoutTickDuration.Observe(duration.Seconds())
	r.LayoutTicksTotal.Inc()
	r.LayoutAlpha.Set(alpha)
	r.LayoutNodes.Set(float64(nodes))
	r.LayoutEdgesRendered.Set(float64(edges))
}

// RecordRefresh records a data refresh.
func (r *Registry) RecordRefresh(changed bool, nodes, edges int) {
	r.LayoutRefreshesTotal.WithLabelValues(strconv.FormatBool(changed)).Inc()
	r.LayoutNodes.Set(float64(nodes))
}

// RecordReveal sets the reveal state and progress.
func (r *Registry) RecordReveal(state string, progress float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range revealStates {
		r.RevealState.WithLabelValues(s).Set(0)
	}
	r.RevealState.WithLabelValues(state).Set(1)
	r.RevealProgress.Set(progress)
}

// RecordCrossings sets the crossing count of the settled layout.
func (r *Registry) RecordCrossings(n int) {
	r.LayoutCrossings.Set(float64(n))
}

// RecordSourceLoad records a dataset load attempt.
func (r *Registry) RecordSourceLoad(source string, err error, duration time.Duration, people, relationships int) {
	r.SourceLoadDuration.Observe(duration.Seconds())
	if err != nil {
		r.SourceLoadsTotal.WithLabelValues(source, "error").Inc()
		return
	}
	r.SourceLoadsTotal.WithLabelValues(source, "success").Inc()
	r.SourceLastSuccessSeconds.Set(float64(time.Now().Unix()))
	r.SourcePeople.Set(float64(people))
	r.SourceRelationships.Set(float64(relationships))
}

// RecordConfigReload records a configuration reload.
func (r *Registry) RecordConfigReload(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.ConfigReloadsTotal.WithLabelValues(status).Inc()
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges.
func (r *Registry) UpdateSystemMetrics() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(r.startedAt).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
	r.MemorySysBytes.Set(float64(mem.Sys))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

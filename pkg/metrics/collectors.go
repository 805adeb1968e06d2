package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// revealStates are the label values of RevealState.
var revealStates = []string{"not_started", "revealing", "complete"}

var (
	tickBuckets = []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05}
	sizeBuckets = []float64{100, 1000, 10000, 100000, 1000000}
)

// factory registers namespaced collectors on one registry.
type factory struct {
	auto promauto.Factory
}

func (f factory) gauge(name, help string) prometheus.Gauge {
	return f.auto.NewGauge(prometheus.GaugeOpts{Namespace: Namespace, Name: name, Help: help})
}

func (f factory) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return f.auto.NewGaugeVec(prometheus.GaugeOpts{Namespace: Namespace, Name: name, Help: help}, labels)
}

func (f factory) counter(name, help string) prometheus.Counter {
	return f.auto.NewCounter(prometheus.CounterOpts{Namespace: Namespace, Name: name, Help: help})
}

func (f factory) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return f.auto.NewCounterVec(prometheus.CounterOpts{Namespace: Namespace, Name: name, Help: help}, labels)
}

func (f factory) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return f.auto.NewHistogram(prometheus.HistogramOpts{Namespace: Namespace, Name: name, Help: help, Buckets: buckets})
}

func (f factory) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return f.auto.NewHistogramVec(prometheus.HistogramOpts{Namespace: Namespace, Name: name, Help: help, Buckets: buckets}, labels)
}

func (r *Registry) register() {
	f := factory{auto: promauto.With(r.registry)}

	r.HTTPRequestsTotal = f.counterVec("http_requests_total", "HTTP requests by method, route and status", "method", "path", "status")
	r.HTTPRequestDuration = f.histogramVec("http_request_duration_seconds", "HTTP request latency", prometheus.DefBuckets, "method", "path", "status")
	r.HTTPRequestsInFlight = f.gauge("http_requests_in_flight", "HTTP requests being served")
	r.HTTPResponseSizeBytes = f.histogramVec("http_response_size_bytes", "HTTP response body size", sizeBuckets, "method", "path")
	r.HTTPRateLimitedTotal = f.counter("http_rate_limited_total", "Requests rejected by the rate limiter")

	r.LayoutTickDuration = f.histogram("layout_tick_duration_seconds", "Time spent in one layout tick", tickBuckets)
	r.LayoutTicksTotal = f.counter("layout_ticks_total", "Layout ticks that produced a new frame")
	r.LayoutAlpha = f.gauge("layout_alpha", "Current simulation temperature")
	r.LayoutNodes = f.gauge("layout_nodes", "People in the current layout")
	r.LayoutEdgesRendered = f.gauge("layout_edges_rendered", "Relationships in the latest frame")
	r.LayoutRefreshesTotal = f.counterVec("layout_refreshes_total", "Data refreshes by whether the graph changed", "changed")
	r.LayoutCrossings = f.gauge("layout_edge_crossings", "Edge crossings in the last settled layout")

	r.RevealState = f.gaugeVec("reveal_state", "1 for the active reveal state", "state")
	r.RevealProgress = f.gauge("reveal_progress_ratio", "Fraction of scheduled people already revealed")

	r.SourceLoadsTotal = f.counterVec("source_loads_total", "Dataset loads by source kind and outcome", "source", "status")
	r.SourceLoadDuration = f.histogram("source_load_duration_seconds", "Time to load a dataset", prometheus.DefBuckets)
	r.SourceLastSuccessSeconds = f.gauge("source_last_success_timestamp_seconds", "Unix time of the last successful load")
	r.SourcePeople = f.gauge("source_people", "People in the last loaded dataset")
	r.SourceRelationships = f.gauge("source_relationships", "Relationships in the last loaded dataset")

	r.StreamClients = f.gauge("stream_clients", "Connected websocket viewers")
	r.StreamFramesTotal = f.counter("stream_frames_total", "Frames written to websocket viewers")
	r.StreamDroppedTotal = f.counter("stream_frames_dropped_total", "Stale frames skipped for slow viewers")
	r.ConfigReloadsTotal = f.counterVec("config_reloads_total", "Configuration reloads by outcome", "status")

	r.UptimeSeconds = f.gauge("uptime_seconds", "Seconds since the server started")
	r.GoRoutines = f.gauge("goroutines", "Live goroutines")
	r.MemoryAllocBytes = f.gauge("memory_alloc_bytes", "Bytes of allocated heap objects")
	r.MemorySysBytes = f.gauge("memory_sys_bytes", "Bytes of memory obtained from the OS")
}

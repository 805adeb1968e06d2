package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "socialgraph"

// Registry holds every collector the server exports. Collectors live on a
// private Prometheus registry so tests can build independent instances.
type Registry struct {
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec
	HTTPRateLimitedTotal  prometheus.Counter

	LayoutTickDuration   prometheus.Histogram
	LayoutTicksTotal     prometheus.Counter
	LayoutAlpha          prometheus.Gauge
	LayoutNodes          prometheus.Gauge
	LayoutEdgesRendered  prometheus.Gauge
	LayoutRefreshesTotal *prometheus.CounterVec
	LayoutCrossings      prometheus.Gauge

	RevealState    *prometheus.GaugeVec
	RevealProgress prometheus.Gauge

	SourceLoadsTotal         *prometheus.CounterVec
	SourceLoadDuration       prometheus.Histogram
	SourceLastSuccessSeconds prometheus.Gauge
	SourcePeople             prometheus.Gauge
	SourceRelationships      prometheus.Gauge

	StreamClients      prometheus.Gauge
	StreamFramesTotal  prometheus.Counter
	StreamDroppedTotal prometheus.Counter
	ConfigReloadsTotal *prometheus.CounterVec

	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry  *prometheus.Registry
	startedAt time.Time
	mu        sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every collector registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry:  prometheus.NewRegistry(),
		startedAt: time.Now(),
	}
	r.register()
	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

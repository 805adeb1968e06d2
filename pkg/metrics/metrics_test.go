package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.LayoutTickDuration == nil {
		t.Error("LayoutTickDuration not initialized")
	}
	if r.RevealState == nil {
		t.Error("RevealState not initialized")
	}
	if r.SourceLoadsTotal == nil {
		t.Error("SourceLoadsTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/graph", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("POST", "/graph", "202", 200*time.Millisecond)
	r.RecordHTTPRequest("GET", "/graph", "200", 50*time.Millisecond)

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/graph", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got := counterValue(t, counter); got != 2 {
		t.Errorf("Counter value = %v, want 2", got)
	}
}

func TestRecordTick(t *testing.T) {
	r := NewRegistry()

	r.RecordTick(2*time.Millisecond, 0.25, 12, 9)
	r.RecordTick(time.Millisecond, 0.2, 12, 10)

	if got := counterValue(t, r.LayoutTicksTotal); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}
	if got := gaugeValue(t, r.LayoutAlpha); got != 0.2 {
		t.Errorf("alpha = %v, want 0.2", got)
	}
	if got := gaugeValue(t, r.LayoutEdgesRendered); got != 10 {
		t.Errorf("edges = %v, want 10", got)
	}

	var metric dto.Metric
	if err := r.LayoutTickDuration.Write(&metric); err != nil {
		t.Fatalf("Failed to write histogram: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("Sample count = %v, want 2", metric.Histogram.GetSampleCount())
	}
}

func TestRecordRefresh(t *testing.T) {
	r := NewRegistry()

	r.RecordRefresh(true, 5, 4)
	r.RecordRefresh(false, 5, 4)
	r.RecordRefresh(false, 5, 4)

	changed, _ := r.LayoutRefreshesTotal.GetMetricWithLabelValues("true")
	unchanged, _ := r.LayoutRefreshesTotal.GetMetricWithLabelValues("false")
	if got := counterValue(t, changed); got != 1 {
		t.Errorf("changed = %v, want 1", got)
	}
	if got := counterValue(t, unchanged); got != 2 {
		t.Errorf("unchanged = %v, want 2", got)
	}
}

func TestRecordReveal(t *testing.T) {
	r := NewRegistry()

	r.RecordReveal("revealing", 0.5)
	r.RecordReveal("complete", 1)

	tests := []struct {
		state string
		want  float64
	}{
		{"not_started", 0},
		{"revealing", 0},
		{"complete", 1},
	}
	for _, tt := range tests {
		g, err := r.RevealState.GetMetricWithLabelValues(tt.state)
		if err != nil {
			t.Fatalf("Failed to get %s: %v", tt.state, err)
		}
		if got := gaugeValue(t, g); got != tt.want {
			t.Errorf("reveal_state{%s} = %v, want %v", tt.state, got, tt.want)
		}
	}
	if got := gaugeValue(t, r.RevealProgress); got != 1 {
		t.Errorf("progress = %v, want 1", got)
	}
}

func TestRecordSourceLoad(t *testing.T) {
	r := NewRegistry()

	r.RecordSourceLoad("postgres", nil, 10*time.Millisecond, 30, 45)
	r.RecordSourceLoad("postgres", errors.New("connection refused"), time.Millisecond, 0, 0)

	ok, _ := r.SourceLoadsTotal.GetMetricWithLabelValues("postgres", "success")
	failed, _ := r.SourceLoadsTotal.GetMetricWithLabelValues("postgres", "error")
	if counterValue(t, ok) != 1 || counterValue(t, failed) != 1 {
		t.Error("expected one success and one error")
	}
	if got := gaugeValue(t, r.SourcePeople); got != 30 {
		t.Errorf("people = %v, want 30 (failed loads keep the last size)", got)
	}
	if gaugeValue(t, r.SourceLastSuccessSeconds) == 0 {
		t.Error("last success timestamp not set")
	}
}

func TestRecordConfigReload(t *testing.T) {
	r := NewRegistry()

	r.RecordConfigReload(nil)
	r.RecordConfigReload(errors.New("bad yaml"))

	failed, _ := r.ConfigReloadsTotal.GetMetricWithLabelValues("error")
	if got := counterValue(t, failed); got != 1 {
		t.Errorf("failed reloads = %v, want 1", got)
	}
}

func TestSystemMetrics(t *testing.T) {
	r := NewRegistry()

	r.UpdateSystemMetrics()

	if gaugeValue(t, r.GoRoutines) < 1 {
		t.Error("goroutines not recorded")
	}
	if gaugeValue(t, r.MemorySysBytes) <= 0 {
		t.Error("memory not recorded")
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()

	metrics, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(metrics) == 0 {
		t.Fatal("No metrics registered")
	}

	for _, m := range metrics {
		if !strings.HasPrefix(m.GetName(), Namespace+"_") {
			t.Errorf("Metric %s does not have the %s_ prefix", m.GetName(), Namespace)
		}
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordTick(time.Millisecond, 0.5, 3, 2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(string(body), "socialgraph_layout_alpha 0.5") {
		t.Errorf("layout_alpha missing from exposition:\n%s", body)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordHTTPRequest("GET", "/graph", "200", 10*time.Millisecond)
				r.RecordReveal("revealing", 0.5)
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	counter, _ := r.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/graph", "200")
	if got := counterValue(t, counter); got != 1000 {
		t.Errorf("Counter = %v, want 1000", got)
	}
}

func BenchmarkRecordTick(b *testing.B) {
	r := NewRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordTick(time.Millisecond, 0.1, 100, 150)
	}
}

func TestHTTPAndStreamRecorders(t *testing.T) {
	r := NewRegistry()

	r.IncHTTPRequestsInFlight()
	r.IncHTTPRequestsInFlight()
	r.DecHTTPRequestsInFlight()
	r.RecordRateLimited()
	r.StreamConnected(1)
	r.StreamConnected(1)
	r.StreamConnected(-1)
	r.RecordStreamFrame(0)
	r.RecordStreamFrame(3)

	if got := gaugeValue(t, r.HTTPRequestsInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	if got := counterValue(t, r.HTTPRateLimitedTotal); got != 1 {
		t.Errorf("rate limited = %v, want 1", got)
	}
	if got := gaugeValue(t, r.StreamClients); got != 1 {
		t.Errorf("stream clients = %v, want 1", got)
	}
	if got := counterValue(t, r.StreamFramesTotal); got != 2 {
		t.Errorf("frames = %v, want 2", got)
	}
	if got := counterValue(t, r.StreamDroppedTotal); got != 3 {
		t.Errorf("dropped = %v, want 3", got)
	}
}

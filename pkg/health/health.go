// Package health reports whether the layout engine and its data source are
// working. Each check is registered for one or more probes; the HTTP
// handlers run the checks of their probe concurrently under the request
// context.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status of a check or a whole report.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

var severity = map[Status]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}

// Probe selects which endpoint runs a check.
type Probe uint8

const (
	Liveness Probe = 1 << iota
	Readiness
	Overview

	AllProbes = Liveness | Readiness | Overview
)

// DefaultCheckTimeout bounds a single check when the caller sets no deadline.
const DefaultCheckTimeout = 5 * time.Second

// Check is the outcome of one check.
type Check struct {
	Name       string         `json:"name"`
	Status     Status         `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	DurationMS float64        `json:"duration_ms"`
}

// CheckFunc performs a check. It should return promptly once ctx is done.
type CheckFunc func(ctx context.Context) Check

// Report aggregates the checks of one probe. The worst status wins.
type Report struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    float64          `json:"uptime_seconds"`
	Checks    map[string]Check `json:"checks"`
}

type registered struct {
	name   string
	fn     CheckFunc
	probes Probe
}

// Checker holds the registered checks.
type Checker struct {
	mu        sync.RWMutex
	checks    []registered
	startedAt time.Time
	now       func() time.Time
	timeout   time.Duration
}

// NewChecker creates an empty checker.
func NewChecker() *Checker {
	return &Checker{
		startedAt: time.Now(),
		now:       time.Now,
		timeout:   DefaultCheckTimeout,
	}
}

// Register adds fn under name for probes. Registering a name again replaces
// the earlier check.
func (c *Checker) Register(name string, fn CheckFunc, probes Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.checks {
		if c.checks[i].name == name {
			c.checks[i] = registered{name: name, fn: fn, probes: probes}
			return
		}
	}
	c.checks = append(c.checks, registered{name: name, fn: fn, probes: probes})
}

// Names returns the names registered for probe, sorted.
func (c *Checker) Names(probe Probe) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var names []string
	for _, r := range c.checks {
		if r.probes&probe != 0 {
			names = append(names, r.name)
		}
	}
	sort.Strings(names)
	return names
}

// Run executes the checks registered for probe.
func (c *Checker) Run(ctx context.Context, probe Probe) Report {
	c.mu.RLock()
	var selected []registered
	for _, r := range c.checks {
		if r.probes&probe != 0 {
			selected = append(selected, r)
		}
	}
	c.mu.RUnlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	results := make([]Check, len(selected))
	var wg sync.WaitGroup
	for i, r := range selected {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			check := r.fn(ctx)
			check.Name = r.name
			check.DurationMS = float64(time.Since(start).Microseconds()) / 1000
			results[i] = check
		}()
	}
	wg.Wait()

	now := c.now()
	report := Report{
		Status:    StatusHealthy,
		Timestamp: now,
		Uptime:    now.Sub(c.startedAt).Seconds(),
		Checks:    make(map[string]Check, len(results)),
	}
	for _, check := range results {
		report.Checks[check.Name] = check
		if severity[check.Status] > severity[report.Status] {
			report.Status = check.Status
		}
	}
	return report
}

// Handler serves the report for probe. The overview answers 200 while
// degraded; liveness and readiness need every check healthy.
func (c *Checker) Handler(probe Probe) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context(), probe)

		code := http.StatusOK
		switch {
		case report.Status == StatusUnhealthy:
			code = http.StatusServiceUnavailable
		case report.Status == StatusDegraded && probe != Overview:
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
	})
}

package health

import (
	"context"
	"fmt"
	"time"
)

// EngineState is what EngineCheck needs from the layout engine.
type EngineState interface {
	Running() bool
	LastTick() time.Time
	FrameRate() int
}

// staleTicks frame intervals without a tick mark the engine as stuck.
const staleTicks = 30

// EngineCheck reports whether the layout engine is ticking.
func EngineCheck(e EngineState, now func() time.Time) CheckFunc {
	return func(context.Context) Check {
		fps := e.FrameRate()
		details := map[string]any{"frame_rate": fps}

		if !e.Running() {
			return Check{Status: StatusUnhealthy, Message: "engine not running", Details: details}
		}
		last := e.LastTick()
		if last.IsZero() {
			return Check{Status: StatusDegraded, Message: "engine has not ticked yet", Details: details}
		}

		age := now().Sub(last)
		details["last_tick_age_ms"] = age.Milliseconds()
		if age > staleTicks*time.Second/time.Duration(max(fps, 1)) {
			return Check{
				Status:  StatusUnhealthy,
				Message: fmt.Sprintf("no tick for %s", age.Round(time.Millisecond)),
				Details: details,
			}
		}
		return Check{Status: StatusHealthy, Message: "engine ticking", Details: details}
	}
}

// SourceCheck reports how fresh the graph data is. lastLoad returns the
// time of the last successful load and the error of the latest attempt.
// No data is unhealthy; data older than three poll intervals or a failed
// latest attempt is degraded. interval 0 means the data never goes stale.
func SourceCheck(lastLoad func() (time.Time, error), interval time.Duration, now func() time.Time) CheckFunc {
	return func(context.Context) Check {
		details := map[string]any{}
		last, err := lastLoad()
		if err != nil {
			details["last_error"] = err.Error()
		}
		if last.IsZero() {
			return Check{Status: StatusUnhealthy, Message: "no data loaded", Details: details}
		}

		age := now().Sub(last)
		details["data_age_ms"] = age.Milliseconds()
		switch {
		case interval > 0 && age > 3*interval:
			return Check{Status: StatusDegraded, Message: "data is stale", Details: details}
		case err != nil:
			return Check{Status: StatusDegraded, Message: "last refresh failed", Details: details}
		}
		return Check{Status: StatusHealthy, Message: "data fresh", Details: details}
	}
}

// DatabaseCheck pings the database under the check context.
func DatabaseCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		if err := ping(ctx); err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		return Check{Status: StatusHealthy, Message: "connected"}
	}
}

// highMemoryRatio of heap in use to memory obtained from the OS is degraded.
const highMemoryRatio = 0.9

// MemoryCheck reports heap usage.
func MemoryCheck(usage func() (alloc, sys uint64)) CheckFunc {
	return func(context.Context) Check {
		alloc, sys := usage()
		details := map[string]any{"alloc_bytes": alloc, "sys_bytes": sys}
		if sys > 0 && float64(alloc)/float64(sys) > highMemoryRatio {
			return Check{Status: StatusDegraded, Message: "high memory usage", Details: details}
		}
		return Check{Status: StatusHealthy, Message: "memory usage normal", Details: details}
	}
}

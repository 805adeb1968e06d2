package logging

import "time"

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field   { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Any(key string, value any) Field         { return Field{Key: key, Value: value} }

// Duration renders d in Go notation ("1.5s") rather than nanoseconds.
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d.String()}
}

// Error records err under "error"; a nil error is recorded as null.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component names the subsystem emitting the entry.
func Component(name string) Field { return String("component", name) }

func Count(n int) Field             { return Int("count", n) }
func Path(p string) Field           { return String("path", p) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
func RequestID(id string) Field     { return String("request_id", id) }

// Layout fields.

func NodeID(id uint64) Field { return Uint64("node_id", id) }
func EdgeID(id uint64) Field { return Uint64("edge_id", id) }

// Alpha is the simulation temperature.
func Alpha(a float64) Field { return Float64("alpha", a) }

// Generation is the reveal generation an entry belongs to.
func Generation(g uint64) Field { return Uint64("generation", g) }

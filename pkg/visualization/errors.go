package visualization

import "github.com/cockroachdb/errors"

var (
	// ErrEngineStopped is returned for commands sent to an engine that is
	// not running.
	ErrEngineStopped = errors.New("layout engine stopped")
	// ErrUnknownNode is returned when a command names a node not in the graph.
	ErrUnknownNode = errors.New("unknown node")
)

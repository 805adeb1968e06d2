package visualization

import (
	"math/rand"
	"time"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// Recorder receives layout measurements. pkg/metrics implements it.
type Recorder interface {
	RecordTick(duration time.Duration, alpha float64, nodes, edges int)
	RecordRefresh(changed bool, nodes, edges int)
	RecordReveal(state string, progress float64)
	RecordCrossings(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordTick(time.Duration, float64, int, int) {}
func (nopRecorder) RecordRefresh(bool, int, int)                {}
func (nopRecorder) RecordReveal(string, float64)                {}
func (nopRecorder) RecordCrossings(int)                         {}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock sets the time source used by data refreshes.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithViewer sets the person the reveal starts from.
func WithViewer(id uint64) Option {
	return func(c *Controller) { c.viewer = id }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithSeed makes neighbour seeding reproducible.
func WithSeed(seed int64) Option {
	return func(c *Controller) { c.rng = rand.New(rand.NewSource(seed)) }
}

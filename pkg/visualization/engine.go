package visualization

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// DefaultFrameRate is the tick rate when none is configured.
const DefaultFrameRate = 60

// TopicFrames is the pub/sub topic frames are published on.
const TopicFrames = "layout.frames"

// Publisher fans frames out to subscribers. pkg/pubsub implements it.
type Publisher interface {
	Publish(topic string, message any)
}

// Engine runs a Controller on a single goroutine. Ticks and commands are
// serialised, so every tick sees a consistent graph and every command sees a
// completed tick.
type Engine struct {
	ctrl      *Controller
	frameRate int
	publisher Publisher
	logger    logging.Logger
	clock     func() time.Time

	cmds    chan func(*Controller)
	done    chan struct{}
	running atomic.Bool
	once    sync.Once

	latest   atomic.Pointer[Frame]
	lastTick atomic.Int64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithFrameRate sets ticks per second.
func WithFrameRate(fps int) EngineOption {
	return func(e *Engine) {
		if fps > 0 {
			e.frameRate = fps
		}
	}
}

// WithPublisher sets where frames are published.
func WithPublisher(p Publisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(l logging.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithEngineClock sets the clock passed to each tick.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = now }
}

// NewEngine wraps ctrl. The engine owns ctrl from here on.
func NewEngine(ctrl *Controller, opts ...EngineOption) *Engine {
	e := &Engine{
		ctrl:      ctrl,
		frameRate: DefaultFrameRate,
		logger:    logging.NewNopLogger(),
		clock:     time.Now,
		cmds:      make(chan func(*Controller)),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logging.Component("engine"))

	initial := ctrl.Snapshot()
	e.latest.Store(&initial)
	return e
}

// Run ticks the controller at the frame rate until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("layout engine already running")
	}
	defer e.once.Do(func() { close(e.done) })

	ticker := time.NewTicker(time.Second / time.Duration(e.frameRate))
	defer ticker.Stop()

	e.logger.Info("engine started", logging.Int("frame_rate", e.frameRate))
	defer e.logger.Info("engine stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-e.cmds:
			cmd(e.ctrl)
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) tick() {
	now := e.clock()
	prev := e.latest.Load()
	frame := e.ctrl.Tick(now)
	e.lastTick.Store(now.UnixNano())

	if prev != nil && prev.Seq == frame.Seq {
		return
	}
	e.latest.Store(&frame)
	if e.publisher != nil {
		e.publisher.Publish(TopicFrames, frame)
	}
}

// do runs fn on the engine goroutine and waits for it. Commands sent before
// Run starts wait for it or for ctx.
func (e *Engine) do(ctx context.Context, fn func(*Controller)) error {
	finished := make(chan struct{})
	cmd := func(c *Controller) {
		defer close(finished)
		fn(c)
	}

	select {
	case e.cmds <- cmd:
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "submit layout command")
	}

	select {
	case <-finished:
		return nil
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "await layout command")
	}
}

// Refresh replaces the graph data.
func (e *Engine) Refresh(ctx context.Context, nodes []NodeInput, edges []EdgeInput) error {
	return e.do(ctx, func(c *Controller) { c.RefreshData(nodes, edges) })
}

// Reset reseeds the layout.
func (e *Engine) Reset(ctx context.Context) error {
	return e.do(ctx, func(c *Controller) { c.Reset() })
}

// UpdateSettings applies new layout settings.
func (e *Engine) UpdateSettings(ctx context.Context, s Settings) error {
	return e.do(ctx, func(c *Controller) { c.ApplySettings(s) })
}

// Settings returns the current layout settings.
func (e *Engine) Settings(ctx context.Context) (Settings, error) {
	var s Settings
	err := e.do(ctx, func(c *Controller) { s = c.Settings() })
	return s, err
}

// Pin holds a node at pos.
func (e *Engine) Pin(ctx context.Context, id uint64, pos Position) error {
	var found bool
	if err := e.do(ctx, func(c *Controller) { found = c.Pin(id, pos) }); err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(ErrUnknownNode, "pin node %d", id)
	}
	return nil
}

// Release frees a pinned node.
func (e *Engine) Release(ctx context.Context, id uint64) error {
	var found bool
	if err := e.do(ctx, func(c *Controller) { found = c.Release(id) }); err != nil {
		return err
	}
	if !found {
		return errors.Wrapf(ErrUnknownNode, "release node %d", id)
	}
	return nil
}

// Snapshot returns the controller's current frame, read on the engine
// goroutine.
func (e *Engine) Snapshot(ctx context.Context) (Frame, error) {
	var f Frame
	err := e.do(ctx, func(c *Controller) { f = c.Snapshot() })
	return f, err
}

// Latest returns the most recently published frame without waiting for the
// engine.
func (e *Engine) Latest() Frame {
	return *e.latest.Load()
}

// LastTick returns when the engine last ticked, or the zero time.
func (e *Engine) LastTick() time.Time {
	ns := e.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	select {
	case <-e.done:
		return false
	default:
		return e.running.Load()
	}
}

// FrameRate returns ticks per second.
func (e *Engine) FrameRate() int {
	return e.frameRate
}

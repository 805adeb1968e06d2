package source

import (
	"context"
	"sync"
	"time"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// LoadRecorder receives load measurements. pkg/metrics implements it.
type LoadRecorder interface {
	RecordSourceLoad(source string, err error, duration time.Duration, people, relationships int)
}

// Poller loads a source on start, on every interval and on Trigger, and
// hands over each dataset whose fingerprint differs from the last one.
type Poller struct {
	source   Source
	interval time.Duration
	onChange func(context.Context, *Dataset) error
	logger   logging.Logger
	recorder LoadRecorder
	timeout  time.Duration
	trigger  chan struct{}

	mu          sync.RWMutex
	lastSuccess time.Time
	lastErr     error
	fingerprint uint64
	loaded      bool
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollerLogger sets the logger.
func WithPollerLogger(l logging.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// WithLoadRecorder sets the metrics recorder.
func WithLoadRecorder(r LoadRecorder) PollerOption {
	return func(p *Poller) { p.recorder = r }
}

// WithLoadTimeout bounds each load.
func WithLoadTimeout(d time.Duration) PollerOption {
	return func(p *Poller) { p.timeout = d }
}

// NewPoller creates a poller. A zero interval loads only on start and on
// Trigger.
func NewPoller(src Source, interval time.Duration, onChange func(context.Context, *Dataset) error, opts ...PollerOption) *Poller {
	p := &Poller{
		source:   src,
		interval: interval,
		onChange: onChange,
		logger:   logging.NewNopLogger(),
		trigger:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logging.Component("source"), logging.String("source", src.Kind()))
	return p
}

// Run polls until ctx is done. Load failures are logged and retried on the
// next interval; they never stop the poller.
func (p *Poller) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			p.Poll(ctx)
		case <-p.trigger:
			p.Poll(ctx)
		}
	}
}

// Trigger requests a load as soon as possible. Repeated triggers before the
// load runs collapse into one.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Poll loads once and reports whether a changed dataset was handed over.
func (p *Poller) Poll(ctx context.Context) bool {
	loadCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	ds, err := p.source.Load(loadCtx)
	duration := time.Since(start)

	if err != nil {
		p.record(err, duration, nil)
		p.logger.Warn("load failed", logging.Error(err), logging.Latency(duration))
		return false
	}
	p.record(nil, duration, ds)

	fp := ds.Fingerprint()
	p.mu.RLock()
	unchanged := p.loaded && fp == p.fingerprint
	p.mu.RUnlock()
	if unchanged {
		p.logger.Debug("dataset unchanged", logging.Latency(duration))
		return false
	}

	if err := p.onChange(ctx, ds); err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		p.logger.Error("dataset rejected", logging.Error(err))
		return false
	}

	p.mu.Lock()
	p.fingerprint = fp
	p.loaded = true
	p.mu.Unlock()

	p.logger.Info("dataset loaded",
		logging.Count(len(ds.Nodes)),
		logging.Int("relationships", len(ds.Edges)),
		logging.Latency(duration))
	return true
}

func (p *Poller) record(err error, d time.Duration, ds *Dataset) {
	p.mu.Lock()
	p.lastErr = err
	if err == nil {
		p.lastSuccess = time.Now()
	}
	p.mu.Unlock()

	if p.recorder == nil {
		return
	}
	if ds == nil {
		p.recorder.RecordSourceLoad(p.source.Kind(), err, d, 0, 0)
		return
	}
	p.recorder.RecordSourceLoad(p.source.Kind(), nil, d, len(ds.Nodes), len(ds.Edges))
}

// LastLoad returns the time of the last successful load and the error of
// the latest attempt.
func (p *Poller) LastLoad() (time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSuccess, p.lastErr
}

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   logging.Logger
	onChange func(*Config)
	onError  func(error)
}

// NewWatcher creates a watcher for path. onChange receives every config
// that loads and validates; onError receives every reload that fails. Either
// may be nil.
func NewWatcher(path string, logger logging.Logger, onChange func(*Config), onError func(error)) *Watcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Watcher{
		path:     path,
		debounce: DefaultDebounce,
		logger:   logger.With(logging.Component("config"), logging.Path(path)),
		onChange: onChange,
		onError:  onError,
	}
}

// SetDebounce changes the quiet period before a reload.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Reload loads the file once and reports the outcome to the callbacks.
func (w *Watcher) Reload() error {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected", logging.Error(err))
		if w.onError != nil {
			w.onError(err)
		}
		return err
	}
	w.logger.Info("config reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
	return nil
}

// Run watches until ctx is done. The parent directory is watched so that
// editors which replace the file by rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create fsnotify watcher")
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %s", dir)
	}
	target := filepath.Clean(w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			_ = w.Reload()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", logging.Error(err))
		}
	}
}

package source

import (
	"context"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// Watcher calls Trigger on a Poller whenever a file source changes, so
// edits show up without waiting for the poll interval.
type Watcher struct {
	path     string
	debounce time.Duration
	notify   func()
	logger   logging.Logger
}

// NewWatcher watches path and calls notify after each burst of changes.
func NewWatcher(path string, notify func(), logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Watcher{
		path:     path,
		debounce: 100 * time.Millisecond,
		notify:   notify,
		logger:   logger.With(logging.Component("source"), logging.Path(path)),
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create fsnotify watcher")
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return errors.Wrapf(err, "watch %s", w.path)
	}
	target := filepath.Clean(w.path)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) == target && event.Op&^fsnotify.Chmod != 0 {
				timer.Reset(w.debounce)
			}
		case <-timer.C:
			w.logger.Debug("source file changed")
			w.notify()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("source watcher error", logging.Error(err))
		}
	}
}

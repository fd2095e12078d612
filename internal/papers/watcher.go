package papers

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher monitors the papers directory and invokes a callback whenever a
// PDF is created, renamed, or removed. The callback only marks state dirty;
// the index itself is still rebuilt lazily on the next query, after the
// directory has been re-snapshotted and compared.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

func NewWatcher(logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{watcher: w, logger: logger}, nil
}

// Watch starts monitoring dir until ctx is cancelled. onChange is called
// once per relevant filesystem event; it must be cheap and safe to call
// concurrently.
func (w *Watcher) Watch(ctx context.Context, dir string, onChange func()) error {
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !isPDF(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				w.logger.Info("papers directory changed",
					zap.String("file", filepath.Base(event.Name)),
					zap.String("op", event.Op.String()),
				)
				onChange()
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("papers watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

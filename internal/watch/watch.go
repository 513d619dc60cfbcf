// Package watch reruns a build whenever one of its input files changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor produces on save.
const DefaultDebounce = 300 * time.Millisecond

// Watcher observes a fixed set of files.
//
// Parent directories are watched rather than the files themselves so that
// editors which replace a file on save keep triggering events.
type Watcher struct {
	log      *zap.Logger
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
}

// New starts watching the given files. Events are delivered once Run is
// called.
func New(log *zap.Logger, paths []string, debounce time.Duration) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files configured for watching")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		log:      log,
		watcher:  fw,
		files:    make(map[string]bool),
		debounce: debounce,
	}

	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		w.files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run calls rebuild after each settled change to a watched file until ctx is
// done. Rebuild failures are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, rebuild func(context.Context) error) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		changed string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.log.Info("Watching for changes", zap.Int("files", len(w.files)))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			changed = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.log.Info("Input changed, rebuilding", zap.String("path", changed))
			if err := rebuild(ctx); err != nil {
				w.log.Error("Rebuild failed", zap.Error(err))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

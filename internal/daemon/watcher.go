package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/runnerforge/internal/config"
	"git.home.luguber.info/inful/runnerforge/internal/logfields"
)

// SourceWatcher monitors the project source roots and emits a trigger after
// a debounce window of quiet. Every trigger requests one full rebuild; there
// is no incremental tracking of which file changed.
type SourceWatcher struct {
	watcher  *fsnotify.Watcher
	source   config.SourceConfig
	debounce time.Duration
	trigger  chan struct{}
}

// NewSourceWatcher creates a watcher over the configured source roots.
func NewSourceWatcher(source config.SourceConfig, debounce time.Duration) (*SourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	sw := &SourceWatcher{
		watcher:  watcher,
		source:   source,
		debounce: debounce,
		trigger:  make(chan struct{}, 1),
	}
	if err := sw.addRoots(); err != nil {
		watcher.Close()
		return nil, err
	}
	return sw, nil
}

// addRoots watches every directory under the source roots, skipping the
// excluded ones. fsnotify does not recurse, so the tree is walked once here;
// directories created later are picked up on the rebuild that follows.
func (sw *SourceWatcher) addRoots() error {
	for _, root := range sw.source.Roots {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() {
				return nil
			}
			if slices.Contains(sw.source.Exclude, entry.Name()) {
				return filepath.SkipDir
			}
			return sw.watcher.Add(path)
		})
		if err != nil {
			return fmt.Errorf("failed to watch source root %s: %w", root, err)
		}
	}
	return nil
}

// Triggers returns the channel that fires after each debounced change burst.
func (sw *SourceWatcher) Triggers() <-chan struct{} {
	return sw.trigger
}

// Run processes filesystem events until ctx is done.
func (sw *SourceWatcher) Run(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("Source change detected", logfields.Path(event.Name))
			if timer == nil {
				timer = time.AfterFunc(sw.debounce, sw.fire)
			} else {
				timer.Reset(sw.debounce)
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Source watcher error", logfields.Error(err))
		}
	}
}

func (sw *SourceWatcher) fire() {
	select {
	case sw.trigger <- struct{}{}:
	default: // a rebuild is already pending
	}
}

// Close stops the underlying filesystem watcher.
func (sw *SourceWatcher) Close() error {
	return sw.watcher.Close()
}

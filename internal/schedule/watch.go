package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"clipcaster/internal/logging"
)

// DefaultWatchDebounce collapses an editor's burst of writes into one change.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watch calls onChange after the schedule file at path is written, created
// or replaced, debounced by debounce. The parent directory is watched so an
// atomic temp-file rename is seen. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(), logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create schedule watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	logger = logging.NewComponentLogger(logger, "schedule-watch")

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			if ctx.Err() == nil {
				onChange()
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("schedule file changed",
				logging.String(logging.FieldEventType, "schedule_changed"),
				logging.String("op", event.Op.String()),
			)
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(logger, "schedule watcher error", "schedule_watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "edits are picked up on the next check interval"),
			)
		}
	}
}

package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"ringjudge/internal/logging"
)

// Watch calls onChange each time the file at path is written, created or
// replaced, until ctx is done. Bursts of events within debounce collapse into
// one call. The parent directory is watched so editors that save by rename are
// still seen.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logging.Runner("Watching %s", abs)

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	// Debounce timer for batching rapid saves
	ticker := time.NewTicker(debounce / 4)
	defer ticker.Stop()
	var pending time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logging.RunnerWarn("Suite changed (%s)", event.Op)
			pending = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.RunnerWarn("watcher: %v", err)

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= debounce {
				pending = time.Time{}
				onChange()
			}
		}
	}
}

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadEvent reports the outcome of one automatic reload.
type ReloadEvent struct {
	Source string
	Names  []string
	Err    error
	At     time.Time
}

// WatchDebounce is how long the watcher waits for writes to settle.
var WatchDebounce = 200 * time.Millisecond

// Watch reloads store whenever its source file changes and reports each
// outcome on the returned channel. A failed reload keeps the previous
// catalog. The channel is closed when ctx is done.
//
// The parent directory is watched rather than the file itself because
// editors often replace files by rename.
func Watch(ctx context.Context, store *Store, logger *slog.Logger) (<-chan ReloadEvent, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	source := store.Source()
	if source == "" {
		return nil, fmt.Errorf("catalog has no file source to watch")
	}
	target, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	events := make(chan ReloadEvent)
	go func() {
		defer close(events)
		defer func() { _ = watcher.Close() }()

		var (
			timer   *time.Timer
			pending <-chan time.Time
		)
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(WatchDebounce)
				} else {
					timer.Reset(WatchDebounce)
				}
				pending = timer.C

			case <-pending:
				pending = nil
				re := ReloadEvent{Source: source, At: time.Now()}
				if err := store.Reload(source); err != nil {
					re.Err = err
					logger.Warn("catalog reload failed; keeping previous catalog", slog.String("source", source), slog.Any("error", err))
				} else {
					re.Names = store.Names()
					logger.Info("catalog reloaded", slog.String("source", source), slog.Int("queries", len(re.Names)))
				}
				select {
				case events <- re:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("catalog watcher error", slog.Any("error", err))

			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

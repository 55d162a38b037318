package testgate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-runs a suite whenever watched paths change. Filesystem event
// bursts are coalesced with a debounce window so one save triggers one run.
// Runs triggered by the watcher go through Suite.Run and therefore never
// overlap a run already in progress.
type Watcher struct {
	suite    *Suite
	logger   Logger
	paths    []string
	debounce time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
	running bool
}

// NewWatcher creates a watcher for the suite from cfg.
func NewWatcher(suite *Suite, cfg WatchConfig, logger Logger) *Watcher {
	if logger == nil {
		logger = NoopLogger{}
	}
	debounce := cfg.Debounce.Std()
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{
		suite:    suite,
		logger:   logger,
		paths:    cfg.Paths,
		debounce: debounce,
	}
}

// Start begins watching. It returns once the paths are registered; the
// watch loop runs until Stop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return ErrWatcherAlreadyStarted
	}
	if len(w.paths) == 0 {
		return ErrNoWatchPaths
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	for _, path := range w.paths {
		if err := fsw.Add(path); err != nil {
			closeErr := fsw.Close()
			if closeErr != nil {
				w.logger.Error("Failed to close filesystem watcher", "error", closeErr)
			}
			return fmt.Errorf("failed to watch path %q: %w", path, err)
		}
	}

	w.stop = make(chan struct{})
	w.stopped = make(chan struct{})
	w.running = true

	w.logger.Info("Watch mode started", "suite", w.suite.Name(), "paths", w.paths, "debounce", w.debounce)
	go w.loop(ctx, fsw, w.stop, w.stopped)
	return nil
}

// Stop ends the watch loop and releases the filesystem watcher.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return ErrWatcherNotStarted
	}
	w.running = false
	close(w.stop)
	stopped := w.stopped
	w.mu.Unlock()

	select {
	case <-stopped:
	case <-ctx.Done():
		return fmt.Errorf("watcher stop interrupted: %w", ctx.Err())
	}
	return nil
}

// IsRunning reports whether the watch loop is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	defer func() {
		if err := fsw.Close(); err != nil {
			w.logger.Error("Failed to close filesystem watcher", "error", err)
		}
	}()
	// The loop can also exit on its own (context cancellation, closed
	// event channel); IsRunning must not keep reporting a dead watcher.
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	var debounce *time.Timer
	var fire <-chan time.Time
	var pending fsnotify.Event

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("Filesystem change observed", "path", event.Name, "op", event.Op.String())
			pending = event
			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
				fire = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.debounce)
			}

		case <-fire:
			debounce = nil
			fire = nil
			w.logger.Info("Change detected, re-running suite", "suite", w.suite.Name(), "path", pending.Name)
			w.suite.emit(ctx, EventTypeWatchTriggered, map[string]interface{}{
				"path": pending.Name,
				"op":   pending.Op.String(),
			})
			w.suite.Run(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Filesystem watcher error", "error", err)

		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

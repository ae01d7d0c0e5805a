package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/purple/pkg/core"
)

type watchWorker struct {
	*worker.BaseWorker
	medium    *Medium
	events    chan core.MediumEvent
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(m *Medium, events chan core.MediumEvent) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		medium:     m,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(w.medium.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.medium.Path, err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.medium.config.Debounce)
	w.medium.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// processFilesystemEvent maps a raw fsnotify event to a key and schedules it.
// Events for files that are not key files are ignored.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	w.medium.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	key := w.medium.keyForPath(event.Name)
	if key == "" {
		return false
	}

	w.debouncer.add(key, func(key string) {
		w.emit(ctx, key)
	})
	return true
}

// emit reads the settled state of key and forwards it, unless it is the
// result of this process's own write.
func (w *watchWorker) emit(ctx context.Context, key string) {
	defer func() {
		// The channel may be closed if the worker is stopping.
		_ = recover()
	}()

	data, err := w.medium.d.Read(key)
	removed := false
	if err != nil {
		if !errors.Is(err, iofs.ErrNotExist) {
			w.handleWatcherError(fmt.Errorf("failed to read %s after change: %w", key, err))
			return
		}
		removed = true
	}

	if w.medium.isSelfWrite(key, data, removed) {
		return
	}

	ev := core.MediumEvent{Type: core.MediumSet, Key: key, Value: data}
	if removed {
		ev = core.MediumEvent{Type: core.MediumRemove, Key: key}
	}
	w.medium.recordEvent()

	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

func (w *watchWorker) handleWatcherError(err error) {
	w.medium.config.Logger.Error("fsnotify error", "error", err)
	if w.medium.config.ErrorHandler != nil {
		w.medium.config.ErrorHandler(err)
	}
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer close(w.events)
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if w.medium.config.Logger.Enabled(ctx, slog.LevelDebug) {
				w.medium.config.Logger.Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				w.medium.config.Logger.Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer w.medium.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	// Wait for in-flight debounce timers before the events channel closes.
	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}

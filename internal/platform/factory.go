package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/jmhodges/clock"

	lifecycleadapter "github.com/aretw0/purple/pkg/adapters/lifecycle"
	"github.com/aretw0/purple/pkg/bus"
	"github.com/aretw0/purple/pkg/collection"
	"github.com/aretw0/purple/pkg/core"
	"github.com/aretw0/purple/pkg/reminder"
	"github.com/aretw0/purple/pkg/store"
)

// App is the context object built once at startup and handed to clients.
// It owns every component; nothing in purple is a global.
type App struct {
	Medium    core.Medium
	Store     *store.Store
	Bus       *bus.Bus
	Notes     *collection.NoteRepository
	Tasks     *collection.TaskRepository
	Scheduler *reminder.Scheduler

	logger *slog.Logger

	mu      sync.Mutex
	started bool
	closed  bool
}

// New opens the medium at uri and wires the store, the change bus, the
// collections and the reminder scheduler. Nothing runs in the background
// until Start.
//
//	app, err := purple.New("~/.local/share/purple", purple.WithLogger(logger))
func New(uri string, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := o.clock
	if clk == nil {
		clk = clock.New()
	}

	ctx := context.Background()
	medium, err := initMedium(ctx, uri, o)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
	}

	eventBuffer, _ := o.config["event_buffer"].(int)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))
	b := bus.New(bus.Config{
		Logger:       logger.With("component", "bus"),
		Clock:        clk,
		Buffer:       eventBuffer,
		ErrorHandler: errorHandler,
	})

	lockTimeout, _ := o.config["lock_timeout"].(time.Duration)
	quota, _ := o.config["quota"].(int64)
	s := store.New(medium, store.Config{
		Logger:      logger.With("component", "store"),
		Publisher:   b,
		Clock:       clk,
		LockTimeout: lockTimeout,
		QuotaBytes:  quota,
	})

	readOnly, _ := o.config["read_only"].(bool)
	if !readOnly {
		if err := s.Initialize(ctx); err != nil {
			return nil, err
		}
	}

	collCfg := collection.Config{
		Logger: logger.With("component", "collection"),
		Clock:  clk,
		IDs:    collection.NewIDSource(clk),
	}
	notes := collection.NewNoteRepository(s, collCfg)
	tasks := collection.NewTaskRepository(s, collCfg)

	interval, _ := o.config["poll_interval"].(time.Duration)
	sched := reminder.New(notes, reminder.Config{
		Logger:   logger.With("component", "scheduler"),
		Clock:    clk,
		Interval: interval,
		Notifier: o.notifier,
	})

	return &App{
		Medium:    medium,
		Store:     s,
		Bus:       b,
		Notes:     notes,
		Tasks:     tasks,
		Scheduler: sched,
		logger:    logger,
	}, nil
}

// Start bridges changes from other processes onto the bus (when the medium
// can be watched) and starts the reminder scheduler.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("app is closed")
	}
	if a.started {
		return nil
	}

	if w, ok := a.Medium.(core.Watchable); ok {
		if err := a.Bus.Start(ctx, w); err != nil {
			return err
		}
	} else {
		a.logger.Debug("medium cannot be watched, cross-process changes will not be seen")
	}

	if err := a.Scheduler.Start(ctx); err != nil {
		a.Bus.Stop()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	a.started = true
	return nil
}

// Close stops the scheduler and tears down the bus. It is safe to call more
// than once.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	if a.started {
		if err := a.Scheduler.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop scheduler: %w", err))
		}
	}
	a.Bus.Close()
	return errors.Join(errs...)
}

// Source returns a lifecycle.Source emitting the changes to keys matching
// pattern, for applications driven by the lifecycle runtime.
func (a *App) Source(pattern string, opts ...lifecycleadapter.SourceOption) (lifecycle.Source, func(), error) {
	events, cancel, err := a.Bus.Subscribe(pattern)
	if err != nil {
		return nil, nil, err
	}
	return lifecycleadapter.NewSource(events, opts...), cancel, nil
}

// AppState exposes internal state for observability.
type AppState struct {
	Started bool `json:"started"`
	Closed  bool `json:"closed"`
	Store   any  `json:"store"`
	Bus     any  `json:"bus"`
	Medium  any  `json:"medium,omitempty"`
}

// State implements introspection.Introspectable.
func (a *App) State() any {
	a.mu.Lock()
	started, closed := a.started, a.closed
	a.mu.Unlock()

	state := AppState{
		Started: started,
		Closed:  closed,
		Store:   a.Store.State(),
		Bus:     a.Bus.State(),
	}
	if in, ok := a.Medium.(introspection.Introspectable); ok {
		state.Medium = in.State()
	}
	return state
}

// ComponentType implements introspection.Component.
func (a *App) ComponentType() string {
	return "app"
}

var _ introspection.Introspectable = (*App)(nil)
var _ introspection.Component = (*App)(nil)

// Package bus fans change events out to in-process subscribers.
//
// Events come from two places: the store publishes its own saves, and Start
// bridges the medium watch so changes made by other processes arrive on the
// same channels. Events are refresh triggers; subscribers reload from the
// store instead of trusting the payload.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/jmhodges/clock"

	"github.com/aretw0/purple/pkg/core"
)

// DefaultBuffer is the per-subscriber channel size.
const DefaultBuffer = 16

// Config holds the configuration for a Bus.
type Config struct {
	Logger *slog.Logger
	Clock  clock.Clock
	Buffer int
	// ErrorHandler receives failures of the watch pump. Optional.
	ErrorHandler func(error)
}

// Bus is an in-process publish/subscribe hub for core.ChangeEvent.
type Bus struct {
	config Config
	logger *slog.Logger

	mu      sync.RWMutex
	subs    map[uint64]*subscription
	nextID  uint64
	closed  bool
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	published atomic.Uint64
	dropped   atomic.Uint64
}

type subscription struct {
	pattern string
	ch      chan core.ChangeEvent
}

// New creates a Bus. It delivers published events right away; Start is only
// needed to receive changes from other processes.
func New(config Config) *Bus {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Buffer <= 0 {
		config.Buffer = DefaultBuffer
	}
	return &Bus{
		config: config,
		logger: config.Logger,
		subs:   make(map[uint64]*subscription),
	}
}

// Start subscribes once to the medium's watch and republishes every change to
// an owned key with core.OriginExternal. It returns when the watch is set up;
// the pump stops when ctx is done or Close is called.
func (b *Bus) Start(ctx context.Context, medium core.Watchable) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("bus is closed")
	}
	if b.started {
		b.mu.Unlock()
		return fmt.Errorf("bus already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	events, err := medium.Watch(runCtx)
	if err != nil {
		b.mu.Unlock()
		cancel()
		return fmt.Errorf("failed to watch medium: %w", err)
	}
	b.started = true
	b.cancel = cancel
	b.done = make(chan struct{})
	done := b.done
	b.mu.Unlock()

	lifecycle.Go(runCtx, func(ctx context.Context) error {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				if !core.IsOwnedKey(ev.Key) {
					continue
				}
				b.Publish(b.external(ev))
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		b.logger.Error("bus pump failed", "error", err)
		if b.config.ErrorHandler != nil {
			b.config.ErrorHandler(err)
		}
	}))
	return nil
}

// external converts a medium event. Values that are not valid JSON are
// passed on as nil.
func (b *Bus) external(ev core.MediumEvent) core.ChangeEvent {
	out := core.ChangeEvent{
		Key:       ev.Key,
		Origin:    core.OriginExternal,
		Timestamp: b.config.Clock.Now().UnixMilli(),
	}
	if ev.Type == core.MediumSet {
		if json.Valid(ev.Value) {
			out.NewValue = json.RawMessage(ev.Value)
		} else {
			b.logger.Warn("external change is not valid JSON", "key", ev.Key)
		}
	}
	return out
}

// Publish delivers ev to every matching subscriber without blocking. A
// subscriber whose buffer is full misses the event.
func (b *Bus) Publish(ev core.ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	b.published.Add(1)
	for id, sub := range b.subs {
		if !matches(sub.pattern, ev.Key) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
			b.logger.Warn("subscriber is not keeping up, dropping event", "subscriber", id, "key", ev.Key)
		}
	}
}

// Subscribe returns a channel of the events whose key matches pattern (a
// doublestar glob, "*" for everything) and a function that ends the
// subscription and closes the channel.
func (b *Bus) Subscribe(pattern string) (<-chan core.ChangeEvent, func(), error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, nil, fmt.Errorf("pattern %q: %w", pattern, core.ErrInvalidArgument)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, nil, fmt.Errorf("bus is closed")
	}

	id := b.nextID
	b.nextID++
	sub := &subscription{pattern: pattern, ch: make(chan core.ChangeEvent, b.config.Buffer)}
	b.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}
	return sub.ch, cancel, nil
}

// Stop ends the watch pump started by Start and waits for it to exit.
// Subscriptions stay open and Start may be called again.
func (b *Bus) Stop() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.started = false
	b.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Close stops the watch pump, waits for it and closes every subscription.
func (b *Bus) Close() {
	b.Stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}

func matches(pattern, key string) bool {
	ok, err := doublestar.Match(pattern, key)
	return err == nil && ok
}

// BusState exposes internal state for observability.
type BusState struct {
	Subscribers int    `json:"subscribers"`
	Watching    bool   `json:"watching"`
	Closed      bool   `json:"closed"`
	Published   uint64 `json:"published"`
	Dropped     uint64 `json:"dropped"`
}

// State implements introspection.Introspectable.
func (b *Bus) State() any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BusState{
		Subscribers: len(b.subs),
		Watching:    b.started && !b.closed,
		Closed:      b.closed,
		Published:   b.published.Load(),
		Dropped:     b.dropped.Load(),
	}
}

// ComponentType implements introspection.Component.
func (b *Bus) ComponentType() string {
	return "bus"
}

var _ introspection.Introspectable = (*Bus)(nil)
var _ introspection.Component = (*Bus)(nil)

// Package memory provides an in-process storage medium.
//
// A Backing plays the role of the storage shared by every tab of a browser:
// each handle returned by Open behaves like one tab. Writes made through a
// handle are reported to the watchers of every other handle, never to its own.
// It backs tests and the degraded mode where nothing is persisted.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/purple/pkg/core"
)

// Backing is the shared storage behind one or more Medium handles.
type Backing struct {
	mu       sync.RWMutex
	data     map[string][]byte
	handles  map[*Medium]struct{}
	failWith error
}

// NewBacking creates an empty shared backing.
func NewBacking() *Backing {
	return &Backing{
		data:    make(map[string][]byte),
		handles: make(map[*Medium]struct{}),
	}
}

// New is a shortcut for NewBacking().Open().
func New() *Medium {
	return NewBacking().Open()
}

// Open returns a new handle on the backing.
func (b *Backing) Open() *Medium {
	m := &Medium{backing: b}
	b.mu.Lock()
	b.handles[m] = struct{}{}
	b.mu.Unlock()
	return m
}

// FailWrites makes every subsequent Set and Remove fail with err, simulating
// a full or disabled medium. Passing nil restores normal behavior.
func (b *Backing) FailWrites(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWith = err
}

// Medium is one handle on a Backing. It implements core.Medium and core.Watchable.
type Medium struct {
	backing *Backing

	mu       sync.Mutex
	watchers []chan core.MediumEvent
}

// Get returns a copy of the bytes under key.
func (m *Medium) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.backing.mu.RLock()
	defer m.backing.mu.RUnlock()

	v, ok := m.backing.data[key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, core.ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value and notifies the other handles.
func (m *Medium) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("empty key: %w", core.ErrInvalidArgument)
	}

	m.backing.mu.Lock()
	if m.backing.failWith != nil {
		err := m.backing.failWith
		m.backing.mu.Unlock()
		return err
	}
	stored := append([]byte(nil), value...)
	m.backing.data[key] = stored
	others := m.backing.othersLocked(m)
	m.backing.mu.Unlock()

	for _, o := range others {
		o.deliver(core.MediumEvent{Type: core.MediumSet, Key: key, Value: append([]byte(nil), stored...)})
	}
	return nil
}

// Remove deletes key and notifies the other handles if it existed.
func (m *Medium) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.backing.mu.Lock()
	if m.backing.failWith != nil {
		err := m.backing.failWith
		m.backing.mu.Unlock()
		return err
	}
	_, existed := m.backing.data[key]
	delete(m.backing.data, key)
	others := m.backing.othersLocked(m)
	m.backing.mu.Unlock()

	if existed {
		for _, o := range others {
			o.deliver(core.MediumEvent{Type: core.MediumRemove, Key: key})
		}
	}
	return nil
}

// Keys lists all keys in lexical order.
func (m *Medium) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.backing.mu.RLock()
	defer m.backing.mu.RUnlock()

	keys := make([]string, 0, len(m.backing.data))
	for k := range m.backing.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch streams changes made through other handles until ctx is done.
func (m *Medium) Watch(ctx context.Context) (<-chan core.MediumEvent, error) {
	ch := make(chan core.MediumEvent, 64)

	m.mu.Lock()
	m.watchers = append(m.watchers, ch)
	m.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, w := range m.watchers {
			if w == ch {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				break
			}
		}
		close(ch)
		return nil
	})

	return ch, nil
}

// Close detaches the handle from its backing; it no longer receives events.
func (m *Medium) Close() {
	m.backing.mu.Lock()
	delete(m.backing.handles, m)
	m.backing.mu.Unlock()
}

func (b *Backing) othersLocked(self *Medium) []*Medium {
	others := make([]*Medium, 0, len(b.handles))
	for h := range b.handles {
		if h != self {
			others = append(others, h)
		}
	}
	return others
}

// deliver never blocks: a watcher that falls behind misses events, and the
// next refresh reloads from the medium anyway.
func (m *Medium) deliver(ev core.MediumEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.watchers {
		select {
		case w <- ev:
		default:
		}
	}
}

var (
	_ core.Medium    = (*Medium)(nil)
	_ core.Watchable = (*Medium)(nil)
)

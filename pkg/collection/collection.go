// Package collection provides typed, ordered collections of entities stored
// as JSON arrays under a single store key.
//
// Every mutation is a read-modify-write of the whole array under the key's
// lock, so concurrent callers in one process never lose each other's writes.
package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmhodges/clock"

	"github.com/aretw0/purple/pkg/core"
	"github.com/aretw0/purple/pkg/store"
)

// Config holds what a collection needs besides its store.
type Config struct {
	Logger *slog.Logger
	Clock  clock.Clock
	IDs    *IDSource // shared between collections when set
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.IDs == nil {
		c.IDs = NewIDSource(c.Clock)
	}
	return c
}

// Collection is an ordered list of T persisted under one key.
type Collection[T any] struct {
	store  *store.Store
	key    string
	codec  Codec[T]
	logger *slog.Logger
	clock  clock.Clock
	ids    *IDSource
}

// New creates a collection of T stored under key.
func New[T any](s *store.Store, key string, codec Codec[T], config Config) *Collection[T] {
	config = config.withDefaults()
	return &Collection[T]{
		store:  s,
		key:    key,
		codec:  codec,
		logger: config.Logger,
		clock:  config.Clock,
		ids:    config.IDs,
	}
}

// Key returns the store key of the collection.
func (c *Collection[T]) Key() string {
	return c.key
}

// All returns the stored items in order. Unreadable data yields an empty
// list and malformed records are skipped; neither is an error.
func (c *Collection[T]) All(ctx context.Context) []T {
	raw, _ := c.store.LoadRaw(ctx, c.key)
	return c.decode(raw)
}

// Save replaces the whole collection with items.
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	return c.store.WithLock(ctx, c.key, func(l *store.Locked) error {
		return c.persist(ctx, l, items)
	})
}

// Replace is an alias of Save, for callers that reconcile a whole list.
func (c *Collection[T]) Replace(ctx context.Context, items []T) error {
	return c.Save(ctx, items)
}

// Clear empties the collection.
func (c *Collection[T]) Clear(ctx context.Context) error {
	return c.Save(ctx, []T{})
}

// Add appends item and returns it as stored. A zero id is replaced by a
// freshly minted one; an id already in the collection is rejected.
func (c *Collection[T]) Add(ctx context.Context, item T) (T, error) {
	var added T
	err := c.Mutate(ctx, func(items []T) ([]T, error) {
		var maxID int64
		id := c.codec.ID(item)
		for _, existing := range items {
			eid := c.codec.ID(existing)
			if id != 0 && eid == id {
				return nil, fmt.Errorf("%s %d: %w", c.key, id, core.ErrDuplicateID)
			}
			maxID = max(maxID, eid)
		}
		if id == 0 {
			item = c.codec.WithID(item, c.ids.Next(maxID))
		}
		added = c.codec.Clone(item)
		return append(items, item), nil
	})
	return added, err
}

// Delete removes the item with id. Unknown ids are ignored.
func (c *Collection[T]) Delete(ctx context.Context, id int64) error {
	return c.Mutate(ctx, func(items []T) ([]T, error) {
		kept := items[:0]
		for _, item := range items {
			if c.codec.ID(item) != id {
				kept = append(kept, item)
			}
		}
		return kept, nil
	})
}

// Reorder moves the item at from to position to: it is removed first, so
// the items in between shift by one. Both indices must be within the list.
func (c *Collection[T]) Reorder(ctx context.Context, from, to int) error {
	return c.Mutate(ctx, func(items []T) ([]T, error) {
		if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
			return nil, fmt.Errorf("reorder %d -> %d in %d items: %w", from, to, len(items), core.ErrInvalidArgument)
		}
		return move(items, from, to), nil
	})
}

// Update applies fn to the item with id; see store.UpdateEntity. The item is
// decoded through the codec, so coerced fields are written back as seen.
func (c *Collection[T]) Update(ctx context.Context, id int64, fn func(T) (T, error)) (T, error) {
	return store.UpdateEntityWith(ctx, c.store, c.key, id, c.codec.Decode, fn)
}

// Mutate loads the items, passes them to fn and saves what fn returns, under
// the key's lock. Nothing is saved if fn fails.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(items []T) ([]T, error)) error {
	return c.store.WithLock(ctx, c.key, func(l *store.Locked) error {
		raw, _ := l.LoadRaw(ctx)
		next, err := fn(c.decode(raw))
		if err != nil {
			return err
		}
		return c.persist(ctx, l, next)
	})
}

func (c *Collection[T]) decode(raw json.RawMessage) []T {
	items := []T{}
	if raw == nil {
		return items
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		c.logger.Warn("collection is not an array, using empty list", "key", c.key,
			"error", fmt.Errorf("%w: %v", core.ErrStorageReadCorrupt, err))
		return items
	}

	for i, rec := range records {
		item, err := c.codec.Decode(rec)
		if err != nil {
			c.logger.Warn("skipping malformed record", "key", c.key, "index", i, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items
}

func (c *Collection[T]) persist(ctx context.Context, l *store.Locked, items []T) error {
	if items == nil {
		items = []T{}
	}
	return l.Save(ctx, items)
}

func move[T any](items []T, from, to int) []T {
	item := items[from]
	items = append(items[:from], items[from+1:]...)
	items = append(items[:to], append([]T{item}, items[to:]...)...)
	return items
}

// Package store persists JSON values under named keys of a storage medium.
//
// Every successful save is published as a core.ChangeEvent so that views in
// this process can refresh; changes from other processes reach the same bus
// through the medium watch. Compound read-modify-write operations run under a
// per-key advisory lock (see WithLock).
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/introspection"
	"github.com/google/uuid"
	"github.com/jmhodges/clock"

	"github.com/aretw0/purple/pkg/core"
)

// ProbeKey is written and removed by IsAvailable.
const ProbeKey = "__storage_test__"

const (
	// DefaultLockTimeout bounds how long WithLock waits for a busy key.
	DefaultLockTimeout = 2 * time.Second
	// DefaultQuotaBytes mirrors the usual browser local storage limit.
	DefaultQuotaBytes int64 = 5 * 1024 * 1024
)

// Publisher receives the changes this store makes.
type Publisher interface {
	Publish(ev core.ChangeEvent)
}

// Config holds the configuration for a Store.
type Config struct {
	Logger      *slog.Logger
	Publisher   Publisher // optional
	Clock       clock.Clock
	LockTimeout time.Duration
	QuotaBytes  int64 // zero means DefaultQuotaBytes, negative disables the check
}

// Store is the key-value layer on top of a core.Medium.
type Store struct {
	medium core.Medium
	config Config
	logger *slog.Logger
	origin string
	locks  *keyedLock
}

// New creates a Store over medium.
func New(medium core.Medium, config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = DefaultLockTimeout
	}
	if config.QuotaBytes == 0 {
		config.QuotaBytes = DefaultQuotaBytes
	}

	return &Store{
		medium: medium,
		config: config,
		logger: config.Logger,
		origin: uuid.NewString(),
		locks:  newKeyedLock(),
	}
}

// Origin identifies this store on the change bus.
func (s *Store) Origin() string {
	return s.origin
}

// Medium returns the underlying medium.
func (s *Store) Medium() core.Medium {
	return s.medium
}

// SetPublisher replaces the publisher notified on saves.
func (s *Store) SetPublisher(p Publisher) {
	s.config.Publisher = p
}

// IsAvailable probes whether the medium accepts writes. It never returns an
// error and never leaves the probe key behind.
func (s *Store) IsAvailable(ctx context.Context) bool {
	setErr := s.medium.Set(ctx, ProbeKey, []byte(`"`+ProbeKey+`"`))
	removeErr := s.medium.Remove(ctx, ProbeKey)
	if setErr != nil || removeErr != nil {
		s.logger.Warn("storage probe failed", "set_error", setErr, "remove_error", removeErr)
		return false
	}
	return true
}

// Initialize prepares the medium and seeds the collections with empty arrays
// where they are missing or not arrays. A medium that cannot be written is
// reported as core.ErrStorageUnavailable.
func (s *Store) Initialize(ctx context.Context) error {
	if initializer, ok := s.medium.(core.Initializer); ok {
		if err := initializer.Initialize(ctx); err != nil {
			return fmt.Errorf("%w: %v", core.ErrStorageUnavailable, err)
		}
	}
	if !s.IsAvailable(ctx) {
		return core.ErrStorageUnavailable
	}

	for _, key := range []string{core.KeyNotes, core.KeyTasks} {
		var records []json.RawMessage
		if s.Load(ctx, key, &records) {
			continue
		}
		if err := s.medium.Set(ctx, key, []byte("[]")); err != nil {
			return &core.StorageWriteError{Key: key, Err: err}
		}
	}
	return nil
}

// Load decodes the value under key into out. It reports false when the key is
// absent or unreadable; corrupt data is logged and treated as absent.
func (s *Store) Load(ctx context.Context, key string, out any) bool {
	data, ok := s.LoadRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("discarding unreadable value", "key", key,
			"error", fmt.Errorf("%w: %v", core.ErrStorageReadCorrupt, err))
		return false
	}
	return true
}

// LoadRaw returns the raw JSON under key, if present and syntactically valid.
func (s *Store) LoadRaw(ctx context.Context, key string) (json.RawMessage, bool) {
	data, err := s.medium.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			s.logger.Warn("failed to read key", "key", key, "error", err)
		}
		return nil, false
	}
	if !json.Valid(data) {
		s.logger.Warn("discarding unreadable value", "key", key, "error", core.ErrStorageReadCorrupt)
		return nil, false
	}
	return json.RawMessage(data), true
}

// Load returns the value under key decoded as T, or def.
func Load[T any](ctx context.Context, s *Store, key string, def T) T {
	var v T
	if !s.Load(ctx, key, &v) {
		return def
	}
	return v
}

// Save encodes value as JSON and writes it under key, then publishes the
// change. Failures are returned as *core.StorageWriteError.
func (s *Store) Save(ctx context.Context, key string, value any) error {
	return s.WithLock(ctx, key, func(l *Locked) error {
		return l.Save(ctx, value)
	})
}

// ClearAll removes every owned key, and only those, then re-seeds the
// collections with empty arrays.
func (s *Store) ClearAll(ctx context.Context) error {
	release, err := s.locks.acquireAll(ctx, core.OwnedKeys(), s.config.LockTimeout)
	if err != nil {
		return err
	}
	defer release()

	for _, key := range core.OwnedKeys() {
		if err := s.medium.Remove(ctx, key); err != nil {
			return &core.StorageWriteError{Key: key, Err: err}
		}
	}
	s.publish(core.KeyTheme, nil)

	for _, key := range []string{core.KeyNotes, core.KeyTasks} {
		if err := s.write(ctx, key, []byte("[]")); err != nil {
			return err
		}
	}

	s.logger.Info("cleared all data")
	return nil
}

// WithLock runs fn while holding the advisory lock of key. The lock is
// released on every exit path, including a panic in fn. If the key stays
// busy for longer than the configured timeout, core.ErrLockTimeout is
// returned and fn is not called.
func (s *Store) WithLock(ctx context.Context, key string, fn func(l *Locked) error) error {
	if err := s.locks.acquire(ctx, key, s.config.LockTimeout); err != nil {
		return err
	}
	defer s.locks.release(key)

	return fn(&Locked{s: s, key: key})
}

// Locked gives access to one key while its lock is held.
type Locked struct {
	s   *Store
	key string
}

// Key returns the locked key.
func (l *Locked) Key() string {
	return l.key
}

// Load decodes the current value into out; see Store.Load.
func (l *Locked) Load(ctx context.Context, out any) bool {
	return l.s.Load(ctx, l.key, out)
}

// LoadRaw returns the current raw value; see Store.LoadRaw.
func (l *Locked) LoadRaw(ctx context.Context) (json.RawMessage, bool) {
	return l.s.LoadRaw(ctx, l.key)
}

// Save encodes and writes value; see Store.Save.
func (l *Locked) Save(ctx context.Context, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &core.StorageWriteError{Key: l.key, Err: err}
	}
	return l.s.write(ctx, l.key, data)
}

// write checks the quota, stores data and publishes the change.
func (s *Store) write(ctx context.Context, key string, data []byte) error {
	if err := s.checkQuota(ctx, key, len(data)); err != nil {
		return &core.StorageWriteError{Key: key, Err: err}
	}
	if err := s.medium.Set(ctx, key, data); err != nil {
		s.logger.Error("failed to save", "key", key, "error", err)
		return &core.StorageWriteError{Key: key, Err: err}
	}

	s.logger.Debug("saved", "key", key, "bytes", len(data))
	s.publish(key, data)
	return nil
}

func (s *Store) checkQuota(ctx context.Context, key string, size int) error {
	if s.config.QuotaBytes < 0 {
		return nil
	}
	used := int64(size)
	for _, other := range core.OwnedKeys() {
		if other == key {
			continue
		}
		if data, err := s.medium.Get(ctx, other); err == nil {
			used += int64(len(data))
		}
	}
	if used > s.config.QuotaBytes {
		return fmt.Errorf("%d of %d bytes: %w", used, s.config.QuotaBytes, core.ErrQuotaExceeded)
	}
	return nil
}

func (s *Store) publish(key string, data []byte) {
	if s.config.Publisher == nil {
		return
	}
	var value json.RawMessage
	if data != nil {
		value = json.RawMessage(bytes.Clone(data))
	}
	s.config.Publisher.Publish(core.ChangeEvent{
		Key:       key,
		NewValue:  value,
		Origin:    s.origin,
		Timestamp: s.config.Clock.Now().UnixMilli(),
	})
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Origin      string        `json:"origin"`
	Medium      string        `json:"medium"`
	LockTimeout time.Duration `json:"lock_timeout"`
	QuotaBytes  int64         `json:"quota_bytes"`
	HeldLocks   []string      `json:"held_locks,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	medium := "medium"
	if comp, ok := s.medium.(introspection.Component); ok {
		medium = comp.ComponentType()
	}

	return StoreState{
		Origin:      s.origin,
		Medium:      medium,
		LockTimeout: s.config.LockTimeout,
		QuotaBytes:  s.config.QuotaBytes,
		HeldLocks:   s.locks.heldKeys(),
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

package platform

import (
	"log/slog"
	"time"

	"github.com/jmhodges/clock"

	"github.com/aretw0/purple/pkg/core"
	"github.com/aretw0/purple/pkg/reminder"
)

// options holds the internal configuration of a purple App.
type options struct {
	medium   core.Medium
	logger   *slog.Logger
	adapter  string
	clock    clock.Clock
	notifier reminder.Notifier
	config   map[string]interface{}
}

// Option defines a functional option for configuring purple.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		medium:  nil,
		logger:  nil,
		adapter: "fs",
		config:  make(map[string]interface{}),
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMedium injects a storage medium (e.g. a memory backing handle).
// If provided, the adapter selected by WithAdapter is skipped.
func WithMedium(m core.Medium) Option {
	return func(o *options) {
		o.medium = m
	}
}

// WithAdapter selects the storage medium by name: "fs" (default) or "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		o.clock = clk
	}
}

// WithNotifier sets who receives due reminders.
func WithNotifier(n reminder.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist ensures the data directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithSystemDir sets the hidden directory name used for temporary files.
// Defaults to ".purple".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithEventBuffer sets the per-subscriber buffer of the change bus.
// Zero means default (16).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithPollInterval sets how often the reminder scheduler scans the notes.
// Zero means default (1s).
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.config["poll_interval"] = d
	}
}

// WithLockTimeout bounds how long compound updates wait for a busy key.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.config["lock_timeout"] = d
	}
}

// WithQuota sets the storage quota in bytes. A negative value disables it.
func WithQuota(bytes int64) Option {
	return func(o *options) {
		o.config["quota"] = bytes
	}
}

// WithWatcherErrorHandler registers a callback for errors raised while
// watching the medium for changes made by other processes.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Every save returns core.ErrReadOnly wrapped in a StorageWriteError.
// 2. Initialization (mkdir, seeding) is skipped.
// 3. Dev Safety Lock (go run temp dir) is BYPASSED (uses real path).
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithDevSafety controls the "Sandbox" safety mechanism when running via `go run`.
// By default (true), purple forces a temporary directory to prevent accidental data loss.
// Setting this to false allows operating on the real filesystem even during `go run`.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

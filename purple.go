package purple

import (
	"log/slog"
	"time"

	"github.com/jmhodges/clock"

	"github.com/aretw0/purple/internal/platform"
	"github.com/aretw0/purple/pkg/collection"
	"github.com/aretw0/purple/pkg/core"
	"github.com/aretw0/purple/pkg/reminder"
)

// --- Types ---

// App is the context object holding every purple component.
type App = platform.App

// Note is a public alias for the note entity.
type Note = core.Note

// Task is a public alias for the task entity.
type Task = core.Task

// NewNote holds the user-provided fields of a note.
type NewNote = collection.NewNote

// Notification is raised once per due reminder.
type Notification = reminder.Notification

// --- Configuration ---

// Option defines a functional option for configuring purple.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithMedium injects a storage medium.
func WithMedium(m core.Medium) Option {
	return platform.WithMedium(m)
}

// WithAdapter selects the storage medium by name ("fs" or "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithClock replaces the wall clock.
func WithClock(clk clock.Clock) Option {
	return platform.WithClock(clk)
}

// WithNotifier sets who receives due reminders.
func WithNotifier(n reminder.Notifier) Option {
	return platform.WithNotifier(n)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the data directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithSystemDir sets the hidden directory name (e.g. ".purple").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithEventBuffer sets the per-subscriber buffer of the change bus.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithPollInterval sets how often reminders are checked.
func WithPollInterval(d time.Duration) Option {
	return platform.WithPollInterval(d)
}

// WithLockTimeout bounds how long compound updates wait for a busy key.
func WithLockTimeout(d time.Duration) Option {
	return platform.WithLockTimeout(d)
}

// WithQuota sets the storage quota in bytes.
func WithQuota(bytes int64) Option {
	return platform.WithQuota(bytes)
}

// WithWatcherErrorHandler registers a callback for watch failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the dev sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New opens the data directory at path and wires every component.
func New(path string, opts ...Option) (*App, error) {
	return platform.New(path, opts...)
}

// Init opens and prepares the storage medium only.
func Init(path string, opts ...Option) (core.Medium, error) {
	return platform.Init(path, opts...)
}

// --- Safety & Utils ---

// ResolveDataPath determines the actual data directory based on safety rules.
func ResolveDataPath(userPath string, forceTemp bool) string {
	return platform.ResolveDataPath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindDataRoot looks upwards from startDir for a purple data directory.
func FindDataRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

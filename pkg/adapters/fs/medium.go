// Package fs implements core.Medium on top of a directory of JSON files.
//
// Each key is stored as <Path>/<key>.json through diskv, which writes through a
// temporary file under the system directory and renames it into place, so a
// reader in another process never sees a half-written value. Several processes
// may open the same directory; Watch reports the changes the others make.
package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/aretw0/purple/pkg/core"
)

const keyExt = ".json"

// Config holds the configuration for the filesystem medium.
type Config struct {
	Path         string
	MustExist    bool
	ReadOnly     bool
	Logger       *slog.Logger
	SystemDir    string        // e.g. ".purple", holds temporary files
	Debounce     time.Duration // coalescing window for watch events; zero means 50ms
	EventBuffer  int           // size of the watch channel; zero means 64
	ErrorHandler func(error)   // optional, receives watcher errors
}

// Medium implements core.Medium and core.Watchable using the filesystem.
type Medium struct {
	Path   string
	config Config
	d      *diskv.Diskv

	mu            sync.RWMutex
	written       map[string]selfWrite
	watcherActive bool
	lastEvent     *time.Time
}

// selfWrite remembers what this handle last did to a key, so the watcher can
// tell our own writes apart from another process's.
type selfWrite struct {
	data    []byte
	removed bool
}

// NewMedium creates a filesystem medium. No I/O happens until Initialize or
// the first operation.
func NewMedium(config Config) *Medium {
	if config.SystemDir == "" {
		config.SystemDir = ".purple"
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Debounce <= 0 {
		config.Debounce = 50 * time.Millisecond
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}

	m := &Medium{
		Path:    config.Path,
		config:  config,
		written: make(map[string]selfWrite),
	}
	m.d = diskv.New(diskv.Options{
		BasePath:          config.Path,
		TempDir:           filepath.Join(config.Path, config.SystemDir, "tmp"),
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      0, // other processes write behind our back
	})
	return m
}

// Initialize checks or creates the data directory.
func (m *Medium) Initialize(ctx context.Context) error {
	if m.config.MustExist || m.config.ReadOnly {
		info, err := os.Stat(m.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("data path does not exist: %s", m.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat data path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", m.Path)
		}
		if m.config.ReadOnly {
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Join(m.Path, m.config.SystemDir, "tmp"), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Get reads the value stored under key.
func (m *Medium) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := m.d.Read(key)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, fmt.Errorf("key %q: %w", key, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set writes value under key atomically.
func (m *Medium) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := validateKey(key); err != nil {
		return err
	}

	// Recorded before the write: the watcher may observe the rename before
	// Write returns.
	m.remember(key, selfWrite{data: append([]byte(nil), value...)})
	if err := m.d.Write(key, value); err != nil {
		m.forget(key)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Remove deletes the file behind key, if any.
func (m *Medium) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := validateKey(key); err != nil {
		return err
	}

	m.remember(key, selfWrite{removed: true})
	if err := m.d.Erase(key); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil
		}
		m.forget(key)
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Keys lists every key stored in the data directory.
func (m *Medium) Keys(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(m.Path); os.IsNotExist(err) {
		return nil, nil
	}

	var keys []string
	for key := range m.d.Keys(ctx.Done()) {
		if key == "" {
			continue
		}
		keys = append(keys, key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch streams changes made to the directory by other processes until ctx
// is cancelled. The channel is closed when the watcher stops.
func (m *Medium) Watch(ctx context.Context) (<-chan core.MediumEvent, error) {
	events := make(chan core.MediumEvent, m.config.EventBuffer)
	w := newWatchWorker(m, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (m *Medium) remember(key string, w selfWrite) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written[key] = w
}

func (m *Medium) forget(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.written, key)
}

// isSelfWrite reports whether the current state of key is exactly what this
// handle last wrote (or removed).
func (m *Medium) isSelfWrite(key string, data []byte, removed bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.written[key]
	if !ok {
		return false
	}
	if removed || w.removed {
		return removed && w.removed
	}
	return string(w.data) == string(data)
}

// keyForPath maps an absolute file path back to its key, or "" if the path is
// not a key file of this medium.
func (m *Medium) keyForPath(path string) string {
	if filepath.Dir(filepath.Clean(path)) != filepath.Clean(m.Path) {
		return ""
	}
	name := filepath.Base(path)
	if !strings.HasSuffix(name, keyExt) || strings.HasPrefix(name, ".") {
		return ""
	}
	return strings.TrimSuffix(name, keyExt)
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("key %q: %w", key, core.ErrInvalidArgument)
	}
	return nil
}

func keyToPathTransform(key string) *diskv.PathKey {
	return &diskv.PathKey{
		Path:     []string{},
		FileName: key + keyExt,
	}
}

// pathToKeyTransform returns "" for files that are not top-level key files
// (temporary files under the system directory, stray files).
func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) > 0 {
		return ""
	}
	if !strings.HasSuffix(pathKey.FileName, keyExt) || strings.HasPrefix(pathKey.FileName, ".") {
		return ""
	}
	return strings.TrimSuffix(pathKey.FileName, keyExt)
}

var (
	_ core.Medium      = (*Medium)(nil)
	_ core.Watchable   = (*Medium)(nil)
	_ core.Initializer = (*Medium)(nil)
)

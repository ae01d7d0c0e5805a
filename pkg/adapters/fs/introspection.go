package fs

import (
	"context"
	"time"

	"github.com/aretw0/introspection"
)

// MediumState exposes internal state for observability.
type MediumState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	ReadOnly      bool       `json:"read_only"`
	Keys          int        `json:"keys"`
	WatcherActive bool       `json:"watcher_active"`
	LastEvent     *time.Time `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (m *Medium) State() any {
	keys, _ := m.Keys(context.Background())

	m.mu.RLock()
	defer m.mu.RUnlock()

	return MediumState{
		Path:          m.Path,
		SystemDir:     m.config.SystemDir,
		ReadOnly:      m.config.ReadOnly,
		Keys:          len(keys),
		WatcherActive: m.watcherActive,
		LastEvent:     m.lastEvent,
	}
}

// ComponentType implements introspection.Component.
func (m *Medium) ComponentType() string {
	return "medium"
}

var _ introspection.Introspectable = (*Medium)(nil)
var _ introspection.Component = (*Medium)(nil)

func (m *Medium) setWatcherActive(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watcherActive = active
}

func (m *Medium) recordEvent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.lastEvent = &now
}

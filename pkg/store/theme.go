package store

import (
	"context"
	"fmt"

	"github.com/aretw0/purple/pkg/core"
)

// LoadTheme returns the persisted theme. Missing or unknown values fall back
// to core.ThemeLight.
func (s *Store) LoadTheme(ctx context.Context) core.Theme {
	var theme core.Theme
	if !s.Load(ctx, core.KeyTheme, &theme) {
		return core.ThemeLight
	}
	if !theme.Valid() {
		s.logger.Warn("invalid theme, using light", "theme", string(theme))
		return core.ThemeLight
	}
	return theme
}

// SaveTheme persists theme.
func (s *Store) SaveTheme(ctx context.Context, theme core.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("theme %q: %w", theme, core.ErrInvalidArgument)
	}
	return s.Save(ctx, core.KeyTheme, theme)
}

// ToggleTheme flips the persisted theme and returns the new one.
func (s *Store) ToggleTheme(ctx context.Context) (core.Theme, error) {
	var next core.Theme
	err := s.WithLock(ctx, core.KeyTheme, func(l *Locked) error {
		next = s.LoadTheme(ctx).Toggle()
		return l.Save(ctx, next)
	})
	return next, err
}

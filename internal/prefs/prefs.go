// Package prefs stores UI preferences: colour theme and sidebar state.
package prefs

import (
	"fmt"
	"log/slog"
	"strconv"

	"LexAI/internal/storage"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Prefs reads and writes preferences in storage.
type Prefs struct {
	store  storage.Store
	logger *slog.Logger
}

func New(store storage.Store, logger *slog.Logger) *Prefs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prefs{store: store, logger: logger}
}

// Theme returns the stored theme, dark when unset or unknown.
func (p *Prefs) Theme() string {
	v, ok, err := p.store.Get(storage.KeyTheme)
	if err != nil {
		p.logger.Warn("failed to read theme", "error", err)
		return ThemeDark
	}
	if !ok || (v != ThemeDark && v != ThemeLight) {
		return ThemeDark
	}
	return v
}

// SetTheme stores theme.
func (p *Prefs) SetTheme(theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return fmt.Errorf("invalid theme %q (dark|light)", theme)
	}
	return p.store.Set(storage.KeyTheme, theme)
}

// ToggleTheme flips between dark and light and returns the new theme.
func (p *Prefs) ToggleTheme() (string, error) {
	next := ThemeLight
	if p.Theme() == ThemeLight {
		next = ThemeDark
	}
	return next, p.SetTheme(next)
}

// SidebarCollapsed reports whether the session list is hidden.
func (p *Prefs) SidebarCollapsed() bool {
	v, ok, err := p.store.Get(storage.KeySidebarCollapsed)
	if err != nil || !ok {
		return false
	}
	collapsed, err := strconv.ParseBool(v)
	return err == nil && collapsed
}

// ToggleSidebar flips the sidebar state and returns the new value.
func (p *Prefs) ToggleSidebar() (bool, error) {
	next := !p.SidebarCollapsed()
	return next, p.store.Set(storage.KeySidebarCollapsed, strconv.FormatBool(next))
}

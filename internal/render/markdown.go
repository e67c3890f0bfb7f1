package render

import (
	"github.com/charmbracelet/glamour"

	"LexAI/internal/prefs"
)

// Markdown renders assistant answers. It falls back to plain text when the
// renderer could not be built or fails.
type Markdown struct {
	renderer *glamour.TermRenderer
}

// NewMarkdown builds a renderer for theme (dark or light).
func NewMarkdown(theme string) *Markdown {
	style := "dark"
	if theme == prefs.ThemeLight {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return &Markdown{}
	}
	return &Markdown{renderer: r}
}

// Render returns text rendered for the terminal.
func (m *Markdown) Render(text string) string {
	if m == nil || m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

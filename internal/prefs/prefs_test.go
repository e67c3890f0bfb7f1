package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LexAI/internal/storage"
)

func TestTheme(t *testing.T) {
	kv := storage.NewMemoryStore()
	p := New(kv, nil)
	assert.Equal(t, ThemeDark, p.Theme())

	require.NoError(t, p.SetTheme(ThemeLight))
	assert.Equal(t, ThemeLight, New(kv, nil).Theme())

	next, err := p.ToggleTheme()
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, next)

	assert.Error(t, p.SetTheme("blue"))

	require.NoError(t, kv.Set(storage.KeyTheme, "garbage"))
	assert.Equal(t, ThemeDark, p.Theme())
}

func TestSidebar(t *testing.T) {
	kv := storage.NewMemoryStore()
	p := New(kv, nil)
	assert.False(t, p.SidebarCollapsed())

	collapsed, err := p.ToggleSidebar()
	require.NoError(t, err)
	assert.True(t, collapsed)
	assert.True(t, New(kv, nil).SidebarCollapsed())

	v, _, _ := kv.Get(storage.KeySidebarCollapsed)
	assert.Equal(t, "true", v)
}

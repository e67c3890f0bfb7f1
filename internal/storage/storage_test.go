package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func TestStore_GetSetRemove(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get(KeyTheme)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(KeyTheme, "dark"))
			v, ok, err := store.Get(KeyTheme)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "dark", v)

			require.NoError(t, store.Set(KeyTheme, "light"))
			v, _, _ = store.Get(KeyTheme)
			assert.Equal(t, "light", v)

			require.NoError(t, store.Remove(KeyTheme))
			_, ok, err = store.Get(KeyTheme)
			require.NoError(t, err)
			assert.False(t, ok)

			// Removing a missing key is fine.
			assert.NoError(t, store.Remove("missing"))
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.db")

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyChatHistory, `[{"id":"1","title":"a..."}]`))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(KeyChatHistory)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1","title":"a..."}]`, v)
}

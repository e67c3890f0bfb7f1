package cache

import (
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"LexAI/internal/config"
	"LexAI/internal/session"
	"LexAI/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*ChatCache, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	c := New(store, LocalKeys, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return c, store
}

func msgs(contents ...string) []session.Message {
	out := make([]session.Message, len(contents))
	for i, content := range contents {
		sender := session.SenderUser
		if i%2 == 1 {
			sender = session.SenderAssistant
		}
		out[i] = session.Message{ID: "m" + string(rune('a'+i)), Sender: sender, Content: content}
	}
	return out
}

// assertLockstep checks the short index equals the projection of the full index.
func assertLockstep(t *testing.T, store storage.Store) {
	t.Helper()
	rawFull, _, err := store.Get(storage.KeyChatHistoryFull)
	require.NoError(t, err)
	rawShort, _, err := store.Get(storage.KeyChatHistory)
	require.NoError(t, err)

	var full []session.Session
	require.NoError(t, json.Unmarshal([]byte(rawFull), &full))
	var short []session.Entry
	require.NoError(t, json.Unmarshal([]byte(rawShort), &short))

	assert.Equal(t, Project(full), short)
}

func TestAppendOrCreate_CreatesSession(t *testing.T) {
	c, store := newTestCache(t)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }

	id, err := c.AppendOrCreate("", msgs("Kıdem tazminatı nedir? Detaylı anlat", "Cevap"))
	require.NoError(t, err)
	assert.Equal(t, "1700000000000", id)

	entries := c.List()
	require.Len(t, entries, 1)
	assert.Equal(t, session.Entry{ID: id, Title: "Kıdem tazminatı nedir?..."}, entries[0])
	assertLockstep(t, store)
}

func TestAppendOrCreate_ReplacesExisting(t *testing.T) {
	c, store := newTestCache(t)

	id, err := c.AppendOrCreate("", msgs("first question"))
	require.NoError(t, err)

	again, err := c.AppendOrCreate(id, msgs("first question", "answer", "follow up"))
	require.NoError(t, err)
	assert.Equal(t, id, again)

	sess, err := c.Get(id)
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 3)
	assert.Equal(t, "first question...", sess.Title)
	assert.Len(t, c.List(), 1)
	assertLockstep(t, store)
}

func TestAppendOrCreate_UnknownActiveIDCreates(t *testing.T) {
	c, _ := newTestCache(t)

	id, err := c.AppendOrCreate("does-not-exist", msgs("hello"))
	require.NoError(t, err)
	assert.NotEqual(t, "does-not-exist", id)
	assert.Len(t, c.List(), 1)
}

func TestAppendOrCreate_IDsStrictlyIncrease(t *testing.T) {
	c, store := newTestCache(t)
	fixed := time.UnixMilli(1000)
	c.now = func() time.Time { return fixed }

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		id, err := c.AppendOrCreate("", msgs("question"))
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		assertLockstep(t, store)
	}

	entries := c.List()
	require.Len(t, entries, 5)
	// Newest first.
	assert.Equal(t, "1004", entries[0].ID)
	assert.Equal(t, "1000", entries[4].ID)
}

func TestAppendOrCreate_SequenceKeepsLockstep(t *testing.T) {
	c, store := newTestCache(t)

	var ids []string
	for i := 0; i < 4; i++ {
		id, err := c.AppendOrCreate("", msgs("q"))
		require.NoError(t, err)
		ids = append(ids, id)
		assertLockstep(t, store)
	}
	for i, id := range ids {
		_, err := c.AppendOrCreate(id, msgs("q", "a", "q2")[:i%3+1])
		require.NoError(t, err)
		assertLockstep(t, store)
	}
}

func TestProject_CollapsesDuplicatesByFirstOccurrence(t *testing.T) {
	full := []session.Session{
		{ID: "1", Title: "first"},
		{ID: "2", Title: "second"},
		{ID: "1", Title: "duplicate"},
	}
	assert.Equal(t, []session.Entry{{ID: "1", Title: "first"}, {ID: "2", Title: "second"}}, Project(full))
}

func TestDelete(t *testing.T) {
	c, store := newTestCache(t)

	id1, err := c.AppendOrCreate("", msgs("one"))
	require.NoError(t, err)
	id2, err := c.AppendOrCreate("", msgs("two"))
	require.NoError(t, err)

	require.NoError(t, c.Delete(id1))
	entries := c.List()
	require.Len(t, entries, 1)
	assert.Equal(t, id2, entries[0].ID)
	_, err = c.Get(id1)
	assert.ErrorIs(t, err, ErrNotFound)
	assertLockstep(t, store)
}

func TestDelete_UnknownIDIsNoop(t *testing.T) {
	c, store := newTestCache(t)
	_, err := c.AppendOrCreate("", msgs("one"))
	require.NoError(t, err)

	beforeFull, _, _ := store.Get(storage.KeyChatHistoryFull)
	beforeShort, _, _ := store.Get(storage.KeyChatHistory)

	require.NoError(t, c.Delete("nope"))

	afterFull, _, _ := store.Get(storage.KeyChatHistoryFull)
	afterShort, _, _ := store.Get(storage.KeyChatHistory)
	assert.Equal(t, beforeFull, afterFull)
	assert.Equal(t, beforeShort, afterShort)
}

func TestList_MalformedValueIsEmpty(t *testing.T) {
	c, store := newTestCache(t)
	require.NoError(t, store.Set(storage.KeyChatHistory, "{not json"))
	require.NoError(t, store.Set(storage.KeyChatHistoryFull, "also not json"))

	assert.Empty(t, c.List())
	_, err := c.Get("anything")
	assert.ErrorIs(t, err, ErrNotFound)

	// A write after corruption resets the cache.
	id, err := c.AppendOrCreate("", msgs("fresh start"))
	require.NoError(t, err)
	assert.Equal(t, []session.Entry{{ID: id, Title: "fresh start..."}}, c.List())
	assertLockstep(t, store)
}

func TestList_Missing(t *testing.T) {
	c, _ := newTestCache(t)
	entries := c.List()
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestPutAndRename(t *testing.T) {
	c, store := newTestCache(t)

	require.NoError(t, c.Put("abc123", "", msgs("Kıdem tazminatı nedir?", "answer")))
	sess, err := c.Get("abc123")
	require.NoError(t, err)
	assert.Equal(t, "Kıdem tazminatı nedir?...", sess.Title)

	require.NoError(t, c.Put("abc123", "", msgs("Kıdem tazminatı nedir?", "answer", "more", "more answer")))
	sess, _ = c.Get("abc123")
	assert.Len(t, sess.Messages, 4)
	assert.Equal(t, "Kıdem tazminatı nedir?...", sess.Title)

	require.NoError(t, c.Rename("abc123", "Kıdem"))
	assert.Equal(t, []session.Entry{{ID: "abc123", Title: "Kıdem"}}, c.List())
	assert.ErrorIs(t, c.Rename("missing", "x"), ErrNotFound)
	assert.Error(t, c.Put("", "t", nil))
	assertLockstep(t, store)
}

func TestChatCache_SQLiteBacked(t *testing.T) {
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)
	defer store.Close()

	c := New(store, LocalKeys, nil)
	id, err := c.AppendOrCreate("", msgs("persisted question here"))
	require.NoError(t, err)

	reloaded := New(store, LocalKeys, nil)
	sess, err := reloaded.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "persisted question here...", sess.Title)
}

func TestChatCache_ModesUseSeparateKeys(t *testing.T) {
	store := storage.NewMemoryStore()
	local := New(store, KeysFor(config.ChatModeLocal), nil)
	server := New(store, KeysFor(config.ChatModeServer), nil)

	localID, err := local.AppendOrCreate("", msgs("yerel soru"))
	require.NoError(t, err)
	require.NoError(t, server.Put("3f2b6c1e-8d4a-4f6b-9c2e-1a7d5e9b0c3f", "Sunucu", msgs("sunucu sorusu")))

	assert.Equal(t, []session.Entry{{ID: localID, Title: "yerel soru..."}}, local.List())
	assert.Equal(t, []session.Entry{{ID: "3f2b6c1e-8d4a-4f6b-9c2e-1a7d5e9b0c3f", Title: "Sunucu"}}, server.List())

	_, err = local.Get("3f2b6c1e-8d4a-4f6b-9c2e-1a7d5e9b0c3f")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = server.Get(localID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, ok, err := store.Get(storage.KeyServerSessionsFull)
	require.NoError(t, err)
	assert.True(t, ok)
}

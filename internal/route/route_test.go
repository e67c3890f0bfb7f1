package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LexAI/internal/api"
	"LexAI/internal/auth"
	"LexAI/internal/storage"
)

func TestGuard(t *testing.T) {
	admin := auth.State{Token: "t", User: &api.User{ID: "a", IsAdmin: true}}
	user := auth.State{Token: "t", User: &api.User{ID: "u"}}
	anon := auth.State{}

	users, ok := Lookup(PathAdminUsers)
	require.True(t, ok)
	chat, ok := Lookup(PathChat)
	require.True(t, ok)
	login, ok := Lookup(PathLogin)
	require.True(t, ok)

	tests := []struct {
		name  string
		state auth.State
		route Route
		want  Decision
	}{
		{"anonymous on private", anon, chat, Decision{Redirect: PathLogin}},
		{"anonymous on admin", anon, users, Decision{Redirect: PathLogin}},
		{"anonymous on public", anon, login, Decision{Allow: true}},
		{"user on private", user, chat, Decision{Allow: true}},
		{"user on admin", user, users, Decision{Redirect: PathHome}},
		{"admin on admin", admin, users, Decision{Allow: true}},
		{"token without profile on admin", auth.State{Token: "t"}, users, Decision{Redirect: PathHome}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.state, tt.route))
		})
	}
}

func TestChatLocation(t *testing.T) {
	loc := ChatLocation("abc123")
	assert.Equal(t, "/chat?id=abc123", loc.String())
	assert.Equal(t, "abc123", ParseLocation(loc.String()).Param("id"))
	assert.Equal(t, PathLanding, ParseLocation("").Path)
}

func TestHistoryPersists(t *testing.T) {
	kv := storage.NewMemoryStore()
	h := NewHistory(kv, nil)
	assert.Equal(t, PathLanding, h.Current().Path)

	h.Push(Location{Path: PathHome})
	h.Replace(ChatLocation("s1"))

	restored := NewHistory(kv, nil)
	assert.Equal(t, "/chat?id=s1", restored.Current().String())

	prev, ok := h.Back()
	require.True(t, ok)
	assert.Equal(t, PathLanding, prev.Path)
	_, ok = h.Back()
	assert.False(t, ok)
}

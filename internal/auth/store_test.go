package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LexAI/internal/api"
	"LexAI/internal/storage"
	"LexAI/testutil"
)

func newStore(t *testing.T, srv *testutil.Server, kv storage.Store) *Store {
	t.Helper()
	s := Open(kv, nil, nil)
	s.SetClient(api.New(srv.URL, s, api.Options{}))
	return s
}

func TestLoginFailureLeavesStateUnchanged(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.AddUser("ayse@example.com", "secret", false)
	s := newStore(t, srv, storage.NewMemoryStore())

	ok := s.Login(context.Background(), "ayse@example.com", "wrong")
	assert.False(t, ok)
	assert.Empty(t, s.Token())
	assert.Nil(t, s.Get().User)
}

func TestLoginPersistsAcrossReload(t *testing.T) {
	srv := testutil.NewServer(t)
	u := srv.AddUser("ayse@example.com", "secret", true)
	kv := storage.NewMemoryStore()
	s := newStore(t, srv, kv)

	require.True(t, s.Login(context.Background(), "ayse@example.com", "secret"))
	state := s.Get()
	require.NotNil(t, state.User)
	assert.Equal(t, u.ID, state.User.ID)
	assert.True(t, state.IsAdmin())

	raw, ok, err := kv.Get(storage.KeyAuth)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"version":0`)

	reloaded := newStore(t, srv, kv)
	assert.Equal(t, state.Token, reloaded.Token())
	require.NotNil(t, reloaded.Get().User)
	assert.Equal(t, u.Email, reloaded.Get().User.Email)
}

func TestLoginFailsWhenProfileUnavailable(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.AddUser("ayse@example.com", "secret", false)
	srv.Fail("GET /auth/me", 500, 1)
	s := newStore(t, srv, storage.NewMemoryStore())

	assert.False(t, s.Login(context.Background(), "ayse@example.com", "secret"))
	assert.False(t, s.Get().LoggedIn())
}

func TestCorruptStateMeansLoggedOut(t *testing.T) {
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(storage.KeyAuth, "{not json"))

	s := Open(kv, nil, nil)
	assert.False(t, s.Get().LoggedIn())
}

func TestLogoutClearsPersistedState(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.AddUser("ayse@example.com", "secret", false)
	kv := storage.NewMemoryStore()
	s := newStore(t, srv, kv)
	require.True(t, s.Login(context.Background(), "ayse@example.com", "secret"))

	s.Logout()
	assert.Empty(t, s.Token())
	_, ok, err := kv.Get(storage.KeyAuth)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, Open(kv, nil, nil).Get().LoggedIn())
}

func TestSubscribe(t *testing.T) {
	s := Open(storage.NewMemoryStore(), nil, nil)

	var seen []State
	cancel := s.Subscribe(func(st State) { seen = append(seen, st) })

	s.Set(State{Token: "t1"})
	s.Logout()
	cancel()
	s.Set(State{Token: "t2"})

	require.Len(t, seen, 2)
	assert.Equal(t, "t1", seen[0].Token)
	assert.Empty(t, seen[1].Token)
}

func TestFetchUserKeepsStateOnFailure(t *testing.T) {
	srv := testutil.NewServer(t)
	s := newStore(t, srv, storage.NewMemoryStore())
	s.Set(State{Token: "old", User: &api.User{ID: "u1"}})

	s.FetchUser(context.Background(), "invalid")
	assert.Equal(t, "old", s.Token())
	assert.Equal(t, "u1", s.Get().User.ID)
}

func TestRegister(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.AddUser("taken@example.com", "pw", false)
	s := newStore(t, srv, storage.NewMemoryStore())
	ctx := context.Background()

	err := s.Register(ctx, api.RegisterRequest{FirstName: "Can", LastName: "Y", Email: "can@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, s.Get().LoggedIn())

	err = s.Register(ctx, api.RegisterRequest{Email: "taken@example.com", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, 400, api.StatusCode(err))
}

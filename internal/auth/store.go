// Package auth holds the signed-in user and bearer token, persisted under
// the auth-storage key and shared by the API client and the route guard.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"LexAI/internal/api"
	"LexAI/internal/storage"
)

// State is the authentication state. An empty Token means logged out.
type State struct {
	User  *api.User `json:"user"`
	Token string    `json:"token"`
}

// LoggedIn reports whether a token is held.
func (s State) LoggedIn() bool {
	return s.Token != ""
}

// IsAdmin reports whether the current user carries the admin flag.
func (s State) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin
}

// persisted is the stored envelope.
type persisted struct {
	State   State `json:"state"`
	Version int   `json:"version"`
}

// Client is the subset of the API the store needs.
type Client interface {
	Login(ctx context.Context, email, password string) (*api.TokenResponse, error)
	Me(ctx context.Context, token string) (*api.User, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.User, error)
}

// Store owns the auth state.
type Store struct {
	store  storage.Store
	client Client
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

// Open restores the persisted state. Unreadable state yields a logged-out
// store; Open never fails because of it.
func Open(store storage.Store, client Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		store:  store,
		client: client,
		logger: logger,
		subs:   make(map[int]func(State)),
	}

	raw, ok, err := store.Get(storage.KeyAuth)
	switch {
	case err != nil:
		logger.Warn("failed to read auth state, starting logged out", "error", err)
	case ok && raw != "":
		var p persisted
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			logger.Warn("corrupt auth state, starting logged out", "error", err)
		} else {
			s.state = p.State
		}
	}
	return s
}

// SetClient replaces the API client. The client usually depends on the store
// for its token, so it is wired after Open.
func (s *Store) SetClient(client Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
}

// Get returns a snapshot of the state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token returns the current bearer token. It implements api.TokenSource.
func (s *Store) Token() string {
	return s.Get().Token
}

// Set replaces the state, persists it and notifies subscribers.
func (s *Store) Set(state State) {
	s.mu.Lock()
	s.state = state
	s.persistLocked()
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Subscribe registers fn for state changes and returns a cancel func.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Login exchanges credentials for a token and loads the user profile. It
// reports success; on any failure the state is left unchanged.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	client := s.apiClient()
	tok, err := client.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn("login failed", "email", email, "error", err)
		return false
	}

	user, err := client.Me(ctx, tok.AccessToken)
	if err != nil {
		s.logger.Warn("failed to fetch user after login", "email", email, "error", err)
		return false
	}

	s.Set(State{User: user, Token: tok.AccessToken})
	s.logger.Info("logged in", "user_id", user.ID, "admin", user.IsAdmin)
	return true
}

// FetchUser refreshes the user profile for token. Failures are logged and
// the previous state is kept.
func (s *Store) FetchUser(ctx context.Context, token string) {
	user, err := s.apiClient().Me(ctx, token)
	if err != nil {
		s.logger.Warn("failed to fetch user", "error", err)
		return
	}
	s.Set(State{User: user, Token: token})
}

// Register creates an account. It does not log in.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) error {
	if _, err := s.apiClient().Register(ctx, req); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	s.logger.Info("registered account", "email", req.Email)
	return nil
}

// Logout clears the in-memory and persisted state together.
func (s *Store) Logout() {
	s.mu.Lock()
	s.state = State{}
	if err := s.store.Remove(storage.KeyAuth); err != nil {
		s.logger.Warn("failed to remove persisted auth state", "error", err)
	}
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(State{})
	}
	s.logger.Info("logged out")
}

func (s *Store) apiClient() Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *Store) persistLocked() {
	data, err := json.Marshal(persisted{State: s.state})
	if err != nil {
		s.logger.Warn("failed to marshal auth state", "error", err)
		return
	}
	if err := s.store.Set(storage.KeyAuth, string(data)); err != nil {
		s.logger.Warn("failed to persist auth state", "error", err)
	}
}

func (s *Store) snapshotSubsLocked() []func(State) {
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

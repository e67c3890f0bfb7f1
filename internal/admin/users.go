// Package admin backs the administrator screens: the user list with role
// and delete actions, and the read-only feedback list.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"LexAI/internal/api"
)

// ErrRowBusy is returned when an action targets a row that already has a
// request in flight.
var ErrRowBusy = errors.New("an action on this row is already in progress")

// UsersAPI is the part of the service the user list needs.
type UsersAPI interface {
	ListUsers(ctx context.Context) ([]api.User, error)
	MakeAdmin(ctx context.Context, id string) error
	RemoveAdmin(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, id string) error
}

// UserList holds the fetched accounts.
type UserList struct {
	client UsersAPI
	logger *slog.Logger

	mu    sync.Mutex
	users []api.User
	busy  map[string]bool
}

func NewUserList(client UsersAPI, logger *slog.Logger) *UserList {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserList{client: client, logger: logger, busy: make(map[string]bool)}
}

// Refresh fetches every account. On failure the previous list stays.
func (l *UserList) Refresh(ctx context.Context) error {
	users, err := l.client.ListUsers(ctx)
	if err != nil {
		l.logger.Error("failed to load users", "error", err)
		return fmt.Errorf("failed to load users: %w", err)
	}
	l.mu.Lock()
	l.users = users
	l.mu.Unlock()
	return nil
}

// Users returns all fetched accounts.
func (l *UserList) Users() []api.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]api.User(nil), l.users...)
}

// Filter returns accounts whose name, email or role contains q, ignoring
// case. An empty q returns everything.
func (l *UserList) Filter(q string) []api.User {
	q = fold(strings.TrimSpace(q))
	users := l.Users()
	if q == "" {
		return users
	}
	out := make([]api.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(userHaystack(u), q) {
			out = append(out, u)
		}
	}
	return out
}

func userHaystack(u api.User) string {
	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{u.FirstName, u.LastName, u.Email, role} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return fold(strings.Join(parts, " "))
}

// Busy reports whether id has an action in flight.
func (l *UserList) Busy(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy[id]
}

// MakeAdmin grants the admin flag to id.
func (l *UserList) MakeAdmin(ctx context.Context, id string) error {
	return l.act(ctx, id, "make_admin", l.client.MakeAdmin)
}

// RemoveAdmin revokes the admin flag from id.
func (l *UserList) RemoveAdmin(ctx context.Context, id string) error {
	return l.act(ctx, id, "remove_admin", l.client.RemoveAdmin)
}

// Delete removes the account id.
func (l *UserList) Delete(ctx context.Context, id string) error {
	return l.act(ctx, id, "delete", l.client.DeleteUser)
}

// act runs fn for row id, then refetches the list whatever the outcome.
func (l *UserList) act(ctx context.Context, id, action string, fn func(context.Context, string) error) error {
	l.mu.Lock()
	if l.busy[id] {
		l.mu.Unlock()
		return ErrRowBusy
	}
	l.busy[id] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.busy, id)
		l.mu.Unlock()
	}()

	err := fn(ctx, id)
	if err != nil {
		l.logger.Error("admin action failed", "action", action, "user_id", id, "error", err)
	} else {
		l.logger.Info("admin action applied", "action", action, "user_id", id)
	}

	if rerr := l.Refresh(ctx); rerr != nil && err == nil {
		return rerr
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", action, err)
	}
	return nil
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Login exchanges credentials for a bearer token. The service expects a
// form-encoded body with the email in the username field.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	r := request{
		name:        "auth_login",
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}

	var tok TokenResponse
	if err := c.do(ctx, r, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access token")
	}
	return &tok, nil
}

// Me returns the profile for token, or for the TokenSource's token when
// token is empty.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	r := request{name: "auth_me", method: http.MethodGet, path: "/auth/me", token: token}
	var u User
	if err := c.do(ctx, r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	r, err := jsonRequest("auth_register", http.MethodPost, "/auth/register", req)
	if err != nil {
		return nil, err
	}
	var u User
	if err := c.do(ctx, r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every account (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	r := request{name: "auth_list_users", method: http.MethodGet, path: "/auth/users"}
	var users []User
	if err := c.do(ctx, r, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns one account.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	r := request{name: "auth_get_user", method: http.MethodGet, path: "/auth/users/" + escape(id)}
	var u User
	if err := c.do(ctx, r, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// MakeAdmin grants the admin flag (admin only).
func (c *Client) MakeAdmin(ctx context.Context, id string) error {
	r := request{name: "auth_make_admin", method: http.MethodPatch, path: "/auth/users/" + escape(id) + "/make-admin"}
	return c.do(ctx, r, nil)
}

// RemoveAdmin revokes the admin flag (admin only).
func (c *Client) RemoveAdmin(ctx context.Context, id string) error {
	r := request{name: "auth_remove_admin", method: http.MethodPatch, path: "/auth/users/" + escape(id) + "/remove-admin"}
	return c.do(ctx, r, nil)
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	r := request{name: "auth_delete_user", method: http.MethodDelete, path: "/auth/delete/" + escape(id)}
	return c.do(ctx, r, nil)
}

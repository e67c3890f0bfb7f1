package api

import (
	"context"
	"net/http"
)

// Ask sends a question. A nil sessionID asks the service to open a new
// server-side session.
func (c *Client) Ask(ctx context.Context, query string, sessionID *string) (*AskResponse, error) {
	r, err := jsonRequest("ask", http.MethodPost, "/ask", AskRequest{Query: query, SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	var resp AskResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSession loads a server-side session with its messages and votes.
func (c *Client) GetSession(ctx context.Context, id string) (*SessionDetail, error) {
	r := request{name: "conversation_get_session", method: http.MethodGet, path: "/conversation/session/" + escape(id)}
	var detail SessionDetail
	if err := c.do(ctx, r, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListSessions returns the current user's server-side sessions.
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	r := request{name: "conversation_list_sessions", method: http.MethodGet, path: "/conversation/list"}
	var sessions []SessionSummary
	if err := c.do(ctx, r, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// RenameSession sets a session title.
func (c *Client) RenameSession(ctx context.Context, id, title string) error {
	r, err := jsonRequest("conversation_rename_session", http.MethodPatch, "/conversation/session/"+escape(id), RenameRequest{Title: title})
	if err != nil {
		return err
	}
	return c.do(ctx, r, nil)
}

// DeleteSession removes a server-side session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	r := request{name: "conversation_delete_session", method: http.MethodDelete, path: "/conversation/session/" + escape(id)}
	return c.do(ctx, r, nil)
}

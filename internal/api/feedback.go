package api

import (
	"context"
	"net/http"
)

// Vote records a like/dislike on a feedback record.
func (c *Client) Vote(ctx context.Context, feedbackID, vote string) (*VoteResponse, error) {
	r, err := jsonRequest("feedback_vote", http.MethodPatch, "/feedback/"+escape(feedbackID)+"/vote", VoteRequest{Vote: vote})
	if err != nil {
		return nil, err
	}
	var resp VoteResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListFeedback returns every feedback record (admin only).
func (c *Client) ListFeedback(ctx context.Context) ([]Feedback, error) {
	r := request{name: "feedback_list", method: http.MethodGet, path: "/feedback/all"}
	var items []Feedback
	if err := c.do(ctx, r, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetFeedback returns one feedback record.
func (c *Client) GetFeedback(ctx context.Context, id string) (*Feedback, error) {
	r := request{name: "feedback_get", method: http.MethodGet, path: "/feedback/" + escape(id)}
	var f Feedback
	if err := c.do(ctx, r, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

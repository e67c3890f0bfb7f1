package api

import (
	"context"
	"net/http"
)

// AnalyzeSimilar searches for court decisions and statutes similar to the
// request query.
func (c *Client) AnalyzeSimilar(ctx context.Context, req SimilarRequest) (*SimilarResponse, error) {
	r, err := jsonRequest("similar_analyze", http.MethodPost, "/similar/analyze", req)
	if err != nil {
		return nil, err
	}
	var resp SimilarResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

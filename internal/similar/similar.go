// Package similar backs the similar-cases screen.
package similar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"LexAI/internal/api"
)

const (
	topN       = 5
	titleWords = 8
)

// Searcher runs a similarity search.
type Searcher interface {
	AnalyzeSimilar(ctx context.Context, req api.SimilarRequest) (*api.SimilarResponse, error)
}

// View holds the last search results.
type View struct {
	client Searcher
	logger *slog.Logger

	mu    sync.Mutex
	query string
	cases []api.CaseItem
	laws  []api.LawItem
}

func NewView(client Searcher, logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	return &View{client: client, logger: logger}
}

// Search replaces the results with those for query. A blank query sends
// nothing. On failure the previous results stay.
func (v *View) Search(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	resp, err := v.client.AnalyzeSimilar(ctx, api.SimilarRequest{
		Query:            query,
		TopN:             topN,
		IncludeSummaries: true,
	})
	if err != nil {
		v.logger.Error("similar case search failed", "error", err)
		return fmt.Errorf("similar case search failed: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = query
	v.cases = resp.SimilarCases
	v.laws = resp.RelatedLaws
	v.logger.Debug("similar case search", "cases", len(v.cases), "laws", len(v.laws))
	return nil
}

// Query returns the query of the current results.
func (v *View) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// Cases returns the similar decisions.
func (v *View) Cases() []api.CaseItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]api.CaseItem(nil), v.cases...)
}

// Laws returns the related statute articles.
func (v *View) Laws() []api.LawItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]api.LawItem(nil), v.laws...)
}

// CaseTitle picks a heading for a decision: its case type, else the start of
// the decision text, else the start of the reasoning.
func CaseTitle(c api.CaseItem) string {
	if s := deref(c.DavaTuru); s != "" {
		return s
	}
	if s := deref(c.KararMetni); s != "" {
		return firstWords(s, titleWords) + "…"
	}
	if s := deref(c.Gerekce); s != "" {
		return firstWords(s, titleWords) + "…"
	}
	return "Emsal Dava"
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

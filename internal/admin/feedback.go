package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"LexAI/internal/api"
)

// FeedbackAPI is the part of the service the feedback list needs.
type FeedbackAPI interface {
	ListFeedback(ctx context.Context) ([]api.Feedback, error)
	GetFeedback(ctx context.Context, id string) (*api.Feedback, error)
}

// FeedbackList holds fetched feedback records.
type FeedbackList struct {
	client FeedbackAPI
	logger *slog.Logger

	mu    sync.Mutex
	items []api.Feedback
}

func NewFeedbackList(client FeedbackAPI, logger *slog.Logger) *FeedbackList {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackList{client: client, logger: logger}
}

// Refresh fetches every record. On failure the previous list stays.
func (l *FeedbackList) Refresh(ctx context.Context) error {
	items, err := l.client.ListFeedback(ctx)
	if err != nil {
		l.logger.Error("failed to load feedback", "error", err)
		return fmt.Errorf("failed to load feedback: %w", err)
	}
	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
	return nil
}

// Get fetches a single record without touching the list.
func (l *FeedbackList) Get(ctx context.Context, id string) (api.Feedback, error) {
	f, err := l.client.GetFeedback(ctx, id)
	if err != nil {
		l.logger.Error("failed to load feedback record", "feedback_id", id, "error", err)
		return api.Feedback{}, fmt.Errorf("failed to load feedback %s: %w", id, err)
	}
	return *f, nil
}

// Items returns all fetched records.
func (l *FeedbackList) Items() []api.Feedback {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]api.Feedback(nil), l.items...)
}

// Filter returns records whose user, question, answer or vote contains q,
// ignoring case.
func (l *FeedbackList) Filter(q string) []api.Feedback {
	q = fold(strings.TrimSpace(q))
	items := l.Items()
	if q == "" {
		return items
	}
	out := make([]api.Feedback, 0, len(items))
	for _, f := range items {
		if strings.Contains(feedbackHaystack(f), q) {
			out = append(out, f)
		}
	}
	return out
}

func feedbackHaystack(f api.Feedback) string {
	vote := ""
	if f.Vote != nil {
		vote = *f.Vote
	}
	return fold(strings.Join([]string{f.UserName, f.UserEmail, f.QuestionText, f.AnswerText, vote}, " "))
}

// Author is the display name for a record's user.
func Author(f api.Feedback) string {
	if name := strings.TrimSpace(f.UserName); name != "" {
		return name
	}
	if f.UserEmail != "" {
		return f.UserEmail
	}
	return "Bilinmiyor"
}

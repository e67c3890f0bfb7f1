package session

import (
	"fmt"
	"strings"
)

// Sender identifies who wrote a message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Vote is a like/dislike signal on an assistant message
type Vote string

const (
	VoteLike    Vote = "like"
	VoteDislike Vote = "dislike"
)

// ParseVote accepts "like" or "dislike".
func ParseVote(s string) (Vote, error) {
	switch Vote(s) {
	case VoteLike, VoteDislike:
		return Vote(s), nil
	}
	return "", fmt.Errorf("invalid vote %q (like|dislike)", s)
}

// Message represents a single chat message. Only Vote changes after creation.
type Message struct {
	ID         string `json:"id" yaml:"id"`
	Sender     Sender `json:"sender" yaml:"sender"`
	Content    string `json:"content" yaml:"content"`
	Vote       *Vote  `json:"vote,omitempty" yaml:"vote,omitempty"`
	FeedbackID string `json:"feedback_id,omitempty" yaml:"feedback_id,omitempty"`
}

// Session represents a chat conversation (full index entry)
type Session struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Messages []Message `json:"messages" yaml:"messages"`
}

// Entry is the short index projection of a Session
type Entry struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Entry returns the short index projection of s.
func (s Session) Entry() Entry {
	return Entry{ID: s.ID, Title: s.Title}
}

const titleWords = 3

// DeriveTitle builds a title from the first three words of the first message.
func DeriveTitle(messages []Message) string {
	if len(messages) == 0 {
		return "..."
	}
	words := strings.Fields(messages[0].Content)
	if len(words) > titleWords {
		words = words[:titleWords]
	}
	return strings.Join(words, " ") + "..."
}

// VotePtr is a convenience for building messages with a vote.
func VotePtr(v Vote) *Vote {
	return &v
}

// CloneMessages copies messages including their vote pointers.
func CloneMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = m
		if m.Vote != nil {
			v := *m.Vote
			out[i].Vote = &v
		}
	}
	return out
}

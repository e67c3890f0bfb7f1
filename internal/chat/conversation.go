// Package chat drives one conversation: sending a question, revealing the
// answer, voting, and keeping the local session cache in step.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"LexAI/internal/api"
	"LexAI/internal/cache"
	"LexAI/internal/config"
	"LexAI/internal/route"
	"LexAI/internal/session"
)

var (
	ErrBusy             = errors.New("an answer is still pending")
	ErrEmptyInput       = errors.New("message is empty")
	ErrNoFeedback       = errors.New("message has no feedback id")
	ErrUnknownMessage   = errors.New("message not found")
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrNoSessionID      = errors.New("service returned no session id")
)

// titleLimit caps the server-side title set after the first exchange.
const titleLimit = 50

// State is the exchange state of a conversation.
type State int

const (
	Idle State = iota
	Sending
	Revealing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Revealing:
		return "revealing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// API is the part of the LexAI service a conversation talks to.
type API interface {
	Ask(ctx context.Context, query string, sessionID *string) (*api.AskResponse, error)
	GetSession(ctx context.Context, id string) (*api.SessionDetail, error)
	ListSessions(ctx context.Context) ([]api.SessionSummary, error)
	RenameSession(ctx context.Context, id, title string) error
	DeleteSession(ctx context.Context, id string) error
	Vote(ctx context.Context, feedbackID, vote string) (*api.VoteResponse, error)
}

// Navigator reflects the active session into the current location.
type Navigator interface {
	Replace(loc route.Location)
}

// Options configures a Conversation.
type Options struct {
	// Mode is config.ChatModeServer (default) or config.ChatModeLocal.
	Mode           string
	RevealInterval time.Duration
	Navigator      Navigator
	Logger         *slog.Logger
	Meter          metric.Meter
	// OnReveal receives the partially revealed answer on every tick.
	OnReveal func(partial string)
}

// Conversation is the chat view state for one active session.
type Conversation struct {
	client API
	cache  *cache.ChatCache
	opts   Options
	logger *slog.Logger

	exchanges metric.Int64Counter
	votes     metric.Int64Counter

	mu        sync.Mutex
	state     State
	gen       int
	sessionID string
	messages  []session.Message
	revealed  string

	subsMu sync.Mutex
	subs   map[int]func()
	nextID int
}

// New creates a conversation with no session selected.
func New(client API, chatCache *cache.ChatCache, opts Options) *Conversation {
	if opts.Mode == "" {
		opts.Mode = config.ChatModeServer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	meter := opts.Meter
	if meter == nil {
		meter = otel.Meter("lexai/chat")
	}

	c := &Conversation{
		client: client,
		cache:  chatCache,
		opts:   opts,
		logger: logger.With("component", "chat", "mode", opts.Mode),
		subs:   make(map[int]func()),
	}

	var err error
	if c.exchanges, err = meter.Int64Counter("lexai.chat.exchanges",
		metric.WithDescription("Question/answer exchanges by result")); err != nil {
		c.logger.Warn("failed to create exchange counter", "error", err)
	}
	if c.votes, err = meter.Int64Counter("lexai.chat.votes",
		metric.WithDescription("Votes by value and result")); err != nil {
		c.logger.Warn("failed to create vote counter", "error", err)
	}
	return c
}

// State returns the exchange state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the active session id, empty when none is selected.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Messages returns a copy of the committed messages.
func (c *Conversation) Messages() []session.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return session.CloneMessages(c.messages)
}

// Revealed returns the part of the pending answer shown so far.
func (c *Conversation) Revealed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revealed
}

// OnSessionsChanged registers fn to run whenever the session list changes.
func (c *Conversation) OnSessionsChanged(fn func()) (cancel func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs, id)
	}
}

// Send asks input in the active session and waits until the answer is
// revealed and committed. Only one exchange runs at a time.
func (c *Conversation) Send(ctx context.Context, input string) error {
	text := strings.TrimSpace(input)
	if text == "" {
		return ErrEmptyInput
	}
	text = capitalize(text)

	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = Sending
	c.revealed = ""
	gen := c.gen
	prevID := c.sessionID
	c.messages = append(c.messages, session.Message{
		ID:      uuid.NewString(),
		Sender:  session.SenderUser,
		Content: text,
	})
	c.mu.Unlock()

	var sid *string
	if prevID != "" && c.opts.Mode == config.ChatModeServer {
		sid = &prevID
	}

	resp, err := c.client.Ask(ctx, text, sid)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		c.finish(gen, Idle)
		c.record(ctx, c.exchanges, attribute.String("result", "error"))
		c.logger.Error("failed to send message", "session_id", prevID, "error", err)
		return fmt.Errorf("failed to send message: %w", err)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.logger.Debug("discarding answer for abandoned session", "session_id", prevID)
		return nil
	}
	first := c.sessionID == ""
	if first {
		id, err := c.newSessionID(resp.SessionID, c.messages)
		if err != nil {
			c.state = Idle
			c.mu.Unlock()
			c.record(ctx, c.exchanges, attribute.String("result", "error"))
			c.logger.Error("failed to start session", "error", err)
			return err
		}
		c.sessionID = id
	}
	c.state = Revealing
	id := c.sessionID
	snapshot := session.CloneMessages(c.messages)
	c.mu.Unlock()

	if first {
		if c.opts.Navigator != nil {
			c.opts.Navigator.Replace(route.ChatLocation(id))
		}
		c.persist(id, snapshot)
		if c.opts.Mode == config.ChatModeServer {
			if err := c.client.RenameSession(ctx, id, truncate(text, titleLimit)); err != nil {
				c.logger.Warn("failed to save session title", "session_id", id, "error", err)
			}
		}
		c.notify()
	}

	reveal(ctx, resp.Answer, c.opts.RevealInterval, func(partial string) {
		c.mu.Lock()
		current := c.gen == gen
		if current {
			c.revealed = partial
		}
		c.mu.Unlock()
		if current && c.opts.OnReveal != nil {
			c.opts.OnReveal(partial)
		}
	})

	answerID := resp.AnswerID
	if answerID == "" {
		answerID = uuid.NewString()
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return nil
	}
	c.messages = append(c.messages, session.Message{
		ID:         answerID,
		Sender:     session.SenderAssistant,
		Content:    resp.Answer,
		FeedbackID: resp.FeedbackID,
	})
	c.state = Idle
	c.revealed = ""
	snapshot = session.CloneMessages(c.messages)
	c.mu.Unlock()

	c.persist(id, snapshot)
	c.record(ctx, c.exchanges, attribute.String("result", "ok"))
	c.logger.Info("exchange completed", "session_id", id, "messages", len(snapshot))
	return nil
}

// newSessionID picks the id for a session that has none yet. Callers hold mu.
func (c *Conversation) newSessionID(serverID string, messages []session.Message) (string, error) {
	if c.opts.Mode == config.ChatModeServer {
		if serverID == "" {
			return "", ErrNoSessionID
		}
		return serverID, nil
	}
	id, err := c.cache.AppendOrCreate("", messages)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// Vote sets vote on an assistant message. The local state changes first and
// is restored if the service rejects the vote.
func (c *Conversation) Vote(ctx context.Context, messageID string, vote session.Vote) error {
	c.mu.Lock()
	i := c.indexOf(messageID)
	if i < 0 {
		c.mu.Unlock()
		return ErrUnknownMessage
	}
	msg := c.messages[i]
	if msg.FeedbackID == "" {
		c.mu.Unlock()
		return ErrNoFeedback
	}
	prev := msg.Vote
	c.messages[i].Vote = session.VotePtr(vote)
	id := c.sessionID
	snapshot := session.CloneMessages(c.messages)
	c.mu.Unlock()

	c.persist(id, snapshot)

	if _, err := c.client.Vote(ctx, msg.FeedbackID, string(vote)); err != nil {
		c.mu.Lock()
		if j := c.indexOf(messageID); j >= 0 && c.messages[j].Vote != nil && *c.messages[j].Vote == vote {
			c.messages[j].Vote = prev
		}
		snapshot = session.CloneMessages(c.messages)
		c.mu.Unlock()

		c.persist(id, snapshot)
		c.record(ctx, c.votes, attribute.String("vote", string(vote)), attribute.String("result", "error"))
		c.logger.Error("failed to record vote", "feedback_id", msg.FeedbackID, "vote", vote, "error", err)
		return fmt.Errorf("failed to record vote: %w", err)
	}

	c.record(ctx, c.votes, attribute.String("vote", string(vote)), attribute.String("result", "ok"))
	return nil
}

// Load makes id the active session. In server mode the service is read
// first and the cache refreshed from it; the cache serves when the service
// fails. A malformed server id resets the conversation.
func (c *Conversation) Load(ctx context.Context, id string) error {
	if c.State() != Idle {
		return ErrBusy
	}

	if c.opts.Mode == config.ChatModeServer {
		if !validServerID(id) {
			c.Reset()
			return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
		}
		detail, err := c.client.GetSession(ctx, id)
		if err == nil {
			msgs := fromServer(detail.Messages)
			if err := c.cache.Put(id, detail.Title, msgs); err != nil {
				c.logger.Warn("failed to refresh cached session", "session_id", id, "error", err)
			}
			c.activate(id, msgs)
			return nil
		}
		c.logger.Warn("failed to load session, trying cache", "session_id", id, "error", err)
		sess, cerr := c.cache.Get(id)
		if cerr != nil {
			return fmt.Errorf("failed to load session %s: %w", id, err)
		}
		c.activate(id, sess.Messages)
		return nil
	}

	sess, err := c.cache.Get(id)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", id, err)
	}
	c.activate(id, sess.Messages)
	return nil
}

func (c *Conversation) activate(id string, msgs []session.Message) {
	c.mu.Lock()
	c.gen++
	c.state = Idle
	c.sessionID = id
	c.messages = session.CloneMessages(msgs)
	c.revealed = ""
	c.mu.Unlock()

	if c.opts.Navigator != nil {
		c.opts.Navigator.Replace(route.ChatLocation(id))
	}
}

// Reset deselects the active session. An exchange still in flight is not
// applied when it returns.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.gen++
	c.state = Idle
	c.sessionID = ""
	c.messages = nil
	c.revealed = ""
	c.mu.Unlock()

	if c.opts.Navigator != nil {
		c.opts.Navigator.Replace(route.Location{Path: route.PathChat})
	}
}

// DeleteSession removes a session. Deleting the active session resets the
// conversation.
func (c *Conversation) DeleteSession(ctx context.Context, id string) error {
	if c.opts.Mode == config.ChatModeServer {
		if err := c.client.DeleteSession(ctx, id); err != nil {
			c.logger.Error("failed to delete session", "session_id", id, "error", err)
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}
	if err := c.cache.Delete(id); err != nil {
		c.logger.Warn("failed to remove cached session", "session_id", id, "error", err)
	}

	if c.SessionID() == id {
		c.Reset()
	}
	c.notify()
	c.logger.Info("session deleted", "session_id", id)
	return nil
}

// Rename sets a session title.
func (c *Conversation) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyInput
	}
	if c.opts.Mode == config.ChatModeServer {
		if err := c.client.RenameSession(ctx, id, title); err != nil {
			return fmt.Errorf("failed to rename session: %w", err)
		}
		if err := c.cache.Rename(id, title); err != nil && !errors.Is(err, cache.ErrNotFound) {
			c.logger.Warn("failed to rename cached session", "session_id", id, "error", err)
		}
	} else if err := c.cache.Rename(id, title); err != nil {
		return fmt.Errorf("failed to rename session: %w", err)
	}
	c.notify()
	return nil
}

// Sessions lists sessions for the history view, newest first. In server
// mode a failing service falls back to the cache.
func (c *Conversation) Sessions(ctx context.Context) []session.Entry {
	if c.opts.Mode == config.ChatModeServer {
		list, err := c.client.ListSessions(ctx)
		if err == nil {
			entries := make([]session.Entry, 0, len(list))
			for _, s := range list {
				entries = append(entries, session.Entry{ID: s.ID, Title: s.Title})
			}
			return entries
		}
		c.logger.Warn("failed to list sessions, using cache", "error", err)
	}
	return c.cache.List()
}

func (c *Conversation) persist(id string, msgs []session.Message) {
	var err error
	if c.opts.Mode == config.ChatModeLocal {
		_, err = c.cache.AppendOrCreate(id, msgs)
	} else {
		err = c.cache.Put(id, "", msgs)
	}
	if err != nil {
		c.logger.Warn("failed to persist session", "session_id", id, "error", err)
	}
}

// finish moves the conversation to state unless it was reset meanwhile.
func (c *Conversation) finish(gen int, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.state = state
	}
}

func (c *Conversation) notify() {
	c.subsMu.Lock()
	subs := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subsMu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func (c *Conversation) record(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attrs...))
}

func (c *Conversation) indexOf(messageID string) int {
	for i, m := range c.messages {
		if m.ID == messageID {
			return i
		}
	}
	return -1
}

func fromServer(in []api.SessionMessage) []session.Message {
	out := make([]session.Message, 0, len(in))
	for _, m := range in {
		msg := session.Message{ID: m.ID, Sender: session.Sender(m.Sender), Content: m.Content}
		if m.Vote != nil {
			if v, err := session.ParseVote(*m.Vote); err == nil {
				msg.Vote = session.VotePtr(v)
			}
		}
		if m.FeedbackID != nil {
			msg.FeedbackID = *m.FeedbackID
		}
		out = append(out, msg)
	}
	return out
}

// validServerID reports whether id looks like a server session UUID.
func validServerID(id string) bool {
	return len(id) == 36 && uuid.Validate(id) == nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

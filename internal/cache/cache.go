package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"LexAI/internal/config"
	"LexAI/internal/session"
	"LexAI/internal/storage"
)

// ErrNotFound is returned by Get and Rename for unknown session ids.
var ErrNotFound = errors.New("session not found in cache")

// Keys names the storage entries holding the short and full index.
type Keys struct {
	Short string
	Full  string
}

var (
	// LocalKeys hold sessions that exist only on this machine.
	LocalKeys = Keys{Short: storage.KeyChatHistory, Full: storage.KeyChatHistoryFull}
	// ServerKeys hold the read-through copy of server sessions.
	ServerKeys = Keys{Short: storage.KeyServerSessions, Full: storage.KeyServerSessionsFull}
)

// KeysFor returns the keys of a chat mode. The two modes never share
// entries, so sessions of one are invisible to the other.
func KeysFor(mode string) Keys {
	if mode == config.ChatModeLocal {
		return LocalKeys
	}
	return ServerKeys
}

// ChatCache keeps the full index (id, title, messages) and the short index
// (id, title) of chat sessions in durable storage. Every write to the full
// index regenerates the short index from it.
type ChatCache struct {
	store  storage.Store
	keys   Keys
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	lastID int64
}

// New creates a cache over the entries of store named by keys.
func New(store storage.Store, keys Keys, logger *slog.Logger) *ChatCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatCache{store: store, keys: keys, logger: logger, now: time.Now}
}

// AppendOrCreate replaces the messages of activeID if it is in the full
// index. Otherwise it creates a session with a millisecond timestamp id and a
// title derived from the first message. It returns the session id.
func (c *ChatCache) AppendOrCreate(activeID string, messages []session.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	full := c.loadFull()
	if activeID != "" {
		if i := indexOf(full, activeID); i >= 0 {
			full[i].Messages = session.CloneMessages(messages)
			return activeID, c.saveFull(full)
		}
	}

	id := c.nextID(full)
	sess := session.Session{
		ID:       id,
		Title:    session.DeriveTitle(messages),
		Messages: session.CloneMessages(messages),
	}
	full = append([]session.Session{sess}, full...)
	c.logger.Debug("created cached session", "session_id", id, "title", sess.Title)
	return id, c.saveFull(full)
}

// Put stores a session under a known id, typically a server session id.
// An empty title keeps the existing title or derives one.
func (c *ChatCache) Put(id, title string, messages []session.Message) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	full := c.loadFull()
	if i := indexOf(full, id); i >= 0 {
		full[i].Messages = session.CloneMessages(messages)
		if title != "" {
			full[i].Title = title
		}
		return c.saveFull(full)
	}

	if title == "" {
		title = session.DeriveTitle(messages)
	}
	full = append([]session.Session{{ID: id, Title: title, Messages: session.CloneMessages(messages)}}, full...)
	return c.saveFull(full)
}

// Get returns a full session.
func (c *ChatCache) Get(id string) (session.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	full := c.loadFull()
	if i := indexOf(full, id); i >= 0 {
		return full[i], nil
	}
	return session.Session{}, ErrNotFound
}

// Rename changes the title of a cached session.
func (c *ChatCache) Rename(id, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	full := c.loadFull()
	i := indexOf(full, id)
	if i < 0 {
		return ErrNotFound
	}
	full[i].Title = title
	return c.saveFull(full)
}

// Delete removes id from both indices. Unknown ids are a no-op.
func (c *ChatCache) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	full := c.loadFull()
	i := indexOf(full, id)
	if i < 0 {
		return nil
	}
	full = append(full[:i], full[i+1:]...)
	return c.saveFull(full)
}

// List returns the short index as stored. A missing or corrupt index reads
// as empty.
func (c *ChatCache) List() []session.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var entries []session.Entry
	if !c.load(c.keys.Short, &entries) {
		return []session.Entry{}
	}
	return entries
}

// Project builds the short index from the full index, keeping the first
// occurrence of each id.
func Project(full []session.Session) []session.Entry {
	seen := make(map[string]bool, len(full))
	entries := make([]session.Entry, 0, len(full))
	for _, s := range full {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		entries = append(entries, s.Entry())
	}
	return entries
}

func (c *ChatCache) nextID(full []session.Session) string {
	id := c.now().UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	for indexOf(full, strconv.FormatInt(id, 10)) >= 0 {
		id++
	}
	c.lastID = id
	return strconv.FormatInt(id, 10)
}

func (c *ChatCache) loadFull() []session.Session {
	var full []session.Session
	if !c.load(c.keys.Full, &full) {
		return []session.Session{}
	}
	return full
}

// load decodes key into v and reports whether a usable value was found.
func (c *ChatCache) load(key string, v any) bool {
	raw, ok, err := c.store.Get(key)
	if err != nil {
		c.logger.Warn("failed to read chat cache, treating as empty", "key", key, "error", err)
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		c.logger.Warn("corrupt chat cache, treating as empty", "key", key, "error", err)
		return false
	}
	return true
}

func (c *ChatCache) saveFull(full []session.Session) error {
	fullJSON, err := json.Marshal(full)
	if err != nil {
		return fmt.Errorf("failed to marshal full index: %w", err)
	}
	shortJSON, err := json.Marshal(Project(full))
	if err != nil {
		return fmt.Errorf("failed to marshal short index: %w", err)
	}

	if err := c.store.Set(c.keys.Full, string(fullJSON)); err != nil {
		return fmt.Errorf("failed to save full index: %w", err)
	}
	if err := c.store.Set(c.keys.Short, string(shortJSON)); err != nil {
		return fmt.Errorf("failed to save short index: %w", err)
	}
	return nil
}

func indexOf(full []session.Session, id string) int {
	for i, s := range full {
		if s.ID == id {
			return i
		}
	}
	return -1
}

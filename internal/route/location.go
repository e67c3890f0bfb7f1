package route

import (
	"log/slog"
	"net/url"
	"sync"

	"LexAI/internal/storage"
)

// Location is a path with query parameters, e.g. /chat?id=abc.
type Location struct {
	Path  string
	Query url.Values
}

// ChatLocation is the location of chat session id.
func ChatLocation(id string) Location {
	q := url.Values{}
	q.Set("id", id)
	return Location{Path: PathChat, Query: q}
}

// ParseLocation parses a location string. Invalid input yields the landing
// page.
func ParseLocation(s string) Location {
	u, err := url.Parse(s)
	if err != nil || u.Path == "" {
		return Location{Path: PathLanding}
	}
	return Location{Path: u.Path, Query: u.Query()}
}

// Param returns a query parameter.
func (l Location) Param(key string) string {
	if l.Query == nil {
		return ""
	}
	return l.Query.Get(key)
}

func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// History holds the current location and persists it so a later run
// resumes where the last one stopped.
type History struct {
	store  storage.Store
	logger *slog.Logger

	mu      sync.Mutex
	current Location
	back    []Location
}

// NewHistory restores the last persisted location.
func NewHistory(store storage.Store, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	h := &History{store: store, logger: logger, current: Location{Path: PathLanding}}
	raw, ok, err := store.Get(storage.KeyLocation)
	if err != nil {
		logger.Warn("failed to read last location", "error", err)
	} else if ok {
		h.current = ParseLocation(raw)
	}
	return h
}

// Current returns the current location.
func (h *History) Current() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Push navigates to loc, keeping the previous location for Back.
func (h *History) Push(loc Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.back = append(h.back, h.current)
	h.setLocked(loc)
}

// Replace navigates to loc without a new history entry.
func (h *History) Replace(loc Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setLocked(loc)
}

// Back returns to the previous location, if any.
func (h *History) Back() (Location, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.back) == 0 {
		return h.current, false
	}
	prev := h.back[len(h.back)-1]
	h.back = h.back[:len(h.back)-1]
	h.setLocked(prev)
	return prev, true
}

func (h *History) setLocked(loc Location) {
	h.current = loc
	if err := h.store.Set(storage.KeyLocation, loc.String()); err != nil {
		h.logger.Warn("failed to persist location", "location", loc.String(), "error", err)
	}
}

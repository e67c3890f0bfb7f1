package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a non-2xx API response
type Error struct {
	StatusCode int
	Status     string
	// Detail is the service's "detail" message when the body carried one.
	Detail string
	Body   string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API error: %s - %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("API error: %s - %s", e.Status, e.Body)
}

// Message is the text to show a user inline: the service detail if present,
// otherwise the HTTP status.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Status
}

func newError(resp *http.Response, body []byte) *Error {
	e := &Error{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			e.Detail = s
		} else {
			// Validation errors arrive as a list of objects.
			e.Detail = string(payload.Detail)
		}
	}
	return e
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

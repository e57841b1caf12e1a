package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the two response classes callers branch on.
// ErrNotFound marks expected absence (no goals yet, no plan yet);
// ErrUnauthorized marks a rejected or stale token.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a non-2xx response from the service. Message holds the server's
// error payload verbatim so forms can display it unchanged.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

// Is lets errors.Is match the sentinels against wrapped *Error values.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

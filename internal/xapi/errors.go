package xapi

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth is returned when the credentials are rejected
	ErrAuth = errors.New("x api: not authorized")
	// ErrNotFound is returned when a user or post does not exist
	ErrNotFound = errors.New("x api: not found")
)

// TransientError is a network or server failure, including a rate limit that
// did not clear within the allowed waits.
type TransientError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// APIError is a client error reported by the API that is neither an auth
// failure nor a missing resource.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("x api: %d %s: %s", e.StatusCode, e.Title, e.Detail)
	}
	return fmt.Sprintf("x api: %d %s", e.StatusCode, e.Title)
}

// DeleteError records why a single post could not be deleted
type DeleteError struct {
	PostID string
	Reason string
	Err    error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete post %s: %s", e.PostID, e.Reason)
}

func (e *DeleteError) Unwrap() error { return e.Err }

package fediverse

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the instance reports 404 for the requested
// record (media, scheduled status).
var ErrNotFound = errors.New("record not found")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("instance returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("instance returned status %d: %s", e.StatusCode, e.Message)
}

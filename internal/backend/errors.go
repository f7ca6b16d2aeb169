package backend

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized  = errors.New("invalid username or password")
	ErrUsernameTaken = errors.New("username already exists")
	ErrNotFound      = errors.New("transaction not found")
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string
	// Err optionally classifies the failure for errors.Is.
	Err error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// UserMessage extracts the service-provided message from err, or returns
// fallback when there is none.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

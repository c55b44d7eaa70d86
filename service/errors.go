package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoCredential is returned by writes when no credential was resolved.
	ErrNoCredential = errors.New("authorization not found: open the site via the link sent by the bot")
	// ErrEventIDRequired is returned when registering without an event id.
	ErrEventIDRequired = errors.New("event id is required")
)

// APIError is a non-2xx response of the CMS API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the backend's {"error": "..."} text, if any.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

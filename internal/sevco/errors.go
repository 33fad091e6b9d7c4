package sevco

import (
	"errors"
	"fmt"
)

// ErrNoResults is returned when a search completes but matches nothing.
// It is an expected outcome, not an API fault, and callers surface it
// as a user-facing message rather than a system error.
var ErrNoResults = errors.New("no matching devices found")

// ConfigError indicates incomplete credentials. Requests failing with
// ConfigError were never sent to the API.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("API key, organization ID and organization slug must be configured (missing: %s)", e.Missing)
}

// NetworkError wraps a transport-level failure (no HTTP response).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: unable to reach the Sevco API: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is returned for 401 and 403 responses.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return "authentication failed: check the API key and organization ID"
}

// EndpointError is returned for 404 responses.
type EndpointError struct {
	Path string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("API endpoint not found: %s", e.Path)
}

// APIError is returned for any other non-2xx response and carries the
// status code and response body text.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed (%d): %s", e.Status, e.Body)
}

// ParseError wraps a malformed JSON response.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "failed to parse API response"
}

func (e *ParseError) Unwrap() error { return e.Err }

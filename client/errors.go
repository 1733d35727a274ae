package tickvault

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidBaseURL is returned when a base URL option is invalid.
	ErrInvalidBaseURL = errors.New("tickvault: invalid base URL")
	// ErrNilHTTPClient indicates a nil HTTP client was provided.
	ErrNilHTTPClient = errors.New("tickvault: http client cannot be nil")
	// ErrEmptyResponse is returned when a query completes with no payload,
	// which the service uses to signal an empty result set.
	ErrEmptyResponse = errors.New("tickvault: query returned no results")
	// ErrNoAuth is returned by Token when the client was built without
	// credentials.
	ErrNoAuth = errors.New("tickvault: client has no credentials configured")
)

// APIError represents a non-2xx reply from the service.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Raw     []byte `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message == "" {
		return fmt.Sprintf("tickvault: api error status=%d", e.Status)
	}
	return fmt.Sprintf("tickvault: api error status=%d: %s", e.Status, strings.TrimSpace(e.Message))
}

// Temporary reports whether the error may be retried.
func (e *APIError) Temporary() bool {
	if e == nil {
		return false
	}
	return e.Status >= 500 && e.Status < 600
}

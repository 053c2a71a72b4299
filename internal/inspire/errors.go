package inspire

import (
	"errors"
	"fmt"
)

// Common errors returned by the INSPIRE client.
var (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("not found in INSPIRE")

	// ErrRateLimited indicates the server asked us to slow down.
	ErrRateLimited = errors.New("INSPIRE rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with INSPIRE")

	// ErrInvalidResponse indicates an unexpected response body.
	ErrInvalidResponse = errors.New("invalid response from INSPIRE")
)

// APIError represents an HTTP error status from INSPIRE.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("INSPIRE API error (status %d): %s", e.StatusCode, e.URL)
}

// IsNotFound returns true if the error indicates a record was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}

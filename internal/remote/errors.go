package remote

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		return fmt.Sprintf("pageview API %d", e.StatusCode)
	}
	return fmt.Sprintf("pageview API %d: %s", e.StatusCode, msg)
}

// StatusCode returns the HTTP status of err if it wraps an *APIError,
// or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{StatusCode: status, Body: string(body)}
}

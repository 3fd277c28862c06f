package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for completion calls.
var (
	ErrMissingAPIKey   = errors.New("llm: api key is required")
	ErrEmptyCompletion = errors.New("llm: completion has no choices")
)

// APIError is a non-2xx response from the completion endpoint.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("llm: api error (HTTP %d): %s", e.StatusCode, msg)
}

// HTTPStatusCode returns the response status so that retry classifiers
// can treat 429 and 5xx responses as transient.
func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

package export

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingToken is returned when a connector has no usable credential.
	ErrMissingToken = errors.New("export: credential is required")

	// ErrMissingDestination is returned when a connector is configured
	// without the container that receives items (database, list, repo).
	ErrMissingDestination = errors.New("export: destination is required")

	// ErrEmptyTitle is returned when an item has no title.
	ErrEmptyTitle = errors.New("export: item title is required")
)

// APIError is a non-2xx reply from a provider API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	RequestID  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("export: %s api error (HTTP %d): %s", e.Provider, e.StatusCode, msg)
}

// HTTPStatusCode reports the response status so the retry classifier can
// tell transient provider failures from permanent ones.
func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

package health

import "errors"

var (
	// ErrCheckTimeout indicates a health check exceeded its deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates no checker is registered under the
	// requested name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrProbeFailed indicates an HTTP probe got an unexpected response.
	ErrProbeFailed = errors.New("health: probe failed")
)

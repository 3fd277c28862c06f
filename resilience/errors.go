package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for resilience operations. The typed errors below match
// these through errors.Is, so callers can branch on the kind of failure
// without losing the payload carried by the concrete type.
var (
	// ErrTimeout is matched by every *TimeoutError.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrRetryExhausted is matched by every *RetryExhaustedError.
	ErrRetryExhausted = errors.New("resilience: retry attempts exhausted")

	// ErrCircuitOpen is matched by every *CircuitOpenError.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrUnknownBreaker is returned when a named circuit breaker does not exist.
	ErrUnknownBreaker = errors.New("resilience: unknown circuit breaker")
)

// TimeoutError reports that an operation exceeded its time budget.
type TimeoutError struct {
	// Timeout is the budget that was exceeded. Zero means the configured
	// budget was non-positive and the operation was never started.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Timeout <= 0 {
		return "resilience: operation timed out (no time budget)"
	}
	return fmt.Sprintf("resilience: operation timed out after %s", e.Timeout)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// RetryExhaustedError reports that every retry attempt failed. Attempts is
// the total number of invocations, which the circuit breaker uses to weight
// the failure when counting toward its threshold.
type RetryExhaustedError struct {
	// Op names the operation or resource the retries ran against. May be empty.
	Op string

	// Attempts is the total number of invocations, including the first.
	Attempts int

	// Err is the error returned by the final attempt.
	Err error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("resilience: %s: retry exhausted after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("resilience: retry exhausted after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the error from the final attempt.
func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// Is reports whether target is ErrRetryExhausted.
func (e *RetryExhaustedError) Is(target error) bool { return target == ErrRetryExhausted }

// CircuitOpenError reports that a call was rejected because the named
// circuit breaker is open.
type CircuitOpenError struct {
	// Resource is the breaker name, typically a downstream service.
	Resource string

	// NextAttempt is when the breaker will next admit a trial request.
	NextAttempt time.Time
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	if e.Resource == "" {
		return "resilience: circuit breaker is open"
	}
	return fmt.Sprintf("resilience: circuit breaker %q is open", e.Resource)
}

// Is reports whether target is ErrCircuitOpen.
func (e *CircuitOpenError) Is(target error) bool { return target == ErrCircuitOpen }

// RetryIn returns how long after now the breaker will admit a trial
// request. It returns zero when the cooldown has already elapsed.
func (e *CircuitOpenError) RetryIn(now time.Time) time.Duration {
	d := e.NextAttempt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

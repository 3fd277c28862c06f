package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation. It must be
	// positive; Execute fails with *TimeoutError before starting the
	// operation otherwise.
	Timeout time.Duration

	// OnTimeout is called when the deadline fires, before the error is
	// returned. Useful for logging and metrics.
	OnTimeout func()
}

// Timeout bounds operations with a deadline. The deadline is propagated to
// the operation through its context, so a well-behaved operation stops work
// when the budget runs out; one that ignores its context keeps running in
// the background while the caller gets *TimeoutError.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	return &Timeout{config: config}
}

// Execute runs the operation under the configured deadline.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	d := t.config.Timeout
	if d <= 0 {
		return &TimeoutError{}
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	// Buffered so an abandoned operation can deliver its result and exit.
	done := make(chan error, 1)

	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			if t.config.OnTimeout != nil {
				t.config.OnTimeout()
			}
			return &TimeoutError{Timeout: d}
		}
		return ctx.Err()
	}
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout is a convenience function to run an operation with a
// deadline.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	t := NewTimeout(TimeoutConfig{Timeout: timeout})
	return t.Execute(ctx, op)
}

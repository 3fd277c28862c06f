package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays increase between retries.
type BackoffStrategy int

const (
	// BackoffExponential doubles the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly.
	BackoffLinear
	// BackoffConstant uses the same delay for all retries.
	BackoffConstant
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt, so an
	// operation is invoked at most MaxRetries+1 times.
	// Default: 2
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	// Default: 100ms
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries, after jitter.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter adds randomness to delays to prevent thundering herd.
	Jitter bool

	// MaxJitter bounds the random delay added when Jitter is enabled.
	// Default: 1s
	MaxJitter time.Duration

	// RetryIf determines if an error should trigger a retry.
	// Default: DefaultRetryable
	RetryIf func(err error) bool

	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry implements retry with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxRetries <= 0 {
		config.MaxRetries = 2
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.MaxJitter <= 0 {
		config.MaxJitter = time.Second
	}
	if config.RetryIf == nil {
		config.RetryIf = DefaultRetryable
	}

	return &Retry{config: config}
}

// Execute runs the operation with retry logic.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	return r.run(ctx, "", nil, op)
}

// ExecuteGuarded runs the operation with retry logic, consulting the given
// circuit breaker between attempts: once the breaker opens, remaining
// retries are abandoned and the rejection is returned. op names the
// operation in the exhaustion error. A nil breaker degrades to Execute.
func (r *Retry) ExecuteGuarded(ctx context.Context, op string, cb *CircuitBreaker, fn func(context.Context) error) error {
	return r.run(ctx, op, cb, fn)
}

func (r *Retry) run(ctx context.Context, op string, cb *CircuitBreaker, fn func(context.Context) error) error {
	attempts := r.config.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		// A breaker that opened during an earlier attempt ends the loop;
		// the rejection does not consume an attempt.
		if attempt > 1 && cb != nil {
			if rejection, open := cb.rejection(); open {
				return rejection
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}

		if attempt >= attempts {
			break
		}

		delay := r.calculateDelay(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			// Continue to next attempt
		}
	}

	return &RetryExhaustedError{Op: op, Attempts: attempts, Err: lastErr}
}

func (r *Retry) calculateDelay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Strategy {
	case BackoffConstant:
		delay = r.config.BaseDelay

	case BackoffLinear:
		delay = r.config.BaseDelay * time.Duration(attempt)

	case BackoffExponential:
		multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
		delay = time.Duration(float64(r.config.BaseDelay) * multiplier)
	}

	// Add jitter if enabled
	if r.config.Jitter && r.config.MaxJitter > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(r.config.MaxJitter)))
	}

	// Cap at max delay
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

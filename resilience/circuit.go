package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is rejecting all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the service recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of failures within MonitoringPeriod
	// that opens the circuit.
	// Default: 5
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before admitting a
	// trial request.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// MonitoringPeriod is the sliding window over which failures are
	// counted. Failures older than this no longer count toward the
	// threshold.
	// Default: 2 minutes
	MonitoringPeriod time.Duration

	// OnStateChange is called when the circuit state changes. It runs
	// while the breaker lock is held and must not call back into the
	// breaker.
	OnStateChange func(name string, from, to State)

	// IsFailure determines if an error should count as a failure.
	// Default: all non-nil errors except circuit rejections and context
	// cancellation.
	IsFailure func(err error) bool
}

// CircuitBreaker guards one downstream resource. Failures are recorded as
// timestamps in a sliding window; when enough accumulate the breaker opens
// and rejects calls until a cooldown passes, then admits a single trial
// whose outcome decides between closing and reopening.
//
// An error that unwraps to *RetryExhaustedError counts once per attempt it
// carries, so a fully retried failure moves the breaker toward open as fast
// as the individual attempts would have.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    []time.Time
	nextAttempt time.Time
	probing     bool

	now func() time.Time
}

// NewCircuitBreaker creates a circuit breaker for the named resource.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.MonitoringPeriod <= 0 {
		config.MonitoringPeriod = 2 * time.Minute
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool {
			return err != nil &&
				!errors.Is(err, ErrCircuitOpen) &&
				!errors.Is(err, context.Canceled) &&
				err != context.DeadlineExceeded
		}
	}

	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  StateClosed,
		now:    time.Now,
	}
}

// Name returns the resource name the breaker guards.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute runs the operation through the circuit breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := op(ctx)
	cb.afterRequest(err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateLocked(cb.now())
}

// Status returns a serializable snapshot of the breaker.
func (cb *CircuitBreaker) Status() BreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	state := cb.stateLocked(now)
	cb.pruneLocked(now)

	status := BreakerStatus{
		Name:     cb.name,
		State:    state.String(),
		Failures: len(cb.failures),
	}
	if state == StateOpen {
		next := cb.nextAttempt
		status.NextAttempt = &next
	}
	return status
}

// Reset forces the circuit back to closed and clears the failure window.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state
	cb.state = StateClosed
	cb.failures = cb.failures[:0]
	cb.probing = false

	if oldState != StateClosed && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.name, oldState, StateClosed)
	}
}

// rejection reports whether the breaker currently rejects calls outright.
// The retry loop uses it between attempts; a half-open trial in flight does
// not reject here because the caller holding the trial slot is the one
// asking.
func (cb *CircuitBreaker) rejection() (error, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.stateLocked(cb.now()) == StateOpen {
		return cb.openErrorLocked(), true
	}
	return nil, false
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.stateLocked(cb.now()) {
	case StateOpen:
		return cb.openErrorLocked()
	case StateHalfOpen:
		if cb.probing {
			return cb.openErrorLocked()
		}
		cb.probing = true
	}

	return nil
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()

	if !cb.config.IsFailure(err) {
		if err != nil {
			// Neither success nor failure (e.g. cancellation): release
			// the trial slot without a verdict.
			if cb.state == StateHalfOpen {
				cb.probing = false
			}
			return
		}
		cb.failures = cb.failures[:0]
		cb.probing = false
		if cb.state != StateClosed {
			cb.transitionLocked(StateClosed)
		}
		return
	}

	// A retried-and-exhausted error counts once per attempt.
	weight := 1
	var rex *RetryExhaustedError
	if errors.As(err, &rex) && rex.Attempts > 1 {
		weight = rex.Attempts
	}

	cb.pruneLocked(now)
	for i := 0; i < weight; i++ {
		cb.failures = append(cb.failures, now)
	}

	switch cb.state {
	case StateClosed:
		if len(cb.failures) >= cb.config.FailureThreshold {
			cb.tripLocked(now)
		}
	case StateHalfOpen:
		cb.probing = false
		cb.tripLocked(now)
	}
}

// stateLocked returns the current state, moving an open circuit whose
// cooldown has elapsed into half-open.
func (cb *CircuitBreaker) stateLocked(now time.Time) State {
	if cb.state == StateOpen && !now.Before(cb.nextAttempt) {
		cb.probing = false
		cb.transitionLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) tripLocked(now time.Time) {
	cb.nextAttempt = now.Add(cb.config.ResetTimeout)
	cb.transitionLocked(StateOpen)
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.name, from, to)
	}
}

// pruneLocked drops failures that have aged out of the monitoring window.
// Timestamps are appended in order, so the slice stays sorted.
func (cb *CircuitBreaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-cb.config.MonitoringPeriod)
	i := 0
	for i < len(cb.failures) && !cb.failures[i].After(cutoff) {
		i++
	}
	if i > 0 {
		cb.failures = append(cb.failures[:0], cb.failures[i:]...)
	}
}

func (cb *CircuitBreaker) openErrorLocked() error {
	return &CircuitOpenError{Resource: cb.name, NextAttempt: cb.nextAttempt}
}

// BreakerStatus is a point-in-time snapshot of one circuit breaker, shaped
// for health endpoints and logs.
type BreakerStatus struct {
	Name        string     `json:"name"`
	State       string     `json:"state"`
	Failures    int        `json:"failures"`
	NextAttempt *time.Time `json:"next_attempt,omitempty"`
}

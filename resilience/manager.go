package resilience

import (
	"context"
	"sync"
	"time"
)

// Config bundles the resilience policy applied to calls against one
// downstream resource. Layers are applied only when configured, so the
// zero value runs operations bare.
type Config struct {
	// Timeout bounds each individual attempt. Zero disables the timeout
	// layer.
	Timeout time.Duration

	// OnTimeout is passed to the timeout layer.
	OnTimeout func()

	// Retry enables the retry layer.
	Retry *RetryConfig

	// CircuitBreaker enables the breaker registered under the resource
	// name. The first configuration seen for a name wins.
	CircuitBreaker *CircuitBreakerConfig

	// RateLimit enables client-side rate limiting for the resource.
	RateLimit *RateLimiterConfig

	// MaxConcurrent caps in-flight calls to the resource. Zero disables
	// the bulkhead layer.
	MaxConcurrent int
}

// Manager runs operations against named downstream resources through a
// composed resilience policy. Breakers live in the injected registry;
// rate limiters and bulkheads are created per resource on first use, so
// their state spans calls the way breaker state does.
//
// Layers compose innermost-first: the timeout bounds each attempt, retry
// wraps the attempts and abandons them once the breaker opens, the breaker
// guards the whole sequence, and bulkhead and rate limiter gate entry.
type Manager struct {
	registry *Registry

	mu        sync.Mutex
	limiters  map[string]*RateLimiter
	bulkheads map[string]*Bulkhead
}

// NewManager creates a manager backed by the given breaker registry.
func NewManager(registry *Registry) *Manager {
	return &Manager{
		registry:  registry,
		limiters:  make(map[string]*RateLimiter),
		bulkheads: make(map[string]*Bulkhead),
	}
}

// Registry returns the breaker registry the manager was built with.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Execute runs op against the named resource under cfg.
func (m *Manager) Execute(ctx context.Context, resource string, cfg Config, op func(context.Context) error) error {
	// Build the execution chain from inside out
	execute := op

	if cfg.Timeout > 0 {
		t := NewTimeout(TimeoutConfig{Timeout: cfg.Timeout, OnTimeout: cfg.OnTimeout})
		inner := execute
		execute = func(ctx context.Context) error {
			return t.Execute(ctx, inner)
		}
	}

	var cb *CircuitBreaker
	if cfg.CircuitBreaker != nil {
		cb = m.registry.GetOrCreate(resource, *cfg.CircuitBreaker)
	}

	if cfg.Retry != nil {
		r := NewRetry(*cfg.Retry)
		inner := execute
		execute = func(ctx context.Context) error {
			return r.ExecuteGuarded(ctx, resource, cb, inner)
		}
	}

	if cb != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return cb.Execute(ctx, inner)
		}
	}

	if cfg.MaxConcurrent > 0 {
		b := m.bulkhead(resource, cfg.MaxConcurrent)
		inner := execute
		execute = func(ctx context.Context) error {
			return b.Execute(ctx, inner)
		}
	}

	if cfg.RateLimit != nil {
		rl := m.limiter(resource, *cfg.RateLimit)
		inner := execute
		execute = func(ctx context.Context) error {
			return rl.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}

// Statuses returns a snapshot of every breaker in the registry.
func (m *Manager) Statuses() map[string]BreakerStatus {
	return m.registry.AllStatuses()
}

// ResetBreaker forces the named breaker back to closed.
func (m *Manager) ResetBreaker(resource string) error {
	return m.registry.Reset(resource)
}

func (m *Manager) limiter(resource string, cfg RateLimiterConfig) *RateLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rl, ok := m.limiters[resource]; ok {
		return rl
	}
	rl := NewRateLimiter(cfg)
	m.limiters[resource] = rl
	return rl
}

func (m *Manager) bulkhead(resource string, maxConcurrent int) *Bulkhead {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.bulkheads[resource]; ok {
		return b
	}
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: maxConcurrent})
	m.bulkheads[resource] = b
	return b
}

// Do runs fn against the named resource under cfg and returns its value.
// An attempt abandoned by the timeout layer may still complete in the
// background; the first recorded success wins.
func Do[T any](ctx context.Context, m *Manager, resource string, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var (
		mu  sync.Mutex
		out T
		set bool
	)

	err := m.Execute(ctx, resource, cfg, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		if !set {
			out, set = v, true
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	mu.Lock()
	defer mu.Unlock()
	return out, nil
}

package resilience

import (
	"fmt"
	"slices"
	"sync"
)

// Registry tracks named circuit breakers, one per downstream resource.
// Construct one at startup and pass it to whatever needs breaker access;
// there is no package-level instance.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*CircuitBreaker)}
}

// GetOrCreate returns the breaker registered under name, creating it with
// config on first use. The first caller's config wins; later configs for
// the same name are ignored.
func (r *Registry) GetOrCreate(name string, config CircuitBreakerConfig) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}
	cb := NewCircuitBreaker(name, config)
	r.breakers[name] = cb
	return cb
}

// Get returns the breaker registered under name, if any.
func (r *Registry) Get(name string) (*CircuitBreaker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.breakers[name]
	return cb, ok
}

// Names returns the registered breaker names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// AllStatuses returns a snapshot of every registered breaker, keyed by name.
func (r *Registry) AllStatuses() map[string]BreakerStatus {
	r.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		breakers = append(breakers, cb)
	}
	r.mu.Unlock()

	// Status takes each breaker's own lock, so snapshot outside ours.
	statuses := make(map[string]BreakerStatus, len(breakers))
	for _, cb := range breakers {
		statuses[cb.Name()] = cb.Status()
	}
	return statuses
}

// Reset forces the named breaker back to closed. It returns
// ErrUnknownBreaker when no breaker is registered under name.
func (r *Registry) Reset(name string) error {
	r.mu.Lock()
	cb, ok := r.breakers[name]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBreaker, name)
	}
	cb.Reset()
	return nil
}

// ResetAll forces every registered breaker back to closed.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		breakers = append(breakers, cb)
	}
	r.mu.Unlock()

	for _, cb := range breakers {
		cb.Reset()
	}
}

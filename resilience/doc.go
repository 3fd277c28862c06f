// Package resilience protects outbound provider calls from transient
// failure, slow responses, and sustained outages.
//
// TaskMint's backend talks to an LLM provider and to the trackers ideas
// are exported to. Every one of those calls goes through this package so
// that a slow or failing downstream degrades into fast, typed errors
// instead of stuck requests.
//
// # Patterns
//
//   - Timeout: bounds each attempt and propagates the deadline through the
//     operation's context.
//
//   - Retry: re-runs transient failures with exponential backoff and
//     jitter. The default predicate, DefaultRetryable, understands HTTP
//     status codes, network errors, and common provider error messages.
//
//   - Circuit Breaker: counts failures in a sliding window and rejects
//     calls outright once a resource looks down, admitting a single trial
//     after a cooldown.
//
//   - Rate Limiter and Bulkhead: keep call rate and concurrency inside a
//     provider's quota.
//
// # Usage
//
// Most callers go through a Manager, which composes the patterns per
// resource and keeps breaker state in an injected Registry:
//
//	registry := resilience.NewRegistry()
//	manager := resilience.NewManager(registry)
//
//	cfg := resilience.Config{
//	    Timeout: 15 * time.Second,
//	    Retry:   &resilience.RetryConfig{MaxRetries: 3, Jitter: true},
//	    CircuitBreaker: &resilience.CircuitBreakerConfig{
//	        FailureThreshold: 3,
//	        ResetTimeout:     30 * time.Second,
//	    },
//	}
//
//	page, err := resilience.Do(ctx, manager, "notion", cfg,
//	    func(ctx context.Context) (*Page, error) {
//	        return client.CreatePage(ctx, req)
//	    })
//
// Failures come back as *TimeoutError, *RetryExhaustedError, or
// *CircuitOpenError; all three match their sentinel through errors.Is and
// carry enough detail to build a useful client-facing message.
//
// Each pattern also works standalone; see the individual types.
package resilience

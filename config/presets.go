package config

import "time"

// Defaults returns the built-in per-resource resilience presets.
//
// The numbers track each downstream's characteristics. The LLM provider
// streams long completions, so it gets a long timeout and a moderate
// threshold over a wide window. The tracker APIs are quicker and less
// critical, so they fail fast: shorter timeouts and lower thresholds.
// The database sits on every request path and flakes rarely, so it gets
// the shortest timeout and a high threshold over a narrow window to keep
// transient blips from tripping it.
func Defaults() map[string]ServiceConfig {
	return map[string]ServiceConfig{
		"openai": {
			Timeout: 60 * time.Second,
			Retry:   &RetrySettings{MaxRetries: 2, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second},
			Breaker: &BreakerSettings{FailureThreshold: 5, ResetTimeout: 30 * time.Second, MonitoringPeriod: 2 * time.Minute},
		},
		"notion": {
			Timeout: 15 * time.Second,
			Retry:   &RetrySettings{MaxRetries: 3, BaseDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second},
			Breaker: &BreakerSettings{FailureThreshold: 4, ResetTimeout: 20 * time.Second, MonitoringPeriod: time.Minute},
		},
		"trello": {
			Timeout: 10 * time.Second,
			Retry:   &RetrySettings{MaxRetries: 3, BaseDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second},
			Breaker: &BreakerSettings{FailureThreshold: 3, ResetTimeout: 20 * time.Second, MonitoringPeriod: time.Minute},
		},
		"github": {
			Timeout: 15 * time.Second,
			Retry:   &RetrySettings{MaxRetries: 3, BaseDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second},
			Breaker: &BreakerSettings{FailureThreshold: 4, ResetTimeout: 30 * time.Second, MonitoringPeriod: time.Minute},
		},
		"gtasks": {
			Timeout: 10 * time.Second,
			Retry:   &RetrySettings{MaxRetries: 3, BaseDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second},
			Breaker: &BreakerSettings{FailureThreshold: 3, ResetTimeout: 20 * time.Second, MonitoringPeriod: time.Minute},
		},
		"database": {
			Timeout: 5 * time.Second,
			Retry:   &RetrySettings{MaxRetries: 2, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second},
			Breaker: &BreakerSettings{FailureThreshold: 10, ResetTimeout: 10 * time.Second, MonitoringPeriod: 30 * time.Second},
		},
	}
}

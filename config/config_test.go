package config

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/taskmint/mintops/resilience"
)

func TestDefaults_CoversKnownResources(t *testing.T) {
	presets := Defaults()
	for _, resource := range []string{"openai", "notion", "trello", "github", "gtasks", "database"} {
		sc, ok := presets[resource]
		if !ok {
			t.Errorf("missing preset for %q", resource)
			continue
		}
		if sc.Timeout <= 0 {
			t.Errorf("%s: timeout must be positive", resource)
		}
		if sc.Retry == nil {
			t.Errorf("%s: retry preset missing", resource)
		}
		if sc.Breaker == nil {
			t.Errorf("%s: breaker preset missing", resource)
		}
	}
}

func TestDefaults_DownstreamCharacteristics(t *testing.T) {
	presets := Defaults()
	openai := presets["openai"]
	db := presets["database"]

	// The LLM call is the slowest downstream by far.
	for _, tracker := range []string{"notion", "trello", "github", "gtasks"} {
		if presets[tracker].Timeout >= openai.Timeout {
			t.Errorf("%s timeout %v should be shorter than openai %v", tracker, presets[tracker].Timeout, openai.Timeout)
		}
		if presets[tracker].Breaker.FailureThreshold > openai.Breaker.FailureThreshold {
			t.Errorf("%s threshold %d should not exceed openai %d", tracker, presets[tracker].Breaker.FailureThreshold, openai.Breaker.FailureThreshold)
		}
	}

	// The database fails fast but tolerates more blips before opening.
	if db.Timeout >= openai.Timeout {
		t.Errorf("database timeout %v should be shorter than openai %v", db.Timeout, openai.Timeout)
	}
	if db.Breaker.FailureThreshold <= openai.Breaker.FailureThreshold {
		t.Errorf("database threshold %d should exceed openai %d", db.Breaker.FailureThreshold, openai.Breaker.FailureThreshold)
	}
}

func TestServiceConfig_Resilience(t *testing.T) {
	sc := ServiceConfig{
		Timeout:       10 * time.Second,
		Retry:         &RetrySettings{MaxRetries: 3, BaseDelay: 250 * time.Millisecond, MaxDelay: 5 * time.Second},
		Breaker:       &BreakerSettings{FailureThreshold: 4, ResetTimeout: 20 * time.Second, MonitoringPeriod: time.Minute},
		RateLimit:     &RateLimitSettings{Rate: 5, Burst: 2, WaitOnLimit: true},
		MaxConcurrent: 8,
	}

	cfg := sc.Resilience()
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.MaxConcurrent != 8 {
		t.Errorf("MaxConcurrent = %d, want 8", cfg.MaxConcurrent)
	}
	if cfg.Retry == nil || cfg.Retry.MaxRetries != 3 || cfg.Retry.BaseDelay != 250*time.Millisecond {
		t.Errorf("retry not carried: %+v", cfg.Retry)
	}
	if cfg.CircuitBreaker == nil || cfg.CircuitBreaker.FailureThreshold != 4 || cfg.CircuitBreaker.MonitoringPeriod != time.Minute {
		t.Errorf("breaker not carried: %+v", cfg.CircuitBreaker)
	}
	if cfg.RateLimit == nil || cfg.RateLimit.Rate != 5 || !cfg.RateLimit.WaitOnLimit {
		t.Errorf("rate limit not carried: %+v", cfg.RateLimit)
	}
}

func TestServiceConfig_Resilience_RetryAlwaysJitters(t *testing.T) {
	for resource, sc := range Defaults() {
		cfg := sc.Resilience()
		if cfg.Retry == nil {
			t.Fatalf("%s: retry config missing", resource)
		}
		if !cfg.Retry.Jitter {
			t.Errorf("%s: jitter disabled", resource)
		}
		if cfg.Retry.MaxJitter != time.Second {
			t.Errorf("%s: MaxJitter = %v, want 1s", resource, cfg.Retry.MaxJitter)
		}
	}
}

func TestServiceConfig_Resilience_RetryDelaysVary(t *testing.T) {
	sc := Defaults()["openai"]
	rc := *sc.Resilience().Retry

	// Capture the first computed delay without sleeping through it:
	// cancelling inside OnRetry makes the sleep select return immediately.
	firstDelay := func() time.Duration {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var delay time.Duration
		c := rc
		c.OnRetry = func(attempt int, err error, d time.Duration) {
			delay = d
			cancel()
		}
		r := resilience.NewRetry(c)
		_ = r.Execute(ctx, func(ctx context.Context) error {
			return fmt.Errorf("complete: %w", resilience.ErrTimeout)
		})
		return delay
	}

	base := sc.Retry.BaseDelay
	seen := make(map[time.Duration]struct{})
	for i := 0; i < 8; i++ {
		d := firstDelay()
		if d < base || d >= base+time.Second {
			t.Fatalf("delay %v outside [%v, %v)", d, base, base+time.Second)
		}
		seen[d] = struct{}{}
	}
	if len(seen) < 2 {
		t.Errorf("delays identical across runs: %v", seen)
	}
}

func TestServiceConfig_Resilience_ZeroValue(t *testing.T) {
	cfg := ServiceConfig{}.Resilience()
	if cfg.Timeout != 0 || cfg.Retry != nil || cfg.CircuitBreaker != nil || cfg.RateLimit != nil || cfg.MaxConcurrent != 0 {
		t.Errorf("zero settings should produce zero config, got %+v", cfg)
	}
}

func TestServiceConfig_Resilience_FreshPointers(t *testing.T) {
	sc := ServiceConfig{
		Breaker: &BreakerSettings{FailureThreshold: 4},
	}

	a := sc.Resilience()
	b := sc.Resilience()
	a.CircuitBreaker.FailureThreshold = 99

	if b.CircuitBreaker.FailureThreshold != 4 {
		t.Errorf("conversions share breaker config: %d", b.CircuitBreaker.FailureThreshold)
	}
	if sc.Breaker.FailureThreshold != 4 {
		t.Errorf("conversion mutated the source: %d", sc.Breaker.FailureThreshold)
	}
}

func TestConfig_Policy_ConfiguredResourceWins(t *testing.T) {
	cfg := &Config{
		Services: map[string]ServiceConfig{
			"openai": {Timeout: 7 * time.Second},
		},
	}

	p := cfg.Policy("openai")
	if p.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want configured 7s", p.Timeout)
	}
}

func TestConfig_Policy_FallsBackToPreset(t *testing.T) {
	cfg := &Config{}

	p := cfg.Policy("trello")
	want := Defaults()["trello"]
	if p.Timeout != want.Timeout {
		t.Errorf("Timeout = %v, want preset %v", p.Timeout, want.Timeout)
	}
	if p.CircuitBreaker == nil || p.CircuitBreaker.FailureThreshold != want.Breaker.FailureThreshold {
		t.Errorf("breaker preset not applied: %+v", p.CircuitBreaker)
	}
}

func TestConfig_Policy_UnknownResourceIsBare(t *testing.T) {
	cfg := &Config{}

	p := cfg.Policy("somewhere-new")
	if p.Timeout != 0 || p.Retry != nil || p.CircuitBreaker != nil {
		t.Errorf("unknown resource should run bare, got %+v", p)
	}
}

func TestCacheSettings_Policy(t *testing.T) {
	s := CacheSettings{DefaultTTL: time.Minute, MaxTTL: time.Hour, AllowSampled: true}
	p := s.Policy()
	if p.DefaultTTL != time.Minute || p.MaxTTL != time.Hour || !p.AllowSampled {
		t.Errorf("policy not carried: %+v", p)
	}
	if !p.ShouldCache() {
		t.Error("expected caching enabled")
	}

	if (CacheSettings{}).Policy().ShouldCache() {
		t.Error("zero settings should disable caching")
	}
}

func TestConfig_ObserveConfig(t *testing.T) {
	cfg := &Config{
		ServiceName: "taskmint-api",
		Version:     "1.2.3",
		Observe: ObserveSettings{
			Tracing: TracingSettings{Enabled: true, Exporter: "stdout", SamplePct: 0.25},
			Metrics: MetricsSettings{Enabled: true, Exporter: "prometheus"},
			Logging: LoggingSettings{Enabled: true, Level: "debug"},
		},
	}

	oc := cfg.ObserveConfig()
	if oc.ServiceName != "taskmint-api" || oc.Version != "1.2.3" {
		t.Errorf("identity not carried: %+v", oc)
	}
	if !oc.Tracing.Enabled || oc.Tracing.Exporter != "stdout" || oc.Tracing.SamplePct != 0.25 {
		t.Errorf("tracing not carried: %+v", oc.Tracing)
	}
	if !oc.Metrics.Enabled || oc.Metrics.Exporter != "prometheus" {
		t.Errorf("metrics not carried: %+v", oc.Metrics)
	}
	if oc.Logging.Level != "debug" {
		t.Errorf("logging not carried: %+v", oc.Logging)
	}
	if err := oc.Validate(); err != nil {
		t.Errorf("converted config should validate: %v", err)
	}
}

package config

import (
	"time"

	"github.com/taskmint/mintops/cache"
	"github.com/taskmint/mintops/observe"
	"github.com/taskmint/mintops/resilience"
)

// Config is the root process configuration.
type Config struct {
	// ServiceName identifies the process in telemetry. Default: "taskmint"
	ServiceName string `mapstructure:"service_name"`

	// Version is reported as the service version.
	Version string `mapstructure:"version"`

	Observe ObserveSettings `mapstructure:"observe"`
	Cache   CacheSettings   `mapstructure:"cache"`

	// Services holds per-resource resilience settings keyed by resource
	// name ("openai", "notion", "trello", "github", "gtasks", "database").
	// Resources absent here fall back to the Defaults preset.
	Services map[string]ServiceConfig `mapstructure:"services"`

	LLM    LLMSettings    `mapstructure:"llm"`
	Export ExportSettings `mapstructure:"export"`
}

// ObserveSettings configures telemetry.
type ObserveSettings struct {
	Tracing TracingSettings `mapstructure:"tracing"`
	Metrics MetricsSettings `mapstructure:"metrics"`
	Logging LoggingSettings `mapstructure:"logging"`
}

// TracingSettings configures the trace exporter.
type TracingSettings struct {
	Enabled   bool    `mapstructure:"enabled"`
	Exporter  string  `mapstructure:"exporter"`
	Endpoint  string  `mapstructure:"endpoint"`
	SamplePct float64 `mapstructure:"sample_pct"`
}

// MetricsSettings configures the metrics exporter.
type MetricsSettings struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"`
	Endpoint string `mapstructure:"endpoint"`
}

// LoggingSettings configures structured logging.
type LoggingSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
}

// ObserveConfig converts the settings into an observe.Config.
func (c *Config) ObserveConfig() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Version:     c.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Observe.Tracing.Enabled,
			Exporter:  c.Observe.Tracing.Exporter,
			Endpoint:  c.Observe.Tracing.Endpoint,
			SamplePct: c.Observe.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Observe.Metrics.Enabled,
			Exporter: c.Observe.Metrics.Exporter,
			Endpoint: c.Observe.Metrics.Endpoint,
		},
		Logging: observe.LoggingConfig{
			Enabled: c.Observe.Logging.Enabled,
			Level:   c.Observe.Logging.Level,
		},
	}
}

// CacheSettings configures completion memoization.
type CacheSettings struct {
	// DefaultTTL is how long memoized completions live. Zero disables
	// memoization.
	DefaultTTL time.Duration `mapstructure:"default_ttl"`

	// MaxTTL clamps per-request TTL overrides.
	MaxTTL time.Duration `mapstructure:"max_ttl"`

	// MaxSize bounds the number of cached completions.
	MaxSize int `mapstructure:"max_size"`

	// AllowSampled permits memoizing nonzero-temperature completions.
	AllowSampled bool `mapstructure:"allow_sampled"`
}

// Policy converts the settings into a cache.Policy.
func (s CacheSettings) Policy() cache.Policy {
	return cache.Policy{
		DefaultTTL:   s.DefaultTTL,
		MaxTTL:       s.MaxTTL,
		AllowSampled: s.AllowSampled,
	}
}

// ServiceConfig holds the resilience settings for one downstream resource.
type ServiceConfig struct {
	// Timeout bounds each attempt. Zero disables the timeout layer.
	Timeout time.Duration `mapstructure:"timeout"`

	Retry     *RetrySettings     `mapstructure:"retry"`
	Breaker   *BreakerSettings   `mapstructure:"breaker"`
	RateLimit *RateLimitSettings `mapstructure:"rate_limit"`

	// MaxConcurrent caps in-flight calls. Zero disables the bulkhead.
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

// RetrySettings configures the retry layer.
type RetrySettings struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
}

// BreakerSettings configures the circuit breaker.
type BreakerSettings struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	ResetTimeout     time.Duration `mapstructure:"reset_timeout"`
	MonitoringPeriod time.Duration `mapstructure:"monitoring_period"`
}

// RateLimitSettings configures client-side rate limiting.
type RateLimitSettings struct {
	Rate        float64 `mapstructure:"rate"`
	Burst       int     `mapstructure:"burst"`
	WaitOnLimit bool    `mapstructure:"wait_on_limit"`
}

// Resilience converts the settings into a resilience.Config. The returned
// value owns fresh sub-config pointers, so callers may attach hooks
// without mutating the source.
func (s ServiceConfig) Resilience() resilience.Config {
	cfg := resilience.Config{
		Timeout:       s.Timeout,
		MaxConcurrent: s.MaxConcurrent,
	}
	if s.Retry != nil {
		// Jitter is not a per-service knob: every configured resource
		// retries with up to 1s of random spread so clients that failed
		// together do not retry together.
		cfg.Retry = &resilience.RetryConfig{
			MaxRetries: s.Retry.MaxRetries,
			BaseDelay:  s.Retry.BaseDelay,
			MaxDelay:   s.Retry.MaxDelay,
			Jitter:     true,
			MaxJitter:  time.Second,
		}
	}
	if s.Breaker != nil {
		cfg.CircuitBreaker = &resilience.CircuitBreakerConfig{
			FailureThreshold: s.Breaker.FailureThreshold,
			ResetTimeout:     s.Breaker.ResetTimeout,
			MonitoringPeriod: s.Breaker.MonitoringPeriod,
		}
	}
	if s.RateLimit != nil {
		cfg.RateLimit = &resilience.RateLimiterConfig{
			Rate:        s.RateLimit.Rate,
			Burst:       s.RateLimit.Burst,
			WaitOnLimit: s.RateLimit.WaitOnLimit,
		}
	}
	return cfg
}

// Policy returns the resilience policy for a resource, falling back to
// the built-in preset when the resource is not configured.
func (c *Config) Policy(resource string) resilience.Config {
	if sc, ok := c.Services[resource]; ok {
		return sc.Resilience()
	}
	if sc, ok := Defaults()[resource]; ok {
		return sc.Resilience()
	}
	return resilience.Config{}
}

// LLMSettings configures the completion client.
type LLMSettings struct {
	// APIKey is the bearer credential; accepts secretref: values.
	// Empty disables the LLM client.
	APIKey string `mapstructure:"api_key"`

	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`

	// Resource names the breaker slot. Default: "openai"
	Resource string `mapstructure:"resource"`
}

// ExportSettings configures the tracker connectors. A nil section leaves
// that connector unwired.
type ExportSettings struct {
	Notion      *NotionSettings      `mapstructure:"notion"`
	Trello      *TrelloSettings      `mapstructure:"trello"`
	GitHub      *GitHubSettings      `mapstructure:"github"`
	GoogleTasks *GoogleTasksSettings `mapstructure:"google_tasks"`
}

// NotionSettings configures the Notion connector.
type NotionSettings struct {
	// Token is the integration secret; accepts secretref: values.
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
	BaseURL    string `mapstructure:"base_url"`
}

// TrelloSettings configures the Trello connector.
type TrelloSettings struct {
	// Key and Token are the application key and member token; both accept
	// secretref: values.
	Key     string `mapstructure:"key"`
	Token   string `mapstructure:"token"`
	ListID  string `mapstructure:"list_id"`
	BaseURL string `mapstructure:"base_url"`
}

// GitHubSettings configures the GitHub connector. When AppID is set the
// connector authenticates as a GitHub App; otherwise Token is used as a
// personal access token.
type GitHubSettings struct {
	Token          string `mapstructure:"token"`
	AppID          string `mapstructure:"app_id"`
	InstallationID string `mapstructure:"installation_id"`
	// PrivateKey is the app signing key in PEM form; accepts secretref:
	// values, typically secretref:file:github/app.pem.
	PrivateKey string `mapstructure:"private_key"`
	Owner      string `mapstructure:"owner"`
	Repo       string `mapstructure:"repo"`
	BaseURL    string `mapstructure:"base_url"`
}

// GoogleTasksSettings configures the Google Tasks connector. When Email
// is set tokens are minted via the service account JWT-bearer grant;
// otherwise Token is used as a static access token.
type GoogleTasksSettings struct {
	Token string `mapstructure:"token"`
	Email string `mapstructure:"email"`
	// PrivateKey is the service account signing key in PEM form; accepts
	// secretref: values.
	PrivateKey string `mapstructure:"private_key"`
	TasklistID string `mapstructure:"tasklist_id"`
	BaseURL    string `mapstructure:"base_url"`
}

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmint/mintops/cache"
	"github.com/taskmint/mintops/export"
	"github.com/taskmint/mintops/health"
	"github.com/taskmint/mintops/llm"
	"github.com/taskmint/mintops/observe"
	"github.com/taskmint/mintops/resilience"
)

// Runtime holds the components Bootstrap wires together.
type Runtime struct {
	Config   *Config
	Observer observe.Observer
	Metrics  observe.Metrics

	// Middleware wraps outbound calls with span, metrics and log.
	Middleware *observe.Middleware

	Registry *resilience.Registry
	Manager  *resilience.Manager

	// LLM is the completion service, memoized when caching is enabled.
	// Nil when no API key is configured.
	LLM llm.CompletionService

	// Connectors maps provider name to connector for every configured
	// export destination.
	Connectors map[string]export.Connector

	Health *health.Aggregator

	policy func(resource string) resilience.Config
}

// Policy returns the resilience policy for a resource with the breaker
// transition hook attached.
func (r *Runtime) Policy(resource string) resilience.Config {
	return r.policy(resource)
}

// Shutdown flushes telemetry. Call it on process exit.
func (r *Runtime) Shutdown(ctx context.Context) error {
	return r.Observer.Shutdown(ctx)
}

// Bootstrap wires a loaded Config into running components. Everything is
// constructed here, at startup: failures surface immediately instead of
// on the first request that happens to need a component.
func Bootstrap(ctx context.Context, cfg *Config) (*Runtime, error) {
	obs, err := observe.NewObserver(ctx, cfg.ObserveConfig())
	if err != nil {
		return nil, fmt.Errorf("config: observer: %w", err)
	}
	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return nil, fmt.Errorf("config: metrics: %w", err)
	}
	logger := obs.Logger()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, fmt.Errorf("config: middleware: %w", err)
	}

	registry := resilience.NewRegistry()
	manager := resilience.NewManager(registry)

	// Every breaker transition is logged and counted. The hook runs under
	// the breaker lock, so it must not call back into the breaker.
	onStateChange := func(name string, from, to resilience.State) {
		ctx := context.Background()
		metrics.RecordBreakerTransition(ctx, name, from.String(), to.String())
		logger.Warn(ctx, "circuit breaker state change",
			observe.Field{Key: "resource", Value: name},
			observe.Field{Key: "from", Value: from.String()},
			observe.Field{Key: "to", Value: to.String()},
		)
	}
	policy := func(resource string) resilience.Config {
		p := cfg.Policy(resource)
		if p.CircuitBreaker != nil {
			p.CircuitBreaker.OnStateChange = onStateChange
		}
		if p.Retry != nil {
			meta := observe.CallMeta{Resource: resource}
			p.Retry.OnRetry = func(attempt int, err error, delay time.Duration) {
				metrics.RecordRetry(context.Background(), meta, attempt)
			}
		}
		return p
	}

	// Pre-register a breaker per known resource. The first configuration
	// seen for a name wins, so registering here guarantees the transition
	// hook fires even when a later caller passes a hookless policy.
	seed := func(resource string) {
		if p := policy(resource); p.CircuitBreaker != nil {
			registry.GetOrCreate(resource, *p.CircuitBreaker)
		}
	}
	for resource := range Defaults() {
		seed(resource)
	}
	for resource := range cfg.Services {
		seed(resource)
	}

	rt := &Runtime{
		Config:     cfg,
		Observer:   obs,
		Metrics:    metrics,
		Middleware: mw,
		Registry:   registry,
		Manager:    manager,
		Connectors: make(map[string]export.Connector),
		policy:     policy,
	}

	if cfg.LLM.APIKey != "" {
		resource := cfg.LLM.Resource
		if resource == "" {
			resource = llm.DefaultResource
		}
		client, err := llm.NewClient(llm.ClientConfig{
			BaseURL:    cfg.LLM.BaseURL,
			APIKey:     cfg.LLM.APIKey,
			Model:      cfg.LLM.Model,
			Resilience: manager,
			Policy:     policy(resource),
			Resource:   resource,
		})
		if err != nil {
			return nil, fmt.Errorf("config: llm client: %w", err)
		}
		rt.LLM = client

		if pol := cfg.Cache.Policy(); pol.ShouldCache() {
			var memoCache *cache.Cache[*llm.CompletionResponse]
			if cfg.Cache.MaxSize > 0 {
				memoCache = cache.New[*llm.CompletionResponse](cache.Options[*llm.CompletionResponse]{
					TTL:     pol.EffectiveTTL(0),
					MaxSize: cfg.Cache.MaxSize,
				})
			}
			rt.LLM = llm.NewMemoizer(client, llm.MemoizerConfig{
				Cache:  memoCache,
				Policy: pol,
				OnAccess: func(ctx context.Context, hit bool) {
					metrics.RecordCacheAccess(ctx, "completions", hit)
				},
			})
		}
	}

	if err := wireConnectors(cfg, manager, policy, rt); err != nil {
		return nil, err
	}

	agg := health.NewAggregator()
	agg.Register("circuit_breakers", health.NewBreakerChecker(registry))
	rt.Health = agg

	return rt, nil
}

func wireConnectors(cfg *Config, manager *resilience.Manager, policy func(string) resilience.Config, rt *Runtime) error {
	if n := cfg.Export.Notion; n != nil {
		c, err := export.NewNotion(export.NotionConfig{
			Token:      export.StaticTokenSource(n.Token),
			DatabaseID: n.DatabaseID,
			BaseURL:    n.BaseURL,
			Resilience: manager,
			Policy:     policy("notion"),
		})
		if err != nil {
			return fmt.Errorf("config: notion connector: %w", err)
		}
		rt.Connectors[c.Name()] = c
	}

	if t := cfg.Export.Trello; t != nil {
		c, err := export.NewTrello(export.TrelloConfig{
			Key:        t.Key,
			Token:      export.StaticTokenSource(t.Token),
			ListID:     t.ListID,
			BaseURL:    t.BaseURL,
			Resilience: manager,
			Policy:     policy("trello"),
		})
		if err != nil {
			return fmt.Errorf("config: trello connector: %w", err)
		}
		rt.Connectors[c.Name()] = c
	}

	if g := cfg.Export.GitHub; g != nil {
		var token export.TokenSource
		if g.AppID != "" {
			src, err := export.NewAppTokenSource(export.AppTokenConfig{
				AppID:          g.AppID,
				InstallationID: g.InstallationID,
				PrivateKeyPEM:  []byte(g.PrivateKey),
				BaseURL:        g.BaseURL,
			})
			if err != nil {
				return fmt.Errorf("config: github app token source: %w", err)
			}
			token = src
		} else {
			token = export.StaticTokenSource(g.Token)
		}
		c, err := export.NewGitHub(export.GitHubConfig{
			Token:      token,
			Owner:      g.Owner,
			Repo:       g.Repo,
			BaseURL:    g.BaseURL,
			Resilience: manager,
			Policy:     policy("github"),
		})
		if err != nil {
			return fmt.Errorf("config: github connector: %w", err)
		}
		rt.Connectors[c.Name()] = c
	}

	if g := cfg.Export.GoogleTasks; g != nil {
		var token export.TokenSource
		if g.Email != "" {
			src, err := export.NewServiceAccountTokenSource(export.ServiceAccountConfig{
				Email:         g.Email,
				PrivateKeyPEM: []byte(g.PrivateKey),
			})
			if err != nil {
				return fmt.Errorf("config: google service account: %w", err)
			}
			token = src
		} else {
			token = export.StaticTokenSource(g.Token)
		}
		c, err := export.NewGoogleTasks(export.GoogleTasksConfig{
			Token:      token,
			TasklistID: g.TasklistID,
			BaseURL:    g.BaseURL,
			Resilience: manager,
			Policy:     policy("gtasks"),
		})
		if err != nil {
			return fmt.Errorf("config: google tasks connector: %w", err)
		}
		rt.Connectors[c.Name()] = c
	}

	return nil
}

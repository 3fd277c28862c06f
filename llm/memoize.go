package llm

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/taskmint/mintops/cache"
)

// DefaultCacheSize bounds the memoization cache when none is supplied.
const DefaultCacheSize = 512

// DefaultScope namespaces memoization keys.
const DefaultScope = "completion"

// MemoizerConfig configures a Memoizer.
type MemoizerConfig struct {
	// Cache holds completed responses. If nil, one is created sized
	// DefaultCacheSize with the policy's effective TTL.
	Cache *cache.Cache[*CompletionResponse]

	// Keyer derives cache keys from requests.
	// If nil, cache.NewDefaultKeyer() is used.
	Keyer cache.Keyer

	// Policy decides which requests are memoized and for how long.
	// The zero value (cache.NoCachePolicy) disables memoization.
	Policy cache.Policy

	// Scope namespaces keys. Default: DefaultScope
	Scope string

	// OnAccess is called after each cache lookup with the outcome.
	// Requests the policy excludes never reach the cache and are not
	// reported.
	OnAccess func(ctx context.Context, hit bool)
}

// Memoizer caches completion responses around an inner service.
//
// The cache is consulted before the inner call and populated after a
// success; errors are never stored. Concurrent identical requests
// collapse into a single upstream call, with every waiter sharing its
// outcome. Sampled requests bypass the cache unless the policy allows
// them.
type Memoizer struct {
	service  CompletionService
	cache    *cache.Cache[*CompletionResponse]
	keyer    cache.Keyer
	policy   cache.Policy
	scope    string
	onAccess func(ctx context.Context, hit bool)
	group    singleflight.Group
}

// NewMemoizer wraps service with memoization.
func NewMemoizer(service CompletionService, config MemoizerConfig) *Memoizer {
	if config.Keyer == nil {
		config.Keyer = cache.NewDefaultKeyer()
	}
	if config.Scope == "" {
		config.Scope = DefaultScope
	}
	if config.Cache == nil {
		config.Cache = cache.New[*CompletionResponse](cache.Options[*CompletionResponse]{
			TTL:     config.Policy.EffectiveTTL(0),
			MaxSize: DefaultCacheSize,
		})
	}

	return &Memoizer{
		service:  service,
		cache:    config.Cache,
		keyer:    config.Keyer,
		policy:   config.Policy,
		scope:    config.Scope,
		onAccess: config.OnAccess,
	}
}

// Complete serves the request from cache when possible, calling the
// inner service otherwise.
func (m *Memoizer) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if !m.policy.Memoizable(req.Sampled()) {
		return m.service.Complete(ctx, req)
	}

	key, err := m.keyer.Key(m.scope, req)
	if err != nil {
		// Unkeyable request, execute without caching
		return m.service.Complete(ctx, req)
	}

	resp, hit := m.cache.Get(key)
	if m.onAccess != nil {
		m.onAccess(ctx, hit)
	}
	if hit {
		return resp, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		resp, err := m.service.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		m.cache.Set(key, resp)
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CompletionResponse), nil
}

// Stats reports the underlying cache's counters.
func (m *Memoizer) Stats() cache.Stats {
	return m.cache.Stats()
}

// Ensure Memoizer implements CompletionService
var _ CompletionService = (*Memoizer)(nil)

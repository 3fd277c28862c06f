package cache

import "time"

// Policy configures memoization behavior.
type Policy struct {
	// DefaultTTL is the TTL to use when none is specified.
	// If zero, memoization is disabled by default.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration

	// AllowSampled permits memoizing sampled (nonzero temperature)
	// completions, whose outputs are not reproducible.
	AllowSampled bool
}

// DefaultPolicy returns the default memoization policy.
// DefaultTTL: 5 minutes, MaxTTL: 1 hour, AllowSampled: false
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL:   5 * time.Minute,
		MaxTTL:       1 * time.Hour,
		AllowSampled: false,
	}
}

// NoCachePolicy returns a policy that disables memoization entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if memoization is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// Memoizable reports whether a result may be stored under this policy.
// Sampled results are excluded unless AllowSampled is set.
func (p Policy) Memoizable(sampled bool) bool {
	if !p.ShouldCache() {
		return false
	}
	if sampled && !p.AllowSampled {
		return false
	}
	return true
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	// Use default if no override (or negative override)
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}

// Package cache provides an in-process TTL cache with approximate-LRU
// eviction and hit-rate accounting.
//
// The generic Cache keeps entries ordered by last touch, which makes
// expiry sweeps proportional to the number of expired entries. Alongside
// it live a deterministic SHA-256 Keyer for memoizing request payloads
// and a Policy describing when completion results may be memoized.
package cache

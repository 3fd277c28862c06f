package cache

import (
	"container/list"
	"sync"
	"time"
)

// Options configures a Cache.
type Options[V any] struct {
	// TTL is how long an entry remains valid after insertion.
	// Zero or negative means entries never expire.
	TTL time.Duration

	// MaxSize caps the number of entries. Zero means unbounded.
	MaxSize int

	// OnEvict is called when the cache itself removes an entry, either
	// because it expired or to make room at capacity. It does not fire
	// for Delete or Clear. The callback runs with the cache lock held
	// and must not call back into the cache.
	OnEvict func(key string, value V)
}

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

type entry[V any] struct {
	key        string
	value      V
	insertedAt time.Time
	hits       int
}

// Cache is an in-memory key/value store with TTL expiry and approximate-LRU
// eviction. It has no external dependencies and keeps all state in process.
//
// Every read moves the touched entry to the back of an internal list, so
// walking from the front visits entries in non-decreasing last-touch order.
// Expiry sweeps exploit that ordering: they stop at the first live entry,
// costing O(k) in the number of expired entries rather than O(n). An entry
// read after insertion can outlive its TTL at the back of the list; Get
// reaps those lazily on the next access.
//
// All methods are safe for concurrent use, but sequences of calls are not
// atomic: a key observed by Has may be gone by the time the caller issues
// the corresponding Get.
type Cache[V any] struct {
	mu     sync.Mutex
	opts   Options[V]
	ll     *list.List               // front = coldest touch, back = freshest
	index  map[string]*list.Element // key -> element holding *entry[V]
	hits   int64
	misses int64

	now func() time.Time
}

// New creates a cache with the given options.
func New[V any](opts Options[V]) *Cache[V] {
	return &Cache[V]{
		opts:  opts,
		ll:    list.New(),
		index: make(map[string]*list.Element),
		now:   time.Now,
	}
}

// Set stores value under key, replacing any existing entry. A replaced
// entry restarts its TTL with a zero hit count. When the cache is at
// capacity and key is new, one existing entry is evicted first.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)

	if el, ok := c.index[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.insertedAt = now
		e.hits = 0
		c.ll.MoveToBack(el)
		return
	}

	if c.opts.MaxSize > 0 && len(c.index) >= c.opts.MaxSize {
		c.evictLocked()
	}

	c.index[key] = c.ll.PushBack(&entry[V]{
		key:        key,
		value:      value,
		insertedAt: now,
	})
}

// Get returns the value stored under key. A missing or expired entry
// counts as a miss; expired entries are removed on the spot. A hit
// refreshes the entry's recency but not its TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.index[key]
	if !ok {
		c.misses++
		return zero, false
	}

	e := el.Value.(*entry[V])
	if c.expired(e, c.now()) {
		c.removeLocked(el, true)
		c.misses++
		return zero, false
	}

	c.ll.MoveToBack(el)
	e.hits++
	c.hits++
	return e.value, true
}

// Has reports whether key holds a live value. It is Get without the
// value, so it counts toward hit/miss stats and refreshes recency like
// any other read.
func (c *Cache[V]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key if present, reporting whether it was. OnEvict does
// not fire for explicit deletes.
func (c *Cache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		return false
	}
	c.removeLocked(el, false)
	return true
}

// Clear drops every entry without firing OnEvict. The hit/miss counters
// are kept; use ResetStats to zero them.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.index = make(map[string]*list.Element)
}

// Len returns the number of stored entries, including any that have
// expired but not yet been swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Stats returns a snapshot of the cache's counters. HitRate is
// hits/(hits+misses), or 0 before the first read.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:   len(c.index),
		Hits:   c.hits,
		Misses: c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// ResetStats zeroes the hit and miss counters. Entries are untouched.
func (c *Cache[V]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits = 0
	c.misses = 0
}

func (c *Cache[V]) expired(e *entry[V], now time.Time) bool {
	return c.opts.TTL > 0 && now.Sub(e.insertedAt) > c.opts.TTL
}

// sweepLocked removes expired entries from the cold end of the list,
// stopping at the first live one.
func (c *Cache[V]) sweepLocked(now time.Time) {
	for el := c.ll.Front(); el != nil; {
		next := el.Next()
		if !c.expired(el.Value.(*entry[V]), now) {
			return
		}
		c.removeLocked(el, true)
		el = next
	}
}

// evictLocked frees one slot. Scanning from the cold end, the first entry
// that was never read is taken; if every entry has been read, the least
// read one goes. This trades strict LRU for a cheap scan that usually
// stops at the first cold entry.
func (c *Cache[V]) evictLocked() {
	var victim *list.Element
	for el := c.ll.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry[V])
		if e.hits == 0 {
			victim = el
			break
		}
		if victim == nil || e.hits < victim.Value.(*entry[V]).hits {
			victim = el
		}
	}
	if victim != nil {
		c.removeLocked(victim, true)
	}
}

func (c *Cache[V]) removeLocked(el *list.Element, evicted bool) {
	e := el.Value.(*entry[V])
	c.ll.Remove(el)
	delete(c.index, e.key)
	if evicted && c.opts.OnEvict != nil {
		c.opts.OnEvict(e.key, e.value)
	}
}

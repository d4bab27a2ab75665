package filehub

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus cache metrics, shared by all cache instances in the process.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filehub_cache_hits_total",
		Help: "Total number of query cache hits.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filehub_cache_misses_total",
		Help: "Total number of query cache misses.",
	})
	cacheFetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filehub_cache_fetches_total",
		Help: "Total number of fetches issued by the query cache.",
	})
)

// Status describes the lifecycle state of a cache entry.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusStale:
		return "stale"
	default:
		return "unknown"
	}
}

// CacheEntry is the projection stored per cache key. Value survives a failed
// refresh so a transient error never blanks an already-populated view.
type CacheEntry[T any] struct {
	Status    Status
	Value     *T
	Err       *ErrorInfo
	FetchedAt time.Time
}

// FetchFunc loads the value for one cache key.
type FetchFunc[T any] func(ctx context.Context) (*T, error)

const (
	// DefaultCacheSize caps the number of distinct keys kept per cache.
	DefaultCacheSize = 128
	// DefaultCacheTTL is the idle period after which an entry may be
	// garbage-collected.
	DefaultCacheTTL = 5 * time.Minute
)

// Cache is a keyed query cache with in-flight request deduplication and
// key-scoped writes: a fetch resolution only ever updates the entry of the
// key that issued it, so late responses for superseded selections cannot
// clobber the currently observed key. Each session constructs its own
// instances; there is no shared global cache.
type Cache[T any] struct {
	mu       sync.Mutex
	entries  *expirable.LRU[string, *CacheEntry[T]]
	inflight map[string]struct{}
	updates  chan string
}

// NewCache creates a cache holding up to size entries, each collectable
// after ttl of idleness. Zero or negative arguments select the defaults.
func NewCache[T any](size int, ttl time.Duration) *Cache[T] {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache[T]{
		entries:  expirable.NewLRU[string, *CacheEntry[T]](size, nil, ttl),
		inflight: make(map[string]struct{}),
		updates:  make(chan string, 16),
	}
}

// Observe returns the current projection for key. When the entry is missing,
// stale or errored, a background fetch is started unless one is already
// outstanding for the same key; a second Observe during that window attaches
// to the outstanding request instead of issuing a duplicate call.
func (c *Cache[T]) Observe(ctx context.Context, key string, fetch FetchFunc[T]) CacheEntry[T] {
	c.mu.Lock()
	entry, ok := c.entries.Get(key)
	if ok && entry.Status == StatusSuccess {
		c.mu.Unlock()
		cacheHitsTotal.Inc()
		return *entry
	}
	cacheMissesTotal.Inc()

	var snapshot CacheEntry[T]
	if ok {
		snapshot = *entry
	} else {
		snapshot = CacheEntry[T]{Status: StatusPending}
		c.entries.Add(key, &CacheEntry[T]{Status: StatusPending})
	}

	if _, outstanding := c.inflight[key]; !outstanding && fetch != nil {
		c.inflight[key] = struct{}{}
		cacheFetchesTotal.Inc()
		go c.resolve(ctx, key, fetch)
	}
	c.mu.Unlock()
	return snapshot
}

// Peek returns the entry for key without triggering a fetch.
func (c *Cache[T]) Peek(key string) (CacheEntry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries.Peek(key)
	if !ok {
		return CacheEntry[T]{}, false
	}
	return *entry, true
}

func (c *Cache[T]) resolve(ctx context.Context, key string, fetch FetchFunc[T]) {
	value, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)

	prev, _ := c.entries.Get(key)
	next := &CacheEntry[T]{FetchedAt: time.Now()}
	if err != nil {
		next.Status = StatusError
		info := AsErrorInfo(normalizeError(err))
		next.Err = &info
		if prev != nil {
			// Keep the last good value for display-during-error.
			next.Value = prev.Value
			next.FetchedAt = prev.FetchedAt
		}
	} else {
		next.Status = StatusSuccess
		next.Value = value
	}
	c.entries.Add(key, next)
	c.notify(key)
}

// Invalidate marks every entry whose key matches as stale; the next Observe
// for a stale entry triggers an immediate re-fetch. A nil match invalidates
// everything. Invalidating an already-stale entry is a no-op, so repeated
// invalidation is idempotent.
func (c *Cache[T]) Invalidate(match func(key string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.entries.Keys() {
		if match != nil && !match(key) {
			continue
		}
		entry, ok := c.entries.Peek(key)
		if !ok || entry.Status == StatusStale {
			continue
		}
		marked := *entry
		marked.Status = StatusStale
		c.entries.Add(key, &marked)
		c.notify(key)
	}
}

// InvalidateAll marks every entry stale.
func (c *Cache[T]) InvalidateAll() {
	c.Invalidate(nil)
}

// Updates delivers the key of every entry that changed. Delivery is
// best-effort: a slow consumer drops notifications, never blocks the cache.
func (c *Cache[T]) Updates() <-chan string {
	return c.updates
}

// Len returns the number of cached keys.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

func (c *Cache[T]) notify(key string) {
	select {
	case c.updates <- key:
	default:
	}
}

package cache

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nkurubal/pecache/internal/singleflight"
	"github.com/nkurubal/pecache/internal/util"
)

// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
var ErrNoLoader = errors.New("cache: no Loader provided")

// cache wraps an Engine with one exclusive lock, a wall-clock (or injected)
// time source, metrics, and singleflight loading. The engine's back-pointer
// bookkeeping is not atomic, so every engine call is serialized here.
type cache[K comparable, V any] struct {
	mu     sync.Mutex
	eng    *Engine[K, V]
	opt    Options[K, V]
	closed atomic.Bool

	// singleflight group for coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group[K, V]

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

// New constructs a cache with the provided Options.
// Capacity must be > 0; nil Metrics defaults to NoopMetrics and a nil
// Clock defaults to time.Now().
func New[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	c := &cache[K, V]{
		eng: NewEngine[K, V](opt.Capacity), // panics if Capacity <= 0
		opt: opt,
	}
	c.eng.onEvict = func(k K, v V, reason EvictReason) {
		c.evicts.Add(1)
		c.opt.Metrics.Evict(reason)
		if cb := c.opt.OnEvict; cb != nil {
			// Called under the cache lock; keep callbacks lightweight.
			cb(k, v, reason)
		}
	}
	return c
}

// ---- Cache[K,V] implementation ----

// Get returns the value for k; a hit promotes the entry to MRU within its
// priority bucket.
func (c *cache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	now := c.now()

	c.mu.Lock()
	v, ok := c.eng.Get(k, now)
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
		c.opt.Metrics.Hit()
	} else {
		c.misses.Add(1)
		c.opt.Metrics.Miss()
	}
	return v, ok
}

// Set inserts or updates k→v at the given priority using DefaultTTL.
func (c *cache[K, V]) Set(k K, v V, priority int) {
	c.SetWithTTL(k, v, priority, c.opt.DefaultTTL)
}

// SetWithTTL inserts or updates k→v with a per-key TTL.
// A non-positive ttl disables expiration for this entry.
func (c *cache[K, V]) SetWithTTL(k K, v V, priority int, ttl time.Duration) {
	if c.closed.Load() {
		return
	}
	now := c.now()

	c.mu.Lock()
	c.eng.Set(k, v, priority, ttlUnits(ttl), now)
	c.opt.Metrics.Size(c.eng.Len(), c.eng.Cap())
	c.mu.Unlock()
}

// Remove deletes k if present and returns true on success.
func (c *cache[K, V]) Remove(k K) bool {
	if c.closed.Load() {
		return false
	}
	c.mu.Lock()
	ok := c.eng.Remove(k)
	c.opt.Metrics.Size(c.eng.Len(), c.eng.Cap())
	c.mu.Unlock()
	return ok
}

// Keys returns every resident key, expired-but-unreclaimed ones included.
func (c *cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.Keys()
}

// Len returns the number of resident entries.
func (c *cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.Len()
}

// Resize changes the capacity, evicting surplus entries in policy order.
func (c *cache[K, V]) Resize(newCapacity int) {
	if c.closed.Load() {
		return
	}
	now := c.now()

	c.mu.Lock()
	c.eng.Resize(newCapacity, now)
	c.opt.Metrics.Size(c.eng.Len(), c.eng.Cap())
	c.mu.Unlock()
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key (singleflight). Loaded
// values are stored with DefaultPriority and DefaultTTL.
func (c *cache[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	// fast path
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	return c.sf.Do(ctx, k, func() (V, error) {
		// double-check after flight join
		if v, ok := c.Get(k); ok {
			return v, nil
		}
		v, err := c.opt.Loader(ctx, k)
		if err == nil {
			c.Set(k, v, c.opt.DefaultPriority)
		}
		return v, err
	})
}

// Stats returns a snapshot of lifetime counters.
func (c *cache[K, V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
	}
}

// Close marks the cache as closed. Future operations are ignored.
func (c *cache[K, V]) Close() error {
	c.closed.Store(true)
	return nil
}

// ---- helpers ----

func (c *cache[K, V]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// ttlUnits converts a duration TTL to the engine's relative time units.
// A non-positive ttl maps to MaxInt64; the engine saturates the deadline,
// which pins "no expiration" entries to the far end of the expiry heap.
func ttlUnits(ttl time.Duration) int64 {
	if ttl <= 0 {
		return math.MaxInt64
	}
	return int64(ttl)
}

package cache

import (
	"context"
	"time"
)

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictExpired — the entry's deadline had passed; expiry-driven
	// eviction ignores priority entirely.
	EvictExpired EvictReason = iota
	// EvictPriority — the entry was the LRU slot of the lowest-priority
	// bucket when space was needed.
	EvictPriority
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries, capacity int)
}

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache behavior. Zero values are safe;
// sane defaults are applied in New():
//   - nil Metrics => NoopMetrics
//   - nil Clock   => time.Now()
type Options[K comparable, V any] struct {
	// Capacity is the entry count limit (must be > 0).
	Capacity int

	// DefaultTTL applies to Set and to values stored by GetOrLoad.
	// A non-positive TTL means the entry never expires.
	DefaultTTL time.Duration

	// DefaultPriority is used by GetOrLoad for loaded values
	// (lower = less important = evicted sooner).
	DefaultPriority int

	// Loader fetches a value on cache miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	// OnEvict is called for every expiry- or priority-driven eviction,
	// under the cache lock; keep callbacks lightweight. Explicit Remove
	// does not fire it.
	OnEvict func(k K, v V, reason EvictReason)

	Metrics Metrics

	// Clock allows overriding the time source (tests). Nil => time.Now().
	Clock Clock
}

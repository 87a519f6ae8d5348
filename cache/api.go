package cache

import (
	"context"
	"time"
)

// Cache is a locked, in-memory priority/expiry key-value cache interface.
// All methods are safe for concurrent use by multiple goroutines; every
// call is serialized on one exclusive lock per cache instance.
//
// Get is amortized O(1); Set, Remove and eviction are O(log n).
type Cache[K comparable, V any] interface {
	// Get returns the value for k and a boolean flag indicating presence.
	// An entry past its deadline is a miss regardless of its priority.
	// On hit, the entry becomes MRU within its priority bucket.
	Get(k K) (V, bool)

	// Set inserts or updates k→v at the given priority (lower = evicted
	// sooner), using the cache's DefaultTTL (if any). The entry becomes
	// MRU even when the priority is unchanged.
	Set(k K, v V, priority int)

	// SetWithTTL is Set with a per-key TTL (relative duration).
	// A non-positive ttl disables expiration for this entry.
	SetWithTTL(k K, v V, priority int, ttl time.Duration)

	// Remove deletes k if present and returns true on success.
	Remove(k K) bool

	// Keys returns every resident key, including entries that have
	// expired but not yet been reclaimed. Call Get to tell them apart.
	Keys() []K

	// Len returns the number of resident entries.
	Len() int

	// Resize changes the capacity, evicting surplus entries in policy
	// order (expired first, then lowest priority, LRU within a priority).
	Resize(newCapacity int)

	// GetOrLoad returns the value for k, loading it via Options.Loader on
	// miss. Concurrent loads for the same key are coalesced
	// (singleflight). If no Loader was configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, k K) (V, error)

	// Stats returns a snapshot of lifetime hit/miss/eviction counters.
	Stats() Stats

	// Close marks the cache closed. Future operations are ignored.
	Close() error
}

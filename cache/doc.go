// Package cache provides a fixed-capacity in-memory key/value cache that
// combines three eviction signals: per-entry expiration time, an explicit
// numeric priority class, and recency (LRU) within a priority class.
// Important data outlives unimportant data under memory pressure, but
// expired data is never returned regardless of priority.
//
// # Design
//
//   - Storage: a fixed pool of reusable slots. Occupied slots are linked
//     into intrusive MRU↔LRU lists, one list per distinct priority value
//     (a "priority bucket"); free slots wait in a pool and are recycled
//     forever, never freed individually.
//
//   - Indexing: a key→slot map gives O(1) Get. Two indexed min-heaps — one
//     over buckets keyed by priority, one over occupied slots keyed by
//     deadline — support O(log n) deletion of arbitrary elements via
//     back-pointers maintained on the slots and buckets themselves.
//
//   - Eviction: invoked only when space is needed. Strict order: if the
//     earliest deadline in the expiry heap has passed, that exact slot is
//     evicted (priority is ignored — returning expired data is never
//     correct). Otherwise the LRU slot of the minimum-priority bucket goes.
//     Set never evicts more than the single slot it needs.
//
//   - Expiration is lazy: a Get on an expired entry reports a miss but
//     leaves the entry resident until an eviction or overwrite reclaims
//     it. Keys() therefore may include expired entries.
//
//   - Time: the core Engine never reads a wall clock. Every time-sensitive
//     call takes a caller-supplied logical now, compared against stored
//     deadlines. The Cache wrapper supplies time via the Clock option
//     (time.Now by default), which keeps TTL tests deterministic.
//
//   - Concurrency: Engine is single-threaded by design; its back-pointer
//     bookkeeping is not atomic. The Cache returned by New serializes
//     every call on one exclusive lock per instance.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals.
//     By default NoopMetrics is used; plug the Prometheus adapter from
//     metrics/prom to export them.
//
// # Basic usage
//
//	c := cache.New[string, string](cache.Options[string, string]{Capacity: 1024})
//	c.Set("a", "1", 5) // priority 5
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//
// # With TTL
//
//	c.SetWithTTL("tmp", "v", 10, 200*time.Millisecond)
//	time.Sleep(300 * time.Millisecond)
//	_, ok := c.Get("tmp") // ok == false (expired, even at high priority)
//
// # Embedding the engine directly
//
// Single-threaded hosts that want full control over time can use Engine
// with explicit logical timestamps:
//
//	e := cache.NewEngine[string, int](3)
//	e.Set("a", 1, 5, 100, 0) // key, value, priority, ttl, now
//	v, ok := e.Get("a", 4)
//
// See Options for all configuration fields.
package cache

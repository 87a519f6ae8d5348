package cache

import (
	"math"

	"github.com/nkurubal/pecache/internal/minheap"
)

// Engine is the single-threaded priority/expiry cache core.
//
// Four structures are kept mutually consistent across every mutation: a
// key index (O(1) lookup), a priority index over buckets, a min-heap of
// buckets ordered by priority, and a min-heap of occupied slots ordered by
// expiration deadline. Eviction consults the expiry heap first, then the
// priority heap: expired data goes before any live data regardless of
// priority; among live data the lowest priority is shed first, LRU within
// that priority.
//
// Time never comes from a wall clock. Every time-sensitive call takes a
// caller-supplied logical now, compared against stored deadlines. Expired
// entries are reclaimed lazily: a Get reports a miss but leaves the entry
// resident until an eviction or overwrite claims it.
//
// Engine is not safe for concurrent use; see New for a locked wrapper.
type Engine[K comparable, V any] struct {
	capacity int
	size     int

	// Slots not bound to any key. Allocated up front, recycled forever.
	free []*slot[K, V]

	byKey   map[K]*slot[K, V]
	buckets map[int]*bucket[K, V]

	// byPriority orders buckets by priority; byExpiry orders occupied
	// slots by deadline. Both support O(log n) arbitrary deletion via the
	// back-pointers on their payloads.
	byPriority *minheap.Heap[*bucket[K, V]]
	byExpiry   *minheap.Heap[*slot[K, V]]

	// onEvict is invoked for every policy- or expiry-driven eviction,
	// before the slot is recycled. Explicit Remove does not fire it.
	onEvict func(k K, v V, reason EvictReason)
}

// NewEngine constructs an engine with a fixed pool of capacity slots.
// Capacity must be positive.
func NewEngine[K comparable, V any](capacity int) *Engine[K, V] {
	if capacity <= 0 {
		panic("pecache: capacity must be > 0")
	}
	e := &Engine[K, V]{
		capacity:   capacity,
		free:       make([]*slot[K, V], 0, capacity),
		byKey:      make(map[K]*slot[K, V], capacity),
		buckets:    make(map[int]*bucket[K, V]),
		byPriority: minheap.New[*bucket[K, V]](8),
		byExpiry:   minheap.New[*slot[K, V]](capacity),
	}
	for i := 0; i < capacity; i++ {
		e.free = append(e.free, &slot[K, V]{heapIndex: -1})
	}
	return e
}

// Get returns the value bound to key, or ok=false on a miss. An entry whose
// deadline has passed (expireAt < now) is a miss but stays resident — lazy
// expiration is load-bearing for the expiry-first eviction order. A hit
// promotes the entry to MRU within its priority bucket in O(1).
func (e *Engine[K, V]) Get(key K, now int64) (V, bool) {
	s, ok := e.byKey[key]
	if !ok || s.expireAt < now {
		var zero V
		return zero, false
	}
	e.buckets[s.priority].moveToFront(s)
	return s.value, true
}

// Set binds key to value with the given priority and a deadline of now+ttl
// (saturating). Updating an existing key rewrites the slot in place, moves
// it to the bucket for the new priority, and refreshes its expiry-heap
// entry; the entry always becomes MRU, even if the priority is unchanged.
// Inserting into a full cache evicts exactly one slot first.
func (e *Engine[K, V]) Set(key K, value V, priority int, ttl int64, now int64) {
	expireAt := deadline(now, ttl)

	if s, ok := e.byKey[key]; ok {
		e.unlink(s)
		e.dropExpiry(s)
		s.value = value
		s.priority = priority
		s.expireAt = expireAt
		e.link(s)
		e.byExpiry.Push(expireAt, s)
		return
	}

	if len(e.free) == 0 {
		e.evictOne(now)
	}
	s := e.free[len(e.free)-1]
	e.free = e.free[:len(e.free)-1]
	s.key = key
	s.value = value
	s.priority = priority
	s.expireAt = expireAt
	e.link(s)
	e.byKey[key] = s
	e.byExpiry.Push(expireAt, s)
}

// Remove deletes key if present and recycles its slot. Returns true if the
// key existed. Explicit removal is not counted as an eviction.
func (e *Engine[K, V]) Remove(key K) bool {
	s, ok := e.byKey[key]
	if !ok {
		return false
	}
	e.unlink(s)
	e.dropExpiry(s)
	e.release(s)
	return true
}

// Resize changes the slot pool to newCapacity. Shrinking below the current
// occupancy applies the eviction policy once per surplus entry; growing
// allocates fresh free slots up to newCapacity - size.
func (e *Engine[K, V]) Resize(newCapacity int, now int64) {
	if newCapacity <= 0 {
		panic("pecache: capacity must be > 0")
	}
	switch {
	case e.size > newCapacity:
		for e.size > newCapacity {
			e.evictOne(now)
		}
		e.truncateFree(0)
	case e.size == newCapacity:
		e.truncateFree(0)
	default:
		want := newCapacity - e.size
		if len(e.free) > want {
			e.truncateFree(want)
		}
		for len(e.free) < want {
			e.free = append(e.free, &slot[K, V]{heapIndex: -1})
		}
	}
	e.capacity = newCapacity
}

// Keys returns every indexed key, including entries that have expired but
// not yet been reclaimed. Order is unspecified.
func (e *Engine[K, V]) Keys() []K {
	keys := make([]K, 0, len(e.byKey))
	for k := range e.byKey {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of occupied slots (expired-but-resident included).
func (e *Engine[K, V]) Len() int { return e.size }

// Cap returns the current target slot count.
func (e *Engine[K, V]) Cap() int { return e.capacity }

// -------------------- internals --------------------

// deadline converts a relative ttl into an absolute expiration time,
// saturating at MaxInt64 instead of wrapping.
func deadline(now, ttl int64) int64 {
	d := now + ttl
	if ttl > 0 && d < now {
		return math.MaxInt64
	}
	return d
}

// link places s at the MRU position of the bucket for s.priority, creating
// the bucket (and registering it in the priority heap) on first insert.
func (e *Engine[K, V]) link(s *slot[K, V]) {
	b := e.buckets[s.priority]
	if b == nil {
		b = newBucket[K, V](s.priority)
		e.buckets[s.priority] = b
		e.byPriority.Push(int64(s.priority), b)
	}
	b.pushFront(s)
	e.size++
}

// unlink detaches s from its bucket, destroying the bucket the instant it
// empties. A missing or empty bucket here means the indices disagree with
// the lists; that is a bug in the engine, not bad input.
func (e *Engine[K, V]) unlink(s *slot[K, V]) {
	b := e.buckets[s.priority]
	if b == nil || b.size == 0 {
		panic("pecache: internal: unlink from missing or empty priority bucket")
	}
	b.remove(s)
	e.size--
	if b.size == 0 {
		if !e.byPriority.Delete(b.heapIndex) {
			panic("pecache: internal: stale priority-heap back-pointer")
		}
		delete(e.buckets, b.priority)
	}
}

// dropExpiry removes s from the expiry heap via its back-pointer.
func (e *Engine[K, V]) dropExpiry(s *slot[K, V]) {
	if !e.byExpiry.Delete(s.heapIndex) {
		panic("pecache: internal: stale expiry-heap back-pointer")
	}
}

// evictOne reclaims exactly one occupied slot, strictly in policy order:
// the earliest-expiring slot if its deadline has passed, otherwise the LRU
// slot of the minimum-priority bucket.
func (e *Engine[K, V]) evictOne(now int64) {
	if exp, s, ok := e.byExpiry.Peek(); ok && exp < now {
		e.byExpiry.Pop()
		e.unlink(s)
		e.notifyEvict(s, EvictExpired)
		e.release(s)
		return
	}
	_, b, ok := e.byPriority.Peek()
	if !ok {
		panic("pecache: internal: eviction requested but no slot is occupied")
	}
	e.evictTail(b)
}

// evictTail evicts the least-recently-used slot of b.
func (e *Engine[K, V]) evictTail(b *bucket[K, V]) {
	victim := b.back()
	if victim == nil {
		panic("pecache: internal: eviction from an empty priority bucket")
	}
	e.unlink(victim)
	e.dropExpiry(victim)
	e.notifyEvict(victim, EvictPriority)
	e.release(victim)
}

func (e *Engine[K, V]) notifyEvict(s *slot[K, V], reason EvictReason) {
	if e.onEvict != nil {
		e.onEvict(s.key, s.value, reason)
	}
}

// release drops the key binding, scrubs the slot, and returns it to the
// free pool.
func (e *Engine[K, V]) release(s *slot[K, V]) {
	delete(e.byKey, s.key)
	var zeroK K
	var zeroV V
	s.key = zeroK
	s.value = zeroV
	s.heapIndex = -1
	e.free = append(e.free, s)
}

// truncateFree shortens the free pool to n slots, dropping references so
// the surplus can be collected.
func (e *Engine[K, V]) truncateFree(n int) {
	for len(e.free) > n {
		last := len(e.free) - 1
		e.free[last] = nil
		e.free = e.free[:last]
	}
}

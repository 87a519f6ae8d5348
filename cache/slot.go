package cache

// slot is one cache line: either bound to a key and linked into exactly one
// priority bucket, or resting in the engine's free pool with nil links.
// Slots are allocated at construction (or on capacity growth) and recycled
// forever; only their contents are overwritten on reuse.
type slot[K comparable, V any] struct {
	key      K
	value    V
	priority int

	// Absolute expiration deadline in the caller's logical time units.
	expireAt int64

	// Intrusive list links, owned by the bucket that currently holds the
	// slot. head side is MRU, tail side is LRU.
	prev *slot[K, V]
	next *slot[K, V]

	// Position of this slot in the engine's expiry heap, maintained by the
	// heap itself. -1 while the slot is free.
	heapIndex int
}

// SetIndex records the slot's current expiry-heap position (minheap.Item).
func (s *slot[K, V]) SetIndex(i int) { s.heapIndex = i }

// bucket groups the occupied slots sharing one priority value, ordered
// MRU (head side) to LRU (tail side). head and tail are sentinel slots that
// never enter the free pool or the expiry heap. A bucket exists in the
// engine's bucket index iff size > 0 iff it is present in the priority heap.
type bucket[K comparable, V any] struct {
	priority int
	head     *slot[K, V]
	tail     *slot[K, V]
	size     int

	// Position of this bucket in the engine's priority heap.
	heapIndex int
}

// SetIndex records the bucket's current priority-heap position (minheap.Item).
func (b *bucket[K, V]) SetIndex(i int) { b.heapIndex = i }

func newBucket[K comparable, V any](priority int) *bucket[K, V] {
	b := &bucket[K, V]{
		priority:  priority,
		head:      &slot[K, V]{heapIndex: -1},
		tail:      &slot[K, V]{heapIndex: -1},
		heapIndex: -1,
	}
	b.head.next = b.tail
	b.tail.prev = b.head
	return b
}

// pushFront splices s in right after the head sentinel (MRU position).
func (b *bucket[K, V]) pushFront(s *slot[K, V]) {
	s.next = b.head.next
	s.prev = b.head
	b.head.next.prev = s
	b.head.next = s
	b.size++
}

// remove splices s out of the list and clears its links.
func (b *bucket[K, V]) remove(s *slot[K, V]) {
	s.prev.next = s.next
	s.next.prev = s.prev
	s.prev, s.next = nil, nil
	b.size--
}

// moveToFront promotes s to MRU in O(1). Bucket membership is unchanged,
// so no heap traffic results.
func (b *bucket[K, V]) moveToFront(s *slot[K, V]) {
	if b.head.next == s {
		return
	}
	s.prev.next = s.next
	s.next.prev = s.prev
	s.next = b.head.next
	s.prev = b.head
	b.head.next.prev = s
	b.head.next = s
}

// back returns the LRU slot, or nil when the bucket is empty.
func (b *bucket[K, V]) back() *slot[K, V] {
	if b.size == 0 {
		return nil
	}
	return b.tail.prev
}

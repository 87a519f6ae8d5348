// Package minheap implements an indexed binary min-heap: a 0-indexed
// array-heap that additionally supports O(log n) deletion of an arbitrary
// element, not just the root.
//
// The trick is a back-pointer maintained on the stored item itself: after
// every relocation (push, swap, overwrite) the heap calls SetIndex with the
// item's new array position. Owners record that position and can later call
// Delete(i) directly, skipping the O(n) search a textbook heap would need.
package minheap

// Item is an element stored in a Heap. SetIndex is invoked by the heap
// every time the item moves to a new array position, including the initial
// Push. Implementations typically store the index in a plain int field.
type Item interface {
	SetIndex(i int)
}

type entry[T Item] struct {
	key  int64
	item T
}

// Heap is a 0-indexed binary min-heap ordered by an int64 key.
// Equal keys are not further ordered; their relative order is unspecified.
// The zero value is ready to use.
type Heap[T Item] struct {
	entries []entry[T]
}

// New returns a heap with room for capacity entries preallocated.
func New[T Item](capacity int) *Heap[T] {
	return &Heap[T]{entries: make([]entry[T], 0, capacity)}
}

// Len returns the number of entries.
func (h *Heap[T]) Len() int { return len(h.entries) }

// Peek returns the minimum entry without removing it.
// ok is false when the heap is empty.
func (h *Heap[T]) Peek() (key int64, item T, ok bool) {
	if len(h.entries) == 0 {
		var zero T
		return 0, zero, false
	}
	e := h.entries[0]
	return e.key, e.item, true
}

// Push inserts an item keyed by key in O(log n).
func (h *Heap[T]) Push(key int64, item T) {
	h.entries = append(h.entries, entry[T]{key: key, item: item})
	i := len(h.entries) - 1
	item.SetIndex(i)
	h.siftUp(i)
}

// Pop removes and returns the minimum entry in O(log n).
// ok is false when the heap is empty.
func (h *Heap[T]) Pop() (key int64, item T, ok bool) {
	if len(h.entries) == 0 {
		var zero T
		return 0, zero, false
	}
	root := h.entries[0]
	last := len(h.entries) - 1
	if last > 0 {
		h.entries[0] = h.entries[last]
		h.entries[0].item.SetIndex(0)
	}
	h.entries = h.entries[:last]
	if last > 0 {
		h.siftDown(0)
	}
	return root.key, root.item, true
}

// Delete removes the entry currently at array position i in O(log n).
// It returns false when i is out of range (callers that track indices
// through SetIndex should treat that as a bookkeeping bug on their side).
//
// The removed slot is filled with the last array element; depending on how
// its key compares to the removed one, the filler is sifted up, sifted
// down, or left in place.
func (h *Heap[T]) Delete(i int) bool {
	n := len(h.entries)
	if i < 0 || i >= n {
		return false
	}
	last := n - 1
	if i == last {
		h.entries = h.entries[:last]
		return true
	}
	removed := h.entries[i].key
	h.entries[i] = h.entries[last]
	h.entries[i].item.SetIndex(i)
	h.entries = h.entries[:last]
	switch {
	case h.entries[i].key < removed:
		h.siftUp(i)
	case h.entries[i].key > removed:
		h.siftDown(i)
	}
	return true
}

// swap exchanges two entries and refreshes both back-pointers.
// Back-pointers must be correct after every single relocation, not just at
// operation boundaries: owners read them mid-operation to issue deletes.
func (h *Heap[T]) swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].item.SetIndex(i)
	h.entries[j].item.SetIndex(j)
}

func (h *Heap[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.entries[parent].key <= h.entries[i].key {
			return
		}
		h.swap(parent, i)
		i = parent
	}
}

func (h *Heap[T]) siftDown(i int) {
	n := len(h.entries)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		smallest := left
		if right := left + 1; right < n && h.entries[right].key < h.entries[left].key {
			smallest = right
		}
		if h.entries[i].key <= h.entries[smallest].key {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}

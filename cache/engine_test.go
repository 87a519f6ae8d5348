package cache

import (
	"math/rand"
	"sort"
	"testing"
)

func sortedKeys[K ~string, V any](e *Engine[K, V]) []string {
	ks := e.Keys()
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = string(k)
	}
	sort.Strings(out)
	return out
}

func wantKeys[K ~string, V any](t *testing.T, e *Engine[K, V], want ...string) {
	t.Helper()
	got := sortedKeys(e)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

// Expired entries are evicted before any live data, regardless of priority;
// among live data the lowest priority goes first.
func TestEngine_EvictionOrder(t *testing.T) {
	t.Parallel()

	e := NewEngine[string, int](3)
	e.Set("A", 1, 5, 100, 0)
	e.Set("B", 2, 15, 3, 0)
	e.Set("C", 3, 5, 10, 0)
	wantKeys(t, e, "A", "B", "C")

	// B expired (deadline 3 < now 4): evicted ahead of the lower-priority
	// live entries.
	e.Set("D", 4, 1, 20, 4)
	wantKeys(t, e, "A", "C", "D")

	// Cache full, nothing expired: D has the lowest priority (1).
	e.Set("E", 5, 20, 100, 5)
	wantKeys(t, e, "A", "C", "E")
}

// Within the lowest-priority bucket the least-recently-used slot is shed;
// a Get refreshes recency.
func TestEngine_LRUWithinPriority(t *testing.T) {
	t.Parallel()

	e := NewEngine[string, int](3)
	e.Set("A", 1, 5, 100, 0)
	e.Set("C", 3, 5, 10, 0)
	e.Set("E", 5, 20, 100, 0)

	if _, ok := e.Get("A", 6); !ok {
		t.Fatal("A must be a hit")
	}

	// Full, nothing expired. Lowest priority present is 5, shared by A and
	// C; A was just touched, so C is the LRU victim.
	e.Set("F", 6, 100, 2, 7)
	wantKeys(t, e, "A", "E", "F")
}

// Resize shrinks by applying the regular eviction policy once per surplus
// entry: expired first, then lowest priority, then LRU within a priority.
func TestEngine_ResizeEvictionOrder(t *testing.T) {
	t.Parallel()

	e := NewEngine[string, int](5)
	e.Set("A", 1, 5, 100, 0)
	e.Set("B", 2, 15, 3, 0)
	e.Set("C", 3, 5, 10, 0)
	e.Set("D", 4, 1, 15, 0)
	e.Set("E", 5, 5, 150, 0)
	if _, ok := e.Get("C", 0); !ok {
		t.Fatal("C must be a hit")
	}

	e.Resize(4, 5) // B expired (3 < 5)
	wantKeys(t, e, "A", "C", "D", "E")

	e.Resize(3, 5) // D has the lowest priority
	wantKeys(t, e, "A", "C", "E")

	e.Resize(2, 5) // LRU of shared priority 5 is A (C was touched)
	wantKeys(t, e, "C", "E")

	e.Resize(1, 5) // E is the remaining LRU at priority 5
	wantKeys(t, e, "C")

	if e.Cap() != 1 || e.Len() != 1 {
		t.Fatalf("cap=%d len=%d, want 1/1", e.Cap(), e.Len())
	}
}

// Growing the capacity allocates fresh slots: inserts up to the new
// capacity must succeed without evicting survivors.
func TestEngine_ResizeGrowAllocates(t *testing.T) {
	t.Parallel()

	e := NewEngine[string, int](2)
	e.Set("A", 1, 5, 100, 0)
	e.Set("B", 2, 5, 100, 0)

	e.Resize(4, 0)
	e.Set("C", 3, 5, 100, 1)
	e.Set("D", 4, 5, 100, 1)
	wantKeys(t, e, "A", "B", "C", "D")
	if e.Len() != 4 || e.Cap() != 4 {
		t.Fatalf("len=%d cap=%d, want 4/4", e.Len(), e.Cap())
	}

	// Shrinking the free pool only (occupancy untouched).
	e.Resize(6, 1)
	e.Resize(5, 1)
	wantKeys(t, e, "A", "B", "C", "D")
}

// An entry past its deadline is a miss even as the highest-priority entry
// in the cache, and it is the first eviction victim.
func TestEngine_ExpiryDominance(t *testing.T) {
	t.Parallel()

	e := NewEngine[string, int](2)
	e.Set("low", 1, 1, 100, 0)
	e.Set("high", 2, 1000, 5, 0)

	if _, ok := e.Get("high", 10); ok {
		t.Fatal("expired entry must be a miss regardless of priority")
	}
	// Lazy expiration: the miss leaves the entry resident.
	wantKeys(t, e, "low", "high")

	e.Set("new", 3, 1, 100, 10)
	wantKeys(t, e, "low", "new")
}

// Two Gets in a row with non-decreasing now and no intervening Set return
// the same value; the second is a pure read plus recency bump.
func TestEngine_IdempotentReGet(t *testing.T) {
	t.Parallel()

	e := NewEngine[string, int](4)
	e.Set("k", 42, 7, 50, 0)

	v1, ok1 := e.Get("k", 1)
	v2, ok2 := e.Get("k", 2)
	if !ok1 || !ok2 || v1 != v2 || v1 != 42 {
		t.Fatalf("gets disagree: (%d,%v) then (%d,%v)", v1, ok1, v2, ok2)
	}
}

// Updating an existing key rewrites the slot in place: size stays flat, the
// entry becomes MRU, and the new priority takes effect.
func TestEngine_SetUpdatesInPlace(t *testing.T) {
	t.Parallel()

	e := NewEngine[string, int](2)
	e.Set("A", 1, 5, 100, 0)
	e.Set("B", 2, 5, 100, 1) // MRU of bucket 5 is now B

	e.Set("A", 10, 5, 100, 2) // update: A becomes MRU again
	if e.Len() != 2 {
		t.Fatalf("len=%d, want 2 after update", e.Len())
	}
	if v, ok := e.Get("A", 3); !ok || v != 10 {
		t.Fatalf("A = (%d,%v), want (10,true)", v, ok)
	}

	// B has been LRU since t=1, so it is the victim.
	e.Set("C", 3, 5, 100, 4)
	wantKeys(t, e, "A", "C")
}

// A priority change moves the slot between buckets, destroying the old
// bucket when it empties.
func TestEngine_SetChangesPriority(t *testing.T) {
	t.Parallel()

	e := NewEngine[string, int](2)
	e.Set("A", 1, 5, 100, 0)
	e.Set("B", 2, 7, 100, 0)

	e.Set("A", 1, 9, 100, 1) // bucket 5 empties and is destroyed

	// Full, nothing expired: lowest priority is now 7 (B).
	e.Set("C", 3, 8, 100, 2)
	wantKeys(t, e, "A", "C")
}

// Updating a key's TTL replaces its expiry-heap entry.
func TestEngine_SetRefreshesDeadline(t *testing.T) {
	t.Parallel()

	e := NewEngine[string, int](2)
	e.Set("A", 1, 10, 5, 0)  // would expire at 5
	e.Set("B", 2, 1, 100, 0) // low priority, long TTL

	e.Set("A", 1, 10, 100, 1) // extend A to deadline 101

	// At now=10 nothing is expired anymore, so the lowest-priority entry
	// (B) is the victim, not A.
	e.Set("C", 3, 5, 100, 10)
	wantKeys(t, e, "A", "C")

	// The converse: shortening a TTL makes the entry expire on schedule.
	e.Set("A", 1, 10, 2, 10) // deadline 12
	e.Set("D", 4, 1, 100, 20)
	wantKeys(t, e, "C", "D")
}

func TestEngine_Remove(t *testing.T) {
	t.Parallel()

	e := NewEngine[string, int](2)
	e.Set("A", 1, 5, 100, 0)
	e.Set("B", 2, 5, 100, 0)

	if !e.Remove("A") {
		t.Fatal("Remove(A) must return true")
	}
	if e.Remove("A") {
		t.Fatal("second Remove(A) must return false")
	}
	if _, ok := e.Get("A", 1); ok {
		t.Fatal("A must be absent after Remove")
	}

	// The recycled slot is reused: inserting at full history needs no
	// eviction and B survives.
	e.Set("C", 3, 5, 100, 1)
	wantKeys(t, e, "B", "C")
}

// size <= capacity and size == |keys| across arbitrary operation sequences.
func TestEngine_CapacityInvariant(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(7))
	e := NewEngine[string, int](8)
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}

	now := int64(0)
	for i := 0; i < 5000; i++ {
		now += int64(r.Intn(3))
		k := keys[r.Intn(len(keys))]
		switch r.Intn(10) {
		case 0:
			e.Remove(k)
		case 1, 2, 3:
			e.Get(k, now)
		default:
			e.Set(k, i, r.Intn(5), int64(r.Intn(20)), now)
		}

		if e.Len() > e.Cap() {
			t.Fatalf("op %d: size %d exceeds capacity %d", i, e.Len(), e.Cap())
		}
		if got := len(e.Keys()); got != e.Len() {
			t.Fatalf("op %d: |keys|=%d, size=%d", i, got, e.Len())
		}
	}

	// Resizing through the sequence keeps the invariant too.
	for _, c := range []int{3, 1, 6, 2, 8} {
		e.Resize(c, now)
		if e.Len() > c {
			t.Fatalf("after Resize(%d): size %d", c, e.Len())
		}
	}
}

// A key maps to at most one live slot: re-setting never duplicates.
func TestEngine_KeyUniqueness(t *testing.T) {
	t.Parallel()

	e := NewEngine[string, int](4)
	for i := 0; i < 10; i++ {
		e.Set("k", i, i%3, 100, int64(i))
	}
	if e.Len() != 1 {
		t.Fatalf("len=%d, want 1", e.Len())
	}
	if v, ok := e.Get("k", 10); !ok || v != 9 {
		t.Fatalf("k = (%d,%v), want (9,true)", v, ok)
	}
}

func TestEngine_NonPositiveCapacityPanics(t *testing.T) {
	t.Parallel()

	for _, c := range []int{0, -1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("NewEngine(%d) must panic", c)
				}
			}()
			NewEngine[string, int](c)
		}()
	}

	e := NewEngine[string, int](1)
	defer func() {
		if recover() == nil {
			t.Fatal("Resize(0) must panic")
		}
	}()
	e.Resize(0, 0)
}

//go:build go1.18

package cache

import (
	"strings"
	"testing"
)

// Fuzz basic Set/Get/Remove semantics under arbitrary string inputs and
// priorities. Guards against panics and ensures core invariants hold.
// NOTE: We cap key/value lengths to avoid pathological memory usage
// during fuzzing (this does not weaken the invariants we check).
func FuzzCache_SetGetRemove(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings, priority extremes.
	f.Add("", "", 0)
	f.Add("a", "1", 5)
	f.Add("b", "2", -1)
	f.Add("αβγ", "δ", 1<<30)
	f.Add("emoji🙂", "🙂🙂", -(1 << 30))
	f.Add("long", strings.Repeat("x", 1024), 7)

	f.Fuzz(func(t *testing.T, k, v string, priority int) {
		// Cap lengths to keep memory bounded during fuzzing.
		const limit = 1 << 12 // 4096
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		c := New[string, string](Options[string, string]{Capacity: 16})
		t.Cleanup(func() { _ = c.Close() })

		// Set -> Get must return the same value.
		c.Set(k, v, priority)
		got, ok := c.Get(k)
		if !ok || got != v {
			t.Fatalf("after Set/Get: want %q, got %q ok=%v", v, got, ok)
		}

		// Re-setting the key must update in place, not duplicate.
		c.Set(k, "other", priority)
		if c.Len() != 1 {
			t.Fatalf("Len=%d after re-set, want 1", c.Len())
		}
		if got2, ok := c.Get(k); !ok || got2 != "other" {
			t.Fatalf("after re-set: want %q, got %q ok=%v", "other", got2, ok)
		}

		// Remove must delete and return true once.
		if !c.Remove(k) {
			t.Fatalf("Remove must return true")
		}
		if c.Remove(k) {
			t.Fatalf("second Remove must return false")
		}
		if _, ok := c.Get(k); ok {
			t.Fatalf("key must be absent after Remove")
		}
	})
}

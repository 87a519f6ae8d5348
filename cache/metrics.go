package cache

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                       {}
func (NoopMetrics) Miss()                      {}
func (NoopMetrics) Evict(EvictReason)          {}
func (NoopMetrics) Size(entries, capacity int) {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}

// Stats is a point-in-time snapshot of the cache's lifetime counters.
// Counters are read without taking the cache lock.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions uint64
}

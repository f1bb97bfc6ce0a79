package resultcache

// Metrics receives cache instrumentation.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// Hit is called when a lookup finds a result;
	// failed is true for cached failures.
	Hit(failed bool)
	// Miss is called when a lookup finds nothing.
	Miss()
	// Evicted reports entries removed by an eviction pass.
	Evicted(count int)
	// Size reports the entry count after a mutation.
	Size(entries int)
}

type nopMetrics struct{}

func (nopMetrics) Hit(bool)    {}
func (nopMetrics) Miss()       {}
func (nopMetrics) Evicted(int) {}
func (nopMetrics) Size(int)    {}

// NopMetrics returns a [Metrics] that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

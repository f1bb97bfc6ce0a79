package disposal

// Metrics receives disposal ring instrumentation.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// Disposed is called when an object is placed in the ring.
	Disposed()
	// Forwarded is called when a custom disposer takes an object instead.
	Forwarded()
	// Released reports how many objects an advance released,
	// and how many remain pending.
	Released(released, pending int)
}

type nopMetrics struct{}

func (nopMetrics) Disposed()         {}
func (nopMetrics) Forwarded()        {}
func (nopMetrics) Released(int, int) {}

// NopMetrics returns a [Metrics] that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

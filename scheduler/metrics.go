package scheduler

import "time"

// Metrics receives scheduler instrumentation.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// Submitted is called for every accepted task.
	Submitted()
	// Discarded is called when a canceled task is dropped at selection.
	Discarded()
	// Ran records how long a selected task executed.
	Ran(elapsed time.Duration)
	// Backlog reports the queue depth after a selection.
	Backlog(depth int)
}

type nopMetrics struct{}

func (nopMetrics) Submitted()        {}
func (nopMetrics) Discarded()        {}
func (nopMetrics) Ran(time.Duration) {}
func (nopMetrics) Backlog(int)       {}

// NopMetrics returns a [Metrics] that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

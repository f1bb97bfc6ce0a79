// Package disposal delays the release of objects that may still be
// referenced by in-flight device work.
//
// A [Ring] holds a fixed number of slots. [Ring.Dispose] appends to the
// newest slot; [Ring.Advance], called once per cycle, releases the oldest
// slot and rotates it to the newest position. An object disposed during
// cycle K is therefore held for at least depth-1 further advances.
// The depth must exceed the deepest pipelining of the device; the ring
// does not observe device completion itself.
package disposal

import (
	"log/slog"
	"sync"

	"github.com/djdv/go-frameloop/internal/logging"
	"github.com/djdv/go-frameloop/internal/ring"
)

type (
	// Releaser is implemented by objects that hold resources
	// beyond their Go memory. Release is called once for every
	// time the object was disposed.
	Releaser interface {
		Release()
	}
	// Disposer takes ownership of disposed objects in place of the ring.
	Disposer func(object any)
	// Option configures a [Ring].
	Option func(*Ring)

	slot = ring.Ring[[]any]
	// Ring defers release of disposed objects by a fixed number of cycles.
	// Safe for concurrent use; construct with [New].
	Ring struct {
		log      *slog.Logger
		metrics  Metrics
		disposer Disposer
		oldest   *slot
		spare    []any
		depth    int
		pending  int
		mu       sync.Mutex
	}
)

// MinimumDepth defines the lowest depth supported by [New].
const MinimumDepth = 2

// WithLogger sets the ring's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ring) { r.log = logging.OrNop(logger) }
}

// WithMetrics sets the ring's instrumentation.
func WithMetrics(metrics Metrics) Option {
	return func(r *Ring) {
		if metrics != nil {
			r.metrics = metrics
		}
	}
}

// WithDisposer installs a custom disposer at construction.
// See [Ring.SetDisposer].
func WithDisposer(disposer Disposer) Option {
	return func(r *Ring) { r.disposer = disposer }
}

// New creates a [Ring] with depth slots.
// Depth must be at least [MinimumDepth].
func New(depth int, options ...Option) (*Ring, error) {
	if depth < MinimumDepth {
		return nil, minDepthError(depth)
	}
	r := &Ring{
		log:     logging.Nop(),
		metrics: nopMetrics{},
		oldest:  ring.New[[]any](depth),
		depth:   depth,
	}
	for _, apply := range options {
		apply(r)
	}
	return r, nil
}

// SetDisposer installs disposer. While one is installed, [Ring.Dispose]
// forwards every object to it and the ring never takes ownership.
// Objects already in the ring are unaffected.
// A nil disposer restores the ring's own retirement.
func (r *Ring) SetDisposer(disposer Disposer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposer = disposer
}

// Dispose places object in the newest slot, or forwards it
// to the installed [Disposer]. Nil objects are ignored.
// Disposing the same object twice holds it twice.
func (r *Ring) Dispose(object any) {
	if object == nil {
		return
	}
	r.mu.Lock()
	if disposer := r.disposer; disposer != nil {
		r.mu.Unlock()
		disposer(object)
		r.metrics.Forwarded()
		return
	}
	newest := r.oldest.Prev()
	newest.Value = append(newest.Value, object)
	r.pending++
	r.mu.Unlock()
	r.metrics.Disposed()
}

// Advance releases every object in the oldest slot and
// rotates that slot to the newest position.
// It returns the number of objects released.
func (r *Ring) Advance() int {
	r.mu.Lock()
	var (
		oldest   = r.oldest
		released = oldest.Value
	)
	oldest.Value, r.spare = r.spare, nil
	r.oldest = oldest.Next()
	r.pending -= len(released)
	pending := r.pending
	r.mu.Unlock()

	for _, object := range released {
		if releaser, ok := object.(Releaser); ok {
			releaser.Release()
		}
	}
	clear(released)
	if count := len(released); count > 0 {
		r.log.Debug("released deferred objects",
			slog.Int("released", count),
			slog.Int("pending", pending))
	}
	r.metrics.Released(len(released), pending)

	r.mu.Lock()
	if r.spare == nil {
		r.spare = released[:0]
	}
	r.mu.Unlock()
	return len(released)
}

// Flush advances through every slot, releasing all pending objects.
// It is intended for teardown, once the device is idle.
func (r *Ring) Flush() (released int) {
	for range r.depth {
		released += r.Advance()
	}
	return released
}

// Pending returns the number of objects awaiting release.
func (r *Ring) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Depth returns the number of slots.
func (r *Ring) Depth() int { return r.depth }

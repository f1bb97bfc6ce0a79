package resultcache

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/djdv/go-frameloop/internal/logging"
	"github.com/djdv/go-frameloop/tracker"
)

type (
	// Option configures a [Cache].
	Option  func(*options)
	options struct {
		log         *slog.Logger
		metrics     Metrics
		evictVisits int
	}
	record[Key comparable, Value any] struct {
		token  *tracker.Token[Key]
		result Result[Value]
	}
	// Cache maps keys to [Result]s.
	// Safe for concurrent use; construct with [New].
	Cache[Key comparable, Value any] struct {
		options
		index    map[Key]*record[Key, Value]
		recency  tracker.Tracker[Key]
		flight   singleflight.Group
		capacity int
		mu       sync.Mutex
	}
)

// DefaultEvictVisits is the number of cold entries
// a put may visit when the cache is at capacity.
const DefaultEvictVisits = 32

// WithLogger sets the cache's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.log = logging.OrNop(logger) }
}

// WithMetrics sets the cache's instrumentation.
func WithMetrics(metrics Metrics) Option {
	return func(o *options) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithEvictVisits bounds the eviction pass run by [Cache.Put]
// when the cache is at capacity. Values <= 0 are ignored.
func WithEvictVisits(visits int) Option {
	return func(o *options) {
		if visits > 0 {
			o.evictVisits = visits
		}
	}
}

// New creates a [Cache] holding about capacity results.
// A capacity <= 0 means unbounded.
func New[Key comparable, Value any](capacity int, opts ...Option) *Cache[Key, Value] {
	c := &Cache[Key, Value]{
		options: options{
			log:         logging.Nop(),
			metrics:     nopMetrics{},
			evictVisits: DefaultEvictVisits,
		},
		index:    make(map[Key]*record[Key, Value], max(capacity, 0)),
		capacity: capacity,
	}
	for _, apply := range opts {
		apply(&c.options)
	}
	return c
}

// Get returns the result stored for key and marks it as used.
func (c *Cache[Key, Value]) Get(key Key) (Result[Value], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.index[key]
	if !ok {
		c.metrics.Miss()
		return Result[Value]{}, false
	}
	c.recency.Touch(rec.token, key)
	c.metrics.Hit(rec.result.Failed())
	return rec.result, true
}

// Put stores result for key, replacing any previous result.
// If the cache is at capacity, a bounded eviction pass runs first.
func (c *Cache[Key, Value]) Put(key Key, result Result[Value]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.index[key]; ok {
		rec.result = result
		c.recency.Touch(rec.token, key)
		return
	}
	if c.atCapacity() {
		c.evict(c.evictVisits)
	}
	c.index[key] = &record[Key, Value]{
		token:  c.recency.Touch(nil, key),
		result: result,
	}
	c.metrics.Size(len(c.index))
}

// Invalidate removes the result for key, so the next
// lookup reports absence. It reports whether a result was present.
func (c *Cache[Key, Value]) Invalidate(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.index[key]
	if !ok {
		return false
	}
	delete(c.index, key)
	c.recency.Remove(rec.token)
	c.metrics.Size(len(c.index))
	return true
}

// Load returns the result for key. If there is none, produce is called
// and its outcome, success or failure, is stored and returned.
// Concurrent loads of the same key share a single call to produce.
func (c *Cache[Key, Value]) Load(key Key, produce func() (Value, error)) Result[Value] {
	if result, ok := c.Get(key); ok {
		return result
	}
	shared, _, _ := c.flight.Do(flightKey(key), func() (any, error) {
		if result, ok := c.peek(key); ok {
			return result, nil // Stored while this call was waiting.
		}
		var result Result[Value]
		if value, err := produce(); err != nil {
			result = Failed[Value](err)
		} else {
			result = Resolved(value)
		}
		c.Put(key, result)
		return result, nil
	})
	return shared.(Result[Value])
}

// Evict runs a bounded eviction pass if the cache is bounded,
// removing cold entries until it is below capacity.
// It returns the number of entries removed.
func (c *Cache[Key, Value]) Evict(maxVisits int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evict(maxVisits)
}

// AtCapacity reports whether the cache is bounded and full.
func (c *Cache[Key, Value]) AtCapacity() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.atCapacity()
}

// Len returns the number of stored results.
func (c *Cache[Key, Value]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Clear removes every result.
func (c *Cache[Key, Value]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.index)
	c.recency.Clear()
	c.metrics.Size(0)
}

func (c *Cache[Key, Value]) peek(key Key) (Result[Value], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.index[key]; ok {
		return rec.result, true
	}
	return Result[Value]{}, false
}

func (c *Cache[_, _]) atCapacity() bool {
	return c.capacity > 0 && len(c.index) >= c.capacity
}

func (c *Cache[Key, _]) evict(maxVisits int) int {
	if c.capacity <= 0 {
		return 0
	}
	removed := c.recency.Evict(maxVisits, func(key Key) bool {
		if !c.atCapacity() {
			return false
		}
		delete(c.index, key)
		return true
	})
	if removed > 0 {
		c.log.Debug("evicted cold results",
			slog.Int("removed", removed),
			slog.Int("remaining", len(c.index)))
		c.metrics.Evicted(removed)
		c.metrics.Size(len(c.index))
	}
	return removed
}

// flightKey includes the dynamic type, so keys of an
// interface type that print alike (1 and "1") stay distinct.
func flightKey[Key comparable](key Key) string {
	return fmt.Sprintf("%T\x00%#v", key, key)
}

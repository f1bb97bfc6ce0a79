package tracker

import (
	"iter"

	"github.com/djdv/go-frameloop/internal/ring"
)

type (
	entry[T any] struct {
		token *Token[T]
		value T
	}
	// Token references an entry within a [Tracker].
	// It is returned by [Tracker.Touch] and must be presented
	// on subsequent touches of the same entry.
	Token[T any] struct {
		node       *ring.Ring[entry[T]]
		owner      *Tracker[T]
		generation uint64
	}
	// Tracker keeps entries ordered by use, split into hot and cold
	// sets by a sentinel.
	// Concurrent access must be guarded by the caller.
	// The zero value is an empty tracker ready to use.
	Tracker[T any] struct {
		// root anchors the front and back of the list,
		// sentinel divides it.
		root, sentinel *ring.Ring[entry[T]]
		generation     uint64
		length         int
	}
)

// New creates an empty [Tracker].
func New[T any]() *Tracker[T] {
	return new(Tracker[T]).lazyInit()
}

func (t *Tracker[T]) lazyInit() *Tracker[T] {
	if t.root == nil {
		t.reset()
	}
	return t
}

func (t *Tracker[T]) reset() {
	t.root = new(ring.Ring[entry[T]])
	t.sentinel = new(ring.Ring[entry[T]])
	t.root.Link(t.sentinel)
	t.length = 0
}

// Touch marks an entry as used.
//
// If token is nil a new entry holding value is created
// and its token is returned. Otherwise the entry referenced by token is moved
// ahead of the sentinel and the same token is returned;
// value is ignored in that case.
func (t *Tracker[T]) Touch(token *Token[T], value T) *Token[T] {
	t.lazyInit()
	if token != nil {
		live := t.live(token)
		if debugging {
			assert(live, "touched a stale or foreign token")
		}
		if live {
			t.root.MoveAfter(token.node)
			return token
		}
	}
	token = &Token[T]{
		owner:      t,
		generation: t.generation,
	}
	token.node = &ring.Ring[entry[T]]{
		Value: entry[T]{
			token: token,
			value: value,
		},
	}
	t.root.Link(token.node)
	t.length++
	return token
}

// Value returns the value referenced by token,
// or false if the token is no longer valid.
func (t *Tracker[T]) Value(token *Token[T]) (T, bool) {
	if t.live(token) {
		return token.node.Value.value, true
	}
	var zero T
	return zero, false
}

// Remove deletes the entry referenced by token
// and invalidates the token. It returns false if the
// token was already invalid.
func (t *Tracker[T]) Remove(token *Token[T]) bool {
	if !t.live(token) {
		return false
	}
	t.unlink(token.node)
	return true
}

// Evict visits at most maxVisits cold entries, starting from the
// one nearest the sentinel. Each visited entry is removed if dispose
// returns true for its value; a nil dispose removes every visited entry.
// The sentinel is then moved to the front of the list.
// dispose must not call back into the tracker.
// Evict returns the number of entries removed.
func (t *Tracker[T]) Evict(maxVisits int, dispose func(T) bool) int {
	t.lazyInit()
	var (
		removed int
		cold    = t.sentinel.Next()
	)
	for visits := 0; cold != t.root && visits < maxVisits; visits++ {
		next := cold.Next()
		if dispose == nil || dispose(cold.Value.value) {
			t.unlink(cold)
			removed++
		}
		cold = next
	}
	t.root.MoveAfter(t.sentinel)
	return removed
}

// Clear removes every entry and invalidates all outstanding tokens.
func (t *Tracker[T]) Clear() {
	t.generation++
	t.reset()
}

// Len returns the number of entries, excluding the sentinel.
func (t *Tracker[T]) Len() int {
	return t.length
}

// Values returns an iterator over entry values,
// from most to least recently used. Hot and cold
// entries are yielded alike.
func (t *Tracker[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		if t.root == nil {
			return
		}
		for element := range t.root.Between(t.root) {
			if element == t.sentinel {
				continue
			}
			if !yield(element.Value.value) {
				return
			}
		}
	}
}

func (t *Tracker[T]) live(token *Token[T]) bool {
	return token != nil &&
		token.node != nil &&
		token.owner == t &&
		token.generation == t.generation
}

func (t *Tracker[T]) unlink(element *ring.Ring[entry[T]]) {
	element.Detach()
	element.Value.token.node = nil
	t.length--
}

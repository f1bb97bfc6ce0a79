// Package ring is a generic adaption of `container/ring`,
// shared by the recency tracker and the disposal ring.
package ring

import "iter"

// A Ring is an element of a circular list, or ring.
// Rings do not have a beginning or end; a pointer to any ring element
// serves as reference to the entire ring. Empty rings are represented
// as nil Ring pointers. The zero value for a Ring is a one-element
// ring with a zero Value.
type Ring[Value any] struct {
	next, prev *Ring[Value]
	Value      Value
}

func (r *Ring[Value]) init() *Ring[Value] {
	r.next = r
	r.prev = r
	return r
}

// Next returns the next ring element. r must not be empty.
func (r *Ring[Value]) Next() *Ring[Value] {
	if r.next == nil {
		return r.init()
	}
	return r.next
}

// Prev returns the previous ring element. r must not be empty.
func (r *Ring[Value]) Prev() *Ring[Value] {
	if r.next == nil {
		return r.init()
	}
	return r.prev
}

// Move moves n % len(ring) elements backward (n < 0) or forward (n >= 0)
// in the ring and returns that ring element. r must not be empty.
func (r *Ring[Value]) Move(n int) *Ring[Value] {
	if r.next == nil {
		return r.init()
	}
	switch {
	case n < 0:
		for ; n < 0; n++ {
			r = r.prev
		}
	case n > 0:
		for ; n > 0; n-- {
			r = r.next
		}
	}
	return r
}

// New creates a ring of n elements.
func New[Value any](n int) *Ring[Value] {
	if n <= 0 {
		return nil
	}
	var (
		r = new(Ring[Value])
		p = r
	)
	for i := 1; i < n; i++ {
		p.next = &Ring[Value]{prev: p}
		p = p.next
	}
	p.next = r
	r.prev = p
	return r
}

// Link connects ring r with ring s such that r.Next()
// becomes s and returns the original value for r.Next().
// r must not be empty.
//
// If r and s point to the same ring, linking
// them removes the elements between r and s from the ring.
// The removed elements form a subring and the result is a
// reference to that subring.
//
// If r and s point to different rings, linking
// them creates a single ring with the elements of s inserted
// after r. The result points to the element following the
// last element of s after insertion.
func (r *Ring[Value]) Link(s *Ring[Value]) *Ring[Value] {
	n := r.Next()
	if s != nil {
		p := s.Prev()
		// Note: Cannot use multiple assignment because
		// evaluation order of LHS is not specified.
		r.next = s
		s.prev = r
		n.prev = p
		p.next = n
	}
	return n
}

// Unlink removes n % len(ring) elements from the ring r, starting
// at r.Next(). If n % len(ring) == 0, r remains unchanged.
// The result is the removed subring. r must not be empty.
func (r *Ring[Value]) Unlink(n int) *Ring[Value] {
	if n <= 0 {
		return nil
	}
	return r.Link(r.Move(n + 1))
}

// Detach removes r from whatever ring it is part of
// and returns it as a one-element ring.
func (r *Ring[Value]) Detach() *Ring[Value] {
	return r.Prev().Unlink(1)
}

// MoveAfter detaches s from its current ring and
// re-inserts it directly after r. s must not be r.
func (r *Ring[Value]) MoveAfter(s *Ring[Value]) {
	if r.Next() == s {
		return
	}
	r.Link(s.Detach())
}

// Between yields each element strictly after r and strictly before to,
// in forward order. The behavior is undefined if the ring
// is modified during iteration.
func (r *Ring[Value]) Between(to *Ring[Value]) iter.Seq[*Ring[Value]] {
	return func(yield func(*Ring[Value]) bool) {
		for p := r.Next(); p != to; p = p.next {
			if !yield(p) {
				return
			}
		}
	}
}

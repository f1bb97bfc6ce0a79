//go:build !frameloop_debug

package tracker

import "testing"

func TestStaleTokenRecreates(t *testing.T) {
	tracked := New[int]()
	stale := tracked.Touch(nil, 1)
	tracked.Evict(1, nil)
	tracked.Evict(1, nil)
	if tracked.Len() != 0 {
		t.Fatalf("expected the entry to be evicted, %d remain", tracked.Len())
	}
	fresh := tracked.Touch(stale, 2)
	if fresh == stale {
		t.Fatal("stale token was revived instead of replaced")
	}
	if value, ok := tracked.Value(fresh); !ok || value != 2 {
		t.Fatalf("expected a new entry holding 2, got %d %t", value, ok)
	}
	foreign := New[int]().Touch(nil, 3)
	if tracked.Remove(foreign) {
		t.Fatal("removed a token owned by another tracker")
	}
}

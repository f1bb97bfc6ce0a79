package tracker_test

import (
	"fmt"

	"github.com/djdv/go-frameloop/tracker"
)

func ExampleTracker() {
	tracked := tracker.New[string]()
	tile := tracked.Touch(nil, "tile/0/0/0")
	tracked.Touch(nil, "tile/1/0/0")
	tracked.Evict(64, nil) // Nothing is cold yet.

	tracked.Touch(tile, "") // Visited this cycle.
	removed := tracked.Evict(64, func(name string) bool {
		fmt.Println("evicting", name)
		return true
	})
	fmt.Println("removed:", removed, "remaining:", tracked.Len())
	// Output:
	// evicting tile/1/0/0
	// removed: 1 remaining: 1
}

package resultcache_test

import (
	"strings"
	"testing"

	"github.com/djdv/go-frameloop/resultcache"
)

func TestKey(t *testing.T) {
	var (
		first  = resultcache.Key("tile", "ab", "c")
		second = resultcache.Key("tile", "a", "bc")
	)
	if first == second {
		t.Fatalf("part boundaries collided: %s", first)
	}
	if again := resultcache.Key("tile", "ab", "c"); again != first {
		t.Fatalf("key is not stable"+
			"\n\tgot: %s"+
			"\n\twant: %s",
			again, first)
	}
	if !strings.HasPrefix(first, "tile-") {
		t.Fatalf("missing prefix: %s", first)
	}
	const hexDigest = 32
	if got := len(first) - len("tile-"); got != hexDigest {
		t.Fatalf("expected %d hex digits, got %d", hexDigest, got)
	}
}

package resultcache_test

import (
	"fmt"
	"math/bits"
	"math/rand"
	"testing"
	"unsafe"

	"github.com/hashicorp/golang-lru/arc/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/djdv/go-frameloop/resultcache"
)

type (
	benchCache[Key comparable, Value any] interface {
		Set(Key, Value)
		Get(Key) (Value, bool)
	}
	cacheCtor        = func(capacity int, b *testing.B) benchCache[int, int]
	cacheConstructor struct {
		name string
		new  cacheCtor
	}
	patternGen    = func(capacity int) []int
	accessPattern struct {
		name string
		gen  patternGen
	}
	// frameWrapper runs the per-cycle eviction pass every
	// frameLength accesses, the way a render loop would.
	frameWrapper[Key comparable, Value any] struct {
		*resultcache.Cache[Key, Value]
		accesses int
	}
	arcWrapper[Key comparable, Value any] struct {
		*arc.ARCCache[Key, Value]
	}
	lruWrapper[Key comparable, Value any] struct {
		*lru.Cache[Key, Value]
	}
)

const (
	// Fixed RNG seed for reproducibility.
	// Change to test variance between runs.
	rngSeed     = 1
	frameLength = 256
)

func (fw *frameWrapper[Key, Value]) Get(key Key) (Value, bool) {
	fw.endFrame()
	result, ok := fw.Cache.Get(key)
	return result.Value(), ok
}

func (fw *frameWrapper[Key, Value]) Set(key Key, value Value) {
	fw.Put(key, resultcache.Resolved(value))
}

func (fw *frameWrapper[Key, Value]) endFrame() {
	if fw.accesses++; fw.accesses%frameLength != 0 {
		return
	}
	if fw.AtCapacity() {
		fw.Evict(resultcache.DefaultEvictVisits)
	}
}

func (aw arcWrapper[Key, Value]) Set(key Key, value Value) { aw.Add(key, value) }
func (lw lruWrapper[Key, Value]) Set(key Key, value Value) { lw.Add(key, value) }

func BenchmarkCache(b *testing.B) {
	var (
		constructors = cacheConstructors()
		capacities   = []int{128, 512, 2048}
		patterns     = accessPatterns()
	)
	for _, pattern := range patterns {
		b.Run(pattern.name, newBenchPattern(pattern.gen, capacities, constructors))
	}
}

func cacheConstructors() []cacheConstructor {
	return []cacheConstructor{
		{
			"ResultCache",
			func(capacity int, _ *testing.B) benchCache[int, int] {
				return &frameWrapper[int, int]{
					Cache: resultcache.New[int, int](capacity),
				}
			},
		},
		{
			"LRU",
			func(capacity int, b *testing.B) benchCache[int, int] {
				cache, err := lru.New[int, int](capacity)
				if err != nil {
					b.Fatal(err)
				}
				return lruWrapper[int, int]{Cache: cache}
			},
		},
		{
			"ARC",
			func(capacity int, b *testing.B) benchCache[int, int] {
				cache, err := arc.NewARC[int, int](capacity)
				if err != nil {
					b.Fatal(err)
				}
				return arcWrapper[int, int]{ARCCache: cache}
			},
		},
	}
}

func accessPatterns() []accessPattern {
	return []accessPattern{
		{
			"Loop working set",
			func(capacity int) []int {
				const (
					universe = 8192 // Moderately larger than capacity.
					seqLen   = 1 << 16
					hotRatio = 0.9 // 90% of accesses hit hot set.
				)
				return makeLooping(capacity, universe, seqLen, hotRatio)
			},
		},
		{
			"Zipf",
			func(int) []int {
				const (
					universe = 16384 // Large enough to show skew.
					seqLen   = 1 << 16
					skew     = 1.2
					bias     = 1.0
				)
				return makeZipf(universe, seqLen, skew, bias)
			},
		},
	}
}

func newBenchPattern(
	genPattern patternGen, capacities []int,
	constructors []cacheConstructor,
) func(b *testing.B) {
	const dataSize = int64(unsafe.Sizeof(int(0)) * 2)
	return func(b *testing.B) {
		for _, capacity := range capacities {
			sequence := genPattern(capacity)
			b.Run(fmt.Sprintf("Cap%d", capacity), func(b *testing.B) {
				for _, constructor := range constructors {
					b.Run(constructor.name, newBenchCache(
						constructor.new, capacity,
						dataSize, sequence,
					))
				}
			})
		}
	}
}

func newBenchCache(
	ctor cacheCtor, capacity int,
	dataSize int64, sequence []int,
) func(b *testing.B) {
	return func(b *testing.B) {
		cache := ctor(capacity, b)
		warmUp(cache, sequence)
		b.ReportAllocs()
		b.SetBytes(dataSize)
		b.ResetTimer()
		var (
			hits, misses int64
			seqMask      = len(sequence) - 1
		)
		for i := 0; b.Loop(); i++ {
			key := sequence[i&seqMask]
			if _, ok := cache.Get(key); ok {
				hits++
			} else {
				misses++
				cache.Set(key, key)
			}
		}
		b.StopTimer()
		total := float64(hits + misses)
		b.ReportMetric(float64(hits)/total*100.0, "hit_rate_pct")
	}
}

func makeLooping(capacity, universe, seqLen int, hotRatio float64) []int {
	var (
		seq      = make([]int, nextPow2(seqLen))
		rng      = newReproducibleRNG()
		hotSize  = max(1, capacity)
		coldSize = max(1, universe-hotSize)
	)
	for i := range seq {
		if rng.Float64() < hotRatio {
			seq[i] = rng.Intn(hotSize)
		} else {
			seq[i] = hotSize + rng.Intn(coldSize)
		}
	}
	return seq
}

func makeZipf(universe, seqLen int, skew, bias float64) []int {
	var (
		seq  = make([]int, nextPow2(seqLen))
		rng  = newReproducibleRNG()
		imax = uint64(max(universe, 2) - 1)
		zipf = rand.NewZipf(rng, skew, bias, imax)
	)
	for i := range seq {
		seq[i] = int(zipf.Uint64())
	}
	return seq
}

func warmUp(c benchCache[int, int], seq []int) {
	for _, k := range seq {
		if _, ok := c.Get(k); !ok {
			c.Set(k, k)
		}
	}
}

func nextPow2(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(x)-1)
}

func newReproducibleRNG() *rand.Rand {
	return rand.New(rand.NewSource(rngSeed))
}

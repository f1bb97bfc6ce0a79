package frameloop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djdv/go-frameloop"
	"github.com/djdv/go-frameloop/disposal"
	"github.com/djdv/go-frameloop/resultcache"
	"github.com/djdv/go-frameloop/scheduler"
)

type (
	compiled bool

	gpuBuffer struct{ released int }
)

func (c compiled) RequiresUpdate() bool { return bool(c) }
func (b *gpuBuffer) Release()           { b.released++ }

func newLoop(t *testing.T, config *frameloop.Config) *frameloop.Loop {
	t.Helper()
	loop, err := frameloop.New(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = loop.Close() })
	return loop
}

func TestNew_Defaults(t *testing.T) {
	loop := newLoop(t, nil)
	tasks, disposals := loop.Pending()
	assert.Zero(t, tasks)
	assert.Zero(t, disposals)
	assert.False(t, loop.Update())
	assert.Equal(t, uint64(1), loop.Frame())
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := frameloop.New(&frameloop.Config{DisposalDepth: 1})
	require.ErrorIs(t, err, frameloop.ErrInvalidConfig)
	require.ErrorIs(t, err, disposal.ErrInvalidDepth)

	_, err = frameloop.New(&frameloop.Config{EvictVisits: -1})
	require.ErrorIs(t, err, frameloop.ErrInvalidConfig)
}

func TestUpdate_Order(t *testing.T) {
	var (
		order []string
		loop  = newLoop(t, &frameloop.Config{
			Compiler: frameloop.CompilerFunc(func(context.Context, any) (frameloop.CompileResult, error) {
				return compiled(true), nil
			}),
			ApplyCompiled: func(results []frameloop.CompileResult) {
				order = append(order, "compiled")
			},
		})
	)
	loop.Submit(scheduler.TaskFunc(func() { order = append(order, "task") }), nil)
	loop.OnNextUpdate(func() { order = append(order, "first") })
	loop.OnNextUpdate(func() { order = append(order, "second") })
	require.NoError(t, loop.Compile(context.Background(), "shader"))

	assert.True(t, loop.Update())
	assert.Equal(t, []string{"first", "second", "task", "compiled"}, order)

	order = nil
	assert.False(t, loop.Update())
	assert.Empty(t, order, "one-shot operations ran twice")
}

func TestUpdate_OneTaskPerFrame(t *testing.T) {
	var (
		loop = newLoop(t, nil)
		ran  []int
	)
	for i := range 3 {
		priority := float64(i)
		loop.Submit(
			scheduler.TaskFunc(func() { ran = append(ran, i) }),
			func() float64 { return priority },
		)
	}
	for frame := 1; frame <= 3; frame++ {
		loop.Update()
		require.Len(t, ran, frame)
	}
	assert.Equal(t, []int{2, 1, 0}, ran)
	loop.Update()
	assert.Len(t, ran, 3)
}

func TestCompile(t *testing.T) {
	t.Run("no compiler", func(t *testing.T) {
		loop := newLoop(t, nil)
		require.ErrorIs(t, loop.Compile(context.Background(), nil), frameloop.ErrNoCompiler)
	})
	t.Run("failure", func(t *testing.T) {
		errDevice := errors.New("device lost")
		loop := newLoop(t, &frameloop.Config{
			Compiler: frameloop.CompilerFunc(func(context.Context, any) (frameloop.CompileResult, error) {
				return nil, errDevice
			}),
		})
		require.ErrorIs(t, loop.Compile(context.Background(), nil), errDevice)
		assert.False(t, loop.Update())
	})
	t.Run("no update required", func(t *testing.T) {
		var applied int
		loop := newLoop(t, &frameloop.Config{
			Compiler: frameloop.CompilerFunc(func(context.Context, any) (frameloop.CompileResult, error) {
				return compiled(false), nil
			}),
			ApplyCompiled: func([]frameloop.CompileResult) { applied++ },
		})
		require.NoError(t, loop.Compile(context.Background(), nil))
		assert.False(t, loop.Update())
		assert.Zero(t, applied)
		assert.False(t, loop.FrameRequested())
	})
	t.Run("merged", func(t *testing.T) {
		var merged []frameloop.CompileResult
		loop := newLoop(t, &frameloop.Config{
			Compiler: frameloop.CompilerFunc(func(context.Context, any) (frameloop.CompileResult, error) {
				return compiled(true), nil
			}),
			ApplyCompiled: func(results []frameloop.CompileResult) {
				merged = append(merged, results...)
			},
		})
		for range 3 {
			require.NoError(t, loop.Compile(context.Background(), nil))
		}
		assert.True(t, loop.Update())
		assert.Len(t, merged, 3)
		assert.True(t, loop.FrameRequested())
		assert.False(t, loop.FrameRequested(), "request was not consumed")
	})
}

func TestDispose_Deferred(t *testing.T) {
	const depth = 3
	var (
		loop   = newLoop(t, &frameloop.Config{DisposalDepth: depth})
		buffer = new(gpuBuffer)
	)
	loop.Dispose(buffer)
	for range depth - 1 {
		loop.Update()
		require.Zero(t, buffer.released)
	}
	loop.Update()
	assert.Equal(t, 1, buffer.released)
}

func TestDispose_CustomDisposer(t *testing.T) {
	var (
		forwarded []any
		loop      = newLoop(t, &frameloop.Config{
			Disposer: func(object any) { forwarded = append(forwarded, object) },
		})
		buffer = new(gpuBuffer)
	)
	loop.Dispose(buffer)
	assert.Equal(t, []any{buffer}, forwarded)
	loop.SetDisposer(nil)
	loop.Dispose(buffer)
	_, disposals := loop.Pending()
	assert.Equal(t, 1, disposals)
}

func TestClose_Flushes(t *testing.T) {
	loop, err := frameloop.New(nil)
	require.NoError(t, err)
	buffer := new(gpuBuffer)
	loop.Dispose(buffer)
	require.NoError(t, loop.Close())
	assert.Equal(t, 1, buffer.released)
}

func TestTrack_EvictsAtCapacity(t *testing.T) {
	var (
		loop  = newLoop(t, nil)
		cache = resultcache.New[int, int](2)
	)
	loop.Track(cache)
	loop.Track(nil)
	cache.Put(1, resultcache.Resolved(1))
	cache.Put(2, resultcache.Resolved(2))

	loop.Update() // Entries stored this frame are hot.
	assert.Equal(t, 2, cache.Len())
	loop.Update()
	assert.Equal(t, 1, cache.Len())
	assert.False(t, cache.AtCapacity())
}

func TestTrack_IgnoresDuplicates(t *testing.T) {
	var (
		loop  = newLoop(t, nil)
		cache = resultcache.New[int, int](2)
	)
	loop.Track(cache)
	loop.Track(cache)
	cache.Put(1, resultcache.Resolved(1))
	cache.Put(2, resultcache.Resolved(2))

	loop.Update()
	assert.Equal(t, 2, cache.Len(), "entries used this frame were evicted")
}

func TestRequestFrame(t *testing.T) {
	loop := newLoop(t, nil)
	assert.False(t, loop.FrameRequested())
	loop.RequestFrame()
	loop.RequestFrame()
	assert.True(t, loop.FrameRequested())
	assert.False(t, loop.FrameRequested())
}

func TestRun(t *testing.T) {
	var (
		loop        = newLoop(t, nil)
		ctx, cancel = context.WithCancel(context.Background())
	)
	defer cancel()
	loop.Submit(scheduler.TaskFunc(cancel), nil)
	err := loop.Run(ctx, time.Millisecond)
	require.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, loop.Frame(), uint64(1))
}

package frameloop

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/djdv/go-frameloop/disposal"
	"github.com/djdv/go-frameloop/internal/logging"
	"github.com/djdv/go-frameloop/scheduler"
)

type (
	// Config models optional configuration, for New.
	Config struct {
		// Logger receives diagnostics from the loop and its components.
		// **Defaults to discarding everything, if nil.**
		Logger *slog.Logger

		// Disposer, if set, takes every object passed to Dispose
		// instead of the loop's disposal ring.
		Disposer disposal.Disposer

		// Compiler is used by Compile.
		Compiler Compiler

		// ApplyCompiled receives compile results that require
		// a render-side update, once per Update, on the updating goroutine.
		ApplyCompiled func(results []CompileResult)

		// SchedulerMetrics and DisposalMetrics instrument the
		// loop's components. **Default to no-ops, if nil.**
		SchedulerMetrics scheduler.Metrics
		DisposalMetrics  disposal.Metrics

		// DisposalDepth is the number of frames a disposed object is
		// retained for, and must exceed the device's pipelining depth.
		// **Defaults to 8, if 0, or Config is nil.**
		DisposalDepth int

		// EvictVisits bounds the eviction work done per tracked cache, per Update.
		// **Defaults to 32, if 0, or Config is nil.**
		EvictVisits int
	}

	// Evictor is implemented by caches that can evict a bounded number
	// of entries not used since their previous eviction pass.
	// [resultcache.Cache] implements it.
	Evictor interface {
		AtCapacity() bool
		Evict(maxVisits int) int
	}

	// Loop drives per-frame work.
	// Update must only be called from one goroutine;
	// every other method is safe for concurrent use.
	// Constructed by [New].
	Loop struct {
		log           *slog.Logger
		scheduler     *scheduler.Scheduler
		disposal      *disposal.Ring
		compiler      Compiler
		applyCompiled func([]CompileResult)

		oneShotMu sync.Mutex
		oneShot   []func()

		compileMu sync.Mutex
		compiled  []CompileResult

		evictorMu sync.Mutex
		evictors  []Evictor

		frame          atomic.Uint64
		frameRequests  atomic.Int64
		evictVisits    int
		schedulerReady atomic.Bool
	}
)

const (
	defaultDisposalDepth = 8
	defaultEvictVisits   = 32
)

// New initializes a [Loop] using the provided config, which may be nil.
func New(config *Config) (*Loop, error) {
	var settings Config
	if config != nil {
		settings = *config
	}
	if settings.DisposalDepth == 0 {
		settings.DisposalDepth = defaultDisposalDepth
	}
	if settings.EvictVisits == 0 {
		settings.EvictVisits = defaultEvictVisits
	}
	if settings.EvictVisits < 0 {
		return nil, configError(fmt.Errorf(
			"evict visits must be positive but %d was requested",
			settings.EvictVisits))
	}
	log := logging.OrNop(settings.Logger)
	ring, err := disposal.New(settings.DisposalDepth,
		disposal.WithLogger(log.With("component", "disposal")),
		disposal.WithMetrics(settings.DisposalMetrics),
		disposal.WithDisposer(settings.Disposer),
	)
	if err != nil {
		return nil, configError(err)
	}
	l := &Loop{
		log:           log,
		disposal:      ring,
		compiler:      settings.Compiler,
		applyCompiled: settings.ApplyCompiled,
		evictVisits:   settings.EvictVisits,
	}
	l.scheduler = scheduler.New(
		scheduler.WithLogger(log.With("component", "scheduler")),
		scheduler.WithMetrics(settings.SchedulerMetrics),
		scheduler.WithActivate(l.activateScheduler),
	)
	return l, nil
}

func (l *Loop) activateScheduler() {
	l.schedulerReady.Store(true)
	l.log.Debug("priority scheduler activated")
}

// Submit queues task to run during a future Update.
// See [scheduler.Scheduler.Submit] for ordering rules.
func (l *Loop) Submit(task scheduler.Task, priority scheduler.PriorityFunc) {
	l.scheduler.Submit(task, priority)
}

// OnNextUpdate runs fn during the next Update, before any scheduled task.
// Unlike Submit, every queued function runs, in submission order.
func (l *Loop) OnNextUpdate(fn func()) {
	if fn == nil {
		return
	}
	l.oneShotMu.Lock()
	defer l.oneShotMu.Unlock()
	l.oneShot = append(l.oneShot, fn)
}

// Dispose defers the release of object until no
// in-flight frame can still reference it.
func (l *Loop) Dispose(object any) {
	l.disposal.Dispose(object)
}

// SetDisposer installs or removes a custom disposer at runtime.
func (l *Loop) SetDisposer(disposer disposal.Disposer) {
	l.disposal.SetDisposer(disposer)
}

// Compile calls the configured [Compiler] on the calling goroutine.
// Results that require a render-side update are merged during the next Update.
func (l *Loop) Compile(ctx context.Context, object any) error {
	if l.compiler == nil {
		return ErrNoCompiler
	}
	result, err := l.compiler.Compile(ctx, object)
	if err != nil {
		l.log.Warn("compile failed", slog.Any("error", err))
		return fmt.Errorf("compile: %w", err)
	}
	if result == nil || !result.RequiresUpdate() {
		return nil
	}
	l.compileMu.Lock()
	defer l.compileMu.Unlock()
	l.compiled = append(l.compiled, result)
	return nil
}

// Track registers a cache for bounded eviction during every Update.
// Registering the same evictor again has no effect, so it is
// never evicted more than once per frame.
// Evictors must be comparable, pointers typically.
func (l *Loop) Track(evictor Evictor) {
	if evictor == nil {
		return
	}
	l.evictorMu.Lock()
	defer l.evictorMu.Unlock()
	if slices.Contains(l.evictors, evictor) {
		return
	}
	l.evictors = append(l.evictors, evictor)
}

// RequestFrame asks the host to render another frame,
// even if nothing else changed.
func (l *Loop) RequestFrame() { l.frameRequests.Add(1) }

// FrameRequested reports whether RequestFrame was called
// since the previous call to FrameRequested.
func (l *Loop) FrameRequested() bool { return l.frameRequests.Swap(0) > 0 }

// Frame returns the number of completed updates.
func (l *Loop) Frame() uint64 { return l.frame.Load() }

// Pending returns the number of queued tasks
// and the number of objects awaiting release.
func (l *Loop) Pending() (tasks, disposals int) {
	return l.scheduler.Len(), l.disposal.Pending()
}

// Update performs one frame's worth of work.
// It reports whether compile results were applied.
func (l *Loop) Update() bool {
	l.runOneShots()
	if l.schedulerReady.Load() {
		l.scheduler.RunOnce()
	}
	updated := l.mergeCompiled()
	l.disposal.Advance()
	l.evictTracked()
	l.frame.Add(1)
	return updated
}

// Run calls Update every interval until ctx is done.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.Update() {
				l.RequestFrame()
			}
		}
	}
}

// Close releases every object still held for deferred disposal.
// It must only be called once the device is idle.
func (l *Loop) Close() error {
	if released := l.disposal.Flush(); released > 0 {
		l.log.Debug("flushed deferred objects", slog.Int("released", released))
	}
	return nil
}

func (l *Loop) runOneShots() {
	l.oneShotMu.Lock()
	operations := l.oneShot
	l.oneShot = nil
	l.oneShotMu.Unlock()
	for _, operation := range operations {
		operation()
	}
}

func (l *Loop) mergeCompiled() bool {
	l.compileMu.Lock()
	results := l.compiled
	l.compiled = nil
	l.compileMu.Unlock()
	if len(results) == 0 {
		return false
	}
	if l.applyCompiled != nil {
		l.applyCompiled(results)
	}
	l.RequestFrame()
	return true
}

func (l *Loop) evictTracked() {
	l.evictorMu.Lock()
	evictors := l.evictors
	l.evictorMu.Unlock()
	for _, evictor := range evictors {
		if evictor.AtCapacity() {
			evictor.Evict(l.evictVisits)
		}
	}
}

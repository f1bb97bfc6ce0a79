package frameloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/djdv/go-frameloop/internal/logging"
	"github.com/djdv/go-frameloop/resultcache"
	"github.com/djdv/go-frameloop/scheduler"
)

type (
	// LoaderConfig models optional configuration, for NewLoader.
	LoaderConfig struct {
		// Logger receives fetch and decode diagnostics.
		// **Defaults to discarding everything, if nil.**
		Logger *slog.Logger

		// Workers is the number of goroutines fetching and decoding.
		// **Defaults to 4, if 0, or LoaderConfig is nil.**
		Workers int
	}

	// Loader fetches and decodes values on background workers
	// and hands each outcome back to a [Loop] as a prioritized task.
	// Outcomes, including failures, are memoized in a [resultcache.Cache].
	// Constructed by [NewLoader].
	Loader[Value any] struct {
		loop    *Loop
		cache   *resultcache.Cache[string, Value]
		fetcher Fetcher
		decode  Decoder[Value]
		log     *slog.Logger

		cancel context.CancelFunc
		group  *errgroup.Group
		kick   chan struct{}

		mu     sync.Mutex
		queue  []request[Value]
		closed bool
	}

	request[Value any] struct {
		job      *scheduler.Job
		priority scheduler.PriorityFunc
		result   *resultcache.Result[Value]
		id       string
	}
)

const defaultWorkers = 4

// NewLoader starts a [Loader] feeding loop.
// The cache is registered with [Loop.Track].
func NewLoader[Value any](
	loop *Loop,
	cache *resultcache.Cache[string, Value],
	fetcher Fetcher, decode Decoder[Value],
	config *LoaderConfig,
) (*Loader[Value], error) {
	var settings LoaderConfig
	if config != nil {
		settings = *config
	}
	if settings.Workers == 0 {
		settings.Workers = defaultWorkers
	}
	switch {
	case loop == nil:
		return nil, configError(errors.New("loop is nil"))
	case cache == nil:
		return nil, configError(errors.New("cache is nil"))
	case fetcher == nil:
		return nil, configError(errors.New("fetcher is nil"))
	case decode == nil:
		return nil, configError(errors.New("decoder is nil"))
	case settings.Workers < 0:
		return nil, configError(fmt.Errorf(
			"workers must be positive but %d was requested",
			settings.Workers))
	}
	var (
		ctx, cancel = context.WithCancel(context.Background())
		group, gctx = errgroup.WithContext(ctx)
		loader      = &Loader[Value]{
			loop:    loop,
			cache:   cache,
			fetcher: fetcher,
			decode:  decode,
			log:     logging.OrNop(settings.Logger),
			cancel:  cancel,
			group:   group,
			kick:    make(chan struct{}, 1),
		}
	)
	group.SetLimit(settings.Workers)
	for range settings.Workers {
		group.Go(func() error { return loader.work(gctx) })
	}
	loop.Track(cache)
	return loader, nil
}

// Request delivers the value for id to onReady, on the goroutine
// calling [Loop.Update]. Cached outcomes are scheduled immediately;
// otherwise id is fetched and decoded by a worker first.
// Request never blocks on the fetch.
//
// The returned job may be canceled at any time before it runs;
// a canceled request that has not been fetched yet is never fetched.
func (ld *Loader[Value]) Request(
	id string, priority scheduler.PriorityFunc,
	onReady func(resultcache.Result[Value]),
) (*scheduler.Job, error) {
	var (
		result resultcache.Result[Value]
		job    = scheduler.NewJob(func() {
			if onReady != nil {
				onReady(result)
			}
		})
	)
	if ld.isClosed() {
		return nil, ErrClosed
	}
	if cached, ok := ld.cache.Get(id); ok {
		result = cached
		ld.loop.Submit(job, priority)
		return job, nil
	}
	ld.mu.Lock()
	if ld.closed {
		ld.mu.Unlock()
		return nil, ErrClosed
	}
	ld.queue = append(ld.queue, request[Value]{
		job:      job,
		priority: priority,
		result:   &result,
		id:       id,
	})
	ld.mu.Unlock()
	ld.signal()
	return job, nil
}

// Close stops the workers and waits for them to return.
// Requests still queued are canceled, and
// subsequent calls to Request return [ErrClosed].
func (ld *Loader[Value]) Close() error {
	ld.mu.Lock()
	if ld.closed {
		ld.mu.Unlock()
		return ErrClosed
	}
	ld.closed = true
	abandoned := ld.queue
	ld.queue = nil
	ld.mu.Unlock()
	for _, req := range abandoned {
		req.job.Cancel()
	}
	ld.cancel()
	return ld.group.Wait()
}

func (ld *Loader[Value]) isClosed() bool {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return ld.closed
}

func (ld *Loader[Value]) signal() {
	select {
	case ld.kick <- struct{}{}:
	default:
	}
}

func (ld *Loader[Value]) dequeue() (request[Value], bool) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	if len(ld.queue) == 0 {
		return request[Value]{}, false
	}
	req := ld.queue[0]
	ld.queue[0] = request[Value]{}
	ld.queue = ld.queue[1:]
	if len(ld.queue) > 0 {
		ld.signal() // Wake another worker for the rest.
	}
	return req, true
}

func (ld *Loader[Value]) work(ctx context.Context) error {
	for {
		req, ok := ld.dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-ld.kick:
				continue
			}
		}
		if req.job.Canceled() {
			ld.log.Debug("skipped canceled request",
				slog.String("id", req.id),
				slog.Any("job", req.job))
			continue
		}
		result := ld.cache.Load(req.id, func() (Value, error) {
			return ld.produce(ctx, req.id)
		})
		if ctx.Err() != nil {
			if errors.Is(result.Err(), context.Canceled) {
				// Interrupted, not a real outcome.
				ld.cache.Invalidate(req.id)
			}
			return nil
		}
		*req.result = result
		ld.loop.Submit(req.job, req.priority)
	}
}

func (ld *Loader[Value]) produce(ctx context.Context, id string) (Value, error) {
	var zero Value
	data, err := ld.fetcher.Fetch(ctx, id)
	if err != nil {
		ld.log.Warn("fetch failed",
			slog.String("id", id),
			slog.Any("error", err))
		return zero, fmt.Errorf("fetch %s: %w", id, err)
	}
	if len(data) == 0 {
		return zero, &Status{
			Message: id,
			Code:    ResourceUnavailable,
		}
	}
	value, err := ld.decode(id, data)
	if err != nil {
		ld.log.Warn("decode failed",
			slog.String("id", id),
			slog.Any("error", err))
		return zero, fmt.Errorf("decode %s: %w", id, err)
	}
	return value, nil
}

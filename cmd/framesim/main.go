// Command framesim drives a headless render loop over a synthetic,
// slow, and unreliable tile server, and exposes the loop's metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/djdv/go-frameloop"
	promadapter "github.com/djdv/go-frameloop/adapters/prometheus"
	"github.com/djdv/go-frameloop/resultcache"
)

func main() {
	var (
		duration  = flag.Duration("duration", 10*time.Second, "how long to run (0 runs until interrupted)")
		fps       = flag.Int("fps", 60, "frames per second")
		panSpeed  = flag.Float64("pan", 0.25, "tiles the camera moves per step")
		viewWidth = flag.Int("view", 12, "tiles visible at once")
		capacity  = flag.Int("capacity", 64, "result cache capacity (0 is unbounded)")
		workers   = flag.Int("workers", 4, "fetch workers")
		depth     = flag.Int("depth", 8, "frames a disposed tile is retained")
		latency   = flag.Duration("latency", 40*time.Millisecond, "maximum synthetic fetch latency")
		failRate  = flag.Float64("fail", 0.05, "probability a fetch fails")
		emptyRate = flag.Float64("empty", 0.05, "probability a tile has no data")
		addr      = flag.String("metrics", ":9090", "metrics listen address (empty disables)")
		verbose   = flag.Bool("v", false, "log debug messages")
	)
	flag.Parse()
	if *fps <= 0 {
		log.Fatalf("fps must be positive but %d was requested", *fps)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	if err := run(ctx, logger, settings{
		frameInterval: time.Second / time.Duration(*fps),
		panSpeed:      *panSpeed,
		viewWidth:     *viewWidth,
		capacity:      *capacity,
		workers:       *workers,
		depth:         *depth,
		latency:       *latency,
		failRate:      *failRate,
		emptyRate:     *emptyRate,
		metricsAddr:   *addr,
	}); err != nil {
		log.Fatal(err)
	}
}

type settings struct {
	frameInterval time.Duration
	panSpeed      float64
	viewWidth     int
	capacity      int
	workers       int
	depth         int
	latency       time.Duration
	failRate      float64
	emptyRate     float64
	metricsAddr   string
}

func run(ctx context.Context, logger *slog.Logger, set settings) error {
	var (
		reg     = prometheus.NewRegistry()
		view    *viewer
		uploads int
	)
	loop, err := frameloop.New(&frameloop.Config{
		Logger:           logger,
		DisposalDepth:    set.depth,
		Compiler:         frameloop.CompilerFunc(compileTile),
		ApplyCompiled:    func(results []frameloop.CompileResult) { uploads += len(results) },
		SchedulerMetrics: promadapter.NewSchedulerMetrics(reg),
		DisposalMetrics:  promadapter.NewDisposalMetrics(reg),
	})
	if err != nil {
		return err
	}
	cache := resultcache.New[string, *tile](set.capacity,
		resultcache.WithLogger(logger.With("component", "tiles")),
		resultcache.WithMetrics(promadapter.NewCacheMetricsFactory(reg).For("tiles")),
	)
	server := &tileServer{
		latency:   set.latency,
		failRate:  set.failRate,
		emptyRate: set.emptyRate,
	}
	loader, err := frameloop.NewLoader(loop, cache, server, decodeTile,
		&frameloop.LoaderConfig{
			Logger:  logger.With("component", "loader"),
			Workers: set.workers,
		})
	if err != nil {
		return err
	}
	view = newViewer(logger, loop, loader, set.viewWidth, set.panSpeed)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := loop.Run(gctx, set.frameInterval)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})
	group.Go(func() error { return pan(gctx, loop, view, set.frameInterval*4) })
	if set.metricsAddr != "" {
		group.Go(func() error { return serveMetrics(gctx, logger, reg, set.metricsAddr) })
	}
	err = group.Wait()

	if closeErr := loader.Close(); closeErr != nil {
		logger.Warn("closing loader", slog.Any("error", closeErr))
	}
	view.releaseAll()
	if closeErr := loop.Close(); closeErr != nil {
		logger.Warn("closing loop", slog.Any("error", closeErr))
	}
	logger.Info("simulation finished",
		slog.Uint64("frames", loop.Frame()),
		slog.Int("uploads", uploads),
		slog.Int("cached", cache.Len()),
		slog.Int("tilesReleased", int(released.Load())),
		slog.Int("fetches", int(server.fetches.Load())),
	)
	return err
}

// pan moves the camera from outside the loop; the move
// itself runs on the loop's goroutine.
func pan(ctx context.Context, loop *frameloop.Loop, view *viewer, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			loop.OnNextUpdate(view.step)
		}
	}
}

func serveMetrics(ctx context.Context, logger *slog.Logger, reg *prometheus.Registry, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	logger.Info("serving metrics", slog.String("addr", addr))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/djdv/go-frameloop"
	"github.com/djdv/go-frameloop/resultcache"
	"github.com/djdv/go-frameloop/scheduler"
	"github.com/djdv/go-frameloop/tracker"
)

type (
	// tile is decoded imagery, shared through the cache.
	tile struct {
		id     string
		pixels []byte
	}
	// texture stands in for a tile's device-side copy,
	// owned by the viewer.
	texture struct {
		tile *tile
	}

	uploaded bool

	tileServer struct {
		latency   time.Duration
		failRate  float64
		emptyRate float64
		fetches   atomic.Int64
	}

	shownTile struct {
		token   *tracker.Token[string]
		texture *texture // Nil for unavailable tiles.
	}

	// viewer is only touched from the loop's goroutine.
	viewer struct {
		log     *slog.Logger
		loop    *frameloop.Loop
		loader  *frameloop.Loader[*tile]
		shown   map[string]shownTile
		pending map[string]*scheduler.Job
		recency tracker.Tracker[string]
		camera  float64
		speed   float64
		width   int
	}
)

var (
	errTileServer = errors.New("tile server error")
	released      atomic.Int64
)

func (*texture) Release() { released.Add(1) }

func (u uploaded) RequiresUpdate() bool { return bool(u) }

func (ts *tileServer) Fetch(ctx context.Context, id string) ([]byte, error) {
	ts.fetches.Add(1)
	if ts.latency > 0 {
		timer := time.NewTimer(rand.N(ts.latency))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	switch roll := rand.Float64(); {
	case roll < ts.failRate:
		return nil, fmt.Errorf("%w: %s", errTileServer, id)
	case roll < ts.failRate+ts.emptyRate:
		return nil, nil
	}
	return []byte(id), nil
}

func decodeTile(id string, data []byte) (*tile, error) {
	return &tile{id: id, pixels: data}, nil
}

func compileTile(_ context.Context, object any) (frameloop.CompileResult, error) {
	tex, ok := object.(*texture)
	if !ok {
		return nil, fmt.Errorf("cannot compile %T", object)
	}
	return uploaded(len(tex.tile.pixels) > 0), nil
}

func tileID(column int) string {
	return resultcache.Key("tile", strconv.Itoa(column))
}

func newViewer(
	logger *slog.Logger, loop *frameloop.Loop, loader *frameloop.Loader[*tile],
	width int, speed float64,
) *viewer {
	return &viewer{
		log:     logger.With("component", "viewer"),
		loop:    loop,
		loader:  loader,
		shown:   make(map[string]shownTile),
		pending: make(map[string]*scheduler.Job),
		speed:   speed,
		width:   width,
	}
}

// step pans the camera, requests what came into view,
// and cancels or disposes what left it.
func (v *viewer) step() {
	v.camera += v.speed
	var (
		first   = int(math.Floor(v.camera))
		visible = make(map[string]struct{}, v.width)
	)
	for column := first; column < first+v.width; column++ {
		id := tileID(column)
		visible[id] = struct{}{}
		if shown, ok := v.shown[id]; ok {
			v.recency.Touch(shown.token, id)
			continue
		}
		if _, ok := v.pending[id]; ok {
			continue
		}
		v.request(id, float64(column))
	}
	for id, job := range v.pending {
		if _, ok := visible[id]; !ok {
			job.Cancel()
			delete(v.pending, id)
		}
	}
	// Tiles not touched this step are cold.
	v.recency.Evict(v.width, func(id string) bool {
		if shown, ok := v.shown[id]; ok {
			v.drop(id, shown)
		}
		return true
	})
	v.loop.RequestFrame()
}

func (v *viewer) request(id string, column float64) {
	// Nearest to the camera first.
	priority := func() float64 { return -math.Abs(column - v.camera) }
	job, err := v.loader.Request(id, priority, func(result resultcache.Result[*tile]) {
		v.show(id, result)
	})
	if err != nil {
		v.log.Warn("request failed", slog.String("id", id), slog.Any("error", err))
		return
	}
	v.pending[id] = job
}

func (v *viewer) show(id string, result resultcache.Result[*tile]) {
	delete(v.pending, id)
	var tex *texture
	if t, err := result.Unwrap(); err != nil {
		// Shown as a blank tile; the failure stays cached.
		v.log.Debug("tile unavailable", slog.String("id", id), slog.Any("error", err))
	} else {
		tex = &texture{tile: t}
		if err := v.loop.Compile(context.Background(), tex); err != nil {
			v.log.Warn("tile compile failed", slog.String("id", id), slog.Any("error", err))
		}
	}
	v.shown[id] = shownTile{
		token:   v.recency.Touch(nil, id),
		texture: tex,
	}
}

func (v *viewer) drop(id string, shown shownTile) {
	if shown.texture != nil {
		v.loop.Dispose(shown.texture)
	}
	delete(v.shown, id)
}

// releaseAll hands every shown tile to the loop for disposal.
// Called once the loop has stopped.
func (v *viewer) releaseAll() {
	for id, shown := range v.shown {
		v.drop(id, shown)
	}
	v.recency.Clear()
}

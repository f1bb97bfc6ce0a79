// Package prometheus provides Prometheus implementations of the
// metrics interfaces for the scheduler, disposal ring, and result cache.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/djdv/go-frameloop/disposal"
	"github.com/djdv/go-frameloop/resultcache"
	"github.com/djdv/go-frameloop/scheduler"
)

type (
	schedulerMetrics struct {
		submitted   prometheus.Counter
		discarded   prometheus.Counter
		taskRuntime prometheus.Histogram
		backlog     prometheus.Gauge
	}
	disposalMetrics struct {
		disposed  prometheus.Counter
		forwarded prometheus.Counter
		released  prometheus.Counter
		pending   prometheus.Gauge
	}
	// cacheMetrics are labeled by cache name, so several caches
	// may share one registry.
	cacheMetrics struct {
		hits    prometheus.Counter
		failed  prometheus.Counter
		misses  prometheus.Counter
		evicted prometheus.Counter
		entries prometheus.Gauge
	}
	// CacheMetricsFactory creates per-cache [resultcache.Metrics]
	// sharing a single set of registered vectors.
	CacheMetricsFactory struct {
		hits    *prometheus.CounterVec
		misses  *prometheus.CounterVec
		evicted *prometheus.CounterVec
		entries *prometheus.GaugeVec
	}
)

// Task runtimes are expected to stay well under a frame.
var taskBuckets = []float64{
	.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1,
}

// NewSchedulerMetrics creates a Prometheus implementation of [scheduler.Metrics].
func NewSchedulerMetrics(reg prometheus.Registerer) scheduler.Metrics {
	m := &schedulerMetrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frameloop_scheduler_tasks_submitted_total",
			Help: "Total number of tasks submitted",
		}),

		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frameloop_scheduler_tasks_discarded_total",
			Help: "Total number of canceled tasks dropped at selection",
		}),

		taskRuntime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "frameloop_scheduler_task_duration_seconds",
			Help:    "Selected task run time in seconds",
			Buckets: taskBuckets,
		}),

		backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "frameloop_scheduler_backlog",
			Help: "Tasks queued after the last selection",
		}),
	}

	reg.MustRegister(
		m.submitted,
		m.discarded,
		m.taskRuntime,
		m.backlog,
	)

	return m
}

func (m *schedulerMetrics) Submitted() { m.submitted.Inc() }
func (m *schedulerMetrics) Discarded() { m.discarded.Inc() }

func (m *schedulerMetrics) Ran(elapsed time.Duration) {
	m.taskRuntime.Observe(elapsed.Seconds())
}

func (m *schedulerMetrics) Backlog(depth int) {
	m.backlog.Set(float64(depth))
}

// NewDisposalMetrics creates a Prometheus implementation of [disposal.Metrics].
func NewDisposalMetrics(reg prometheus.Registerer) disposal.Metrics {
	m := &disposalMetrics{
		disposed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frameloop_disposal_objects_disposed_total",
			Help: "Total number of objects placed in the disposal ring",
		}),

		forwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frameloop_disposal_objects_forwarded_total",
			Help: "Total number of objects handed to a custom disposer",
		}),

		released: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frameloop_disposal_objects_released_total",
			Help: "Total number of objects released by the ring",
		}),

		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "frameloop_disposal_objects_pending",
			Help: "Objects awaiting release",
		}),
	}

	reg.MustRegister(
		m.disposed,
		m.forwarded,
		m.released,
		m.pending,
	)

	return m
}

func (m *disposalMetrics) Disposed()  { m.disposed.Inc() }
func (m *disposalMetrics) Forwarded() { m.forwarded.Inc() }

func (m *disposalMetrics) Released(released, pending int) {
	m.released.Add(float64(released))
	m.pending.Set(float64(pending))
}

// NewCacheMetricsFactory registers the result cache vectors with reg.
// Call [CacheMetricsFactory.For] once per cache.
func NewCacheMetricsFactory(reg prometheus.Registerer) *CacheMetricsFactory {
	f := &CacheMetricsFactory{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frameloop_cache_hits_total",
			Help: "Total number of lookups that found a result",
		}, []string{"cache", "failed"}),

		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frameloop_cache_misses_total",
			Help: "Total number of lookups that found nothing",
		}, []string{"cache"}),

		evicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frameloop_cache_evictions_total",
			Help: "Total number of entries removed by eviction",
		}, []string{"cache"}),

		entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "frameloop_cache_entries",
			Help: "Current number of cached results",
		}, []string{"cache"}),
	}

	reg.MustRegister(
		f.hits,
		f.misses,
		f.evicted,
		f.entries,
	)

	return f
}

// For returns the [resultcache.Metrics] for the cache called name.
func (f *CacheMetricsFactory) For(name string) resultcache.Metrics {
	return &cacheMetrics{
		hits:    f.hits.WithLabelValues(name, boolToStr(false)),
		failed:  f.hits.WithLabelValues(name, boolToStr(true)),
		misses:  f.misses.WithLabelValues(name),
		evicted: f.evicted.WithLabelValues(name),
		entries: f.entries.WithLabelValues(name),
	}
}

func (m *cacheMetrics) Hit(failed bool) {
	if failed {
		m.failed.Inc()
		return
	}
	m.hits.Inc()
}

func (m *cacheMetrics) Miss() { m.misses.Inc() }

func (m *cacheMetrics) Evicted(count int) { m.evicted.Add(float64(count)) }

func (m *cacheMetrics) Size(entries int) { m.entries.Set(float64(entries)) }

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

var (
	_ scheduler.Metrics   = (*schedulerMetrics)(nil)
	_ disposal.Metrics    = (*disposalMetrics)(nil)
	_ resultcache.Metrics = (*cacheMetrics)(nil)
)

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const namespace = "logview"

// Recomputation kinds
const (
	KindPipeline = "pipeline"
	KindSort     = "sort"
	KindSkipped  = "skipped"
	KindFailed   = "failed"
)

// Collector holds the metrics describing view pipeline work
type Collector struct {
	// View metrics
	Recomputations    *prometheus.CounterVec
	RecomputeDuration *prometheus.HistogramVec
	DisplayedRecords  prometheus.Gauge
	MatchCount        prometheus.Gauge
	SourceRecords     prometheus.Gauge

	// Search metrics
	InvalidSearchTerms prometheus.Counter

	// Loader metrics
	LoaderLines *prometheus.CounterVec

	// Follow metrics
	FollowReloads *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewCollector creates a new metrics collector on its own registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
	}

	c.initViewMetrics()
	c.initSearchMetrics()
	c.initLoaderMetrics()
	c.initFollowMetrics()

	return c
}

func (c *Collector) initViewMetrics() {
	c.Recomputations = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "recomputations_total",
			Help:      "Number of view updates by kind of work performed",
		},
		[]string{"kind"},
	)

	c.RecomputeDuration = promauto.With(c.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "recompute_duration_seconds",
			Help:      "Time taken to recompute the displayed sequence",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 16), // 10µs to ~650ms
		},
		[]string{"kind"},
	)

	c.DisplayedRecords = promauto.With(c.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "displayed_records",
			Help:      "Number of records in the displayed sequence",
		},
	)

	c.MatchCount = promauto.With(c.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "search_matches",
			Help:      "Number of highlighted search matches",
		},
	)

	c.SourceRecords = promauto.With(c.registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "source_records",
			Help:      "Number of records in the current record store",
		},
	)
}

func (c *Collector) initSearchMetrics() {
	c.InvalidSearchTerms = promauto.With(c.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "invalid_terms_total",
			Help:      "Search terms that failed to compile and were matched literally",
		},
	)
}

func (c *Collector) initLoaderMetrics() {
	c.LoaderLines = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "lines_total",
			Help:      "Lines read by the loader by outcome",
		},
		[]string{"format", "result"},
	)
}

func (c *Collector) initFollowMetrics() {
	c.FollowReloads = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "follow",
			Name:      "reloads_total",
			Help:      "Record stores published by the follower",
		},
		[]string{"reason"},
	)
}

// Registry returns the Prometheus registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Global metrics collector
var (
	globalCollector *Collector
	once            sync.Once
)

// GetGlobalCollector returns the global metrics collector
func GetGlobalCollector() *Collector {
	once.Do(func() {
		globalCollector = NewCollector()
	})
	return globalCollector
}

// Package metrics defines the Prometheus metric collectors used by the
// retrieval engine and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine. Each instance owns
// its registry so several engines (and tests) can coexist in one process.
type Metrics struct {
	Registry          *prometheus.Registry
	StageBuildsTotal  *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	CacheHitsTotal    *prometheus.CounterVec
	CacheMissesTotal  *prometheus.CounterVec
	CacheCorruptTotal *prometheus.CounterVec
	DocsIndexedTotal  prometheus.Counter
	DocsRejectedTotal *prometheus.CounterVec
	QueriesTotal      *prometheus.CounterVec
	QueryLatency      *prometheus.HistogramVec
	QueryResultsCount *prometheus.HistogramVec
	VocabularySize    prometheus.Gauge
	IndexTermCount    prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StageBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stage_builds_total",
				Help: "Pipeline stage executions by stage and result (hit, built, error).",
			},
			[]string{"stage", "result"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stage_duration_seconds",
				Help:    "Pipeline stage latency in seconds, including cache lookups.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Stage cache hits.",
			},
			[]string{"stage"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Stage cache misses, including corrupt entries.",
			},
			[]string{"stage"},
		),
		CacheCorruptTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_corrupt_entries_total",
				Help: "Stage cache entries discarded because they failed validation.",
			},
			[]string{"stage"},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents added to an inverted index.",
			},
		),
		DocsRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docs_rejected_total",
				Help: "Documents skipped during a build, by stage.",
			},
			[]string{"stage"},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queries_total",
				Help: "Queries by kind (boolean, vector) and result (ok, zero_result, error).",
			},
			[]string{"kind", "result"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_latency_seconds",
				Help:    "Query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"kind"},
		),
		QueryResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_results_count",
				Help:    "Number of results returned per query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 1000},
			},
			[]string{"kind"},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vector_vocabulary_size",
				Help: "Number of feature terms in the active TF-IDF model.",
			},
		),
		IndexTermCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_term_count",
				Help: "Number of distinct terms in the active inverted index.",
			},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		m.StageBuildsTotal,
		m.StageDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheCorruptTotal,
		m.DocsIndexedTotal,
		m.DocsRejectedTotal,
		m.QueriesTotal,
		m.QueryLatency,
		m.QueryResultsCount,
		m.VocabularySize,
		m.IndexTermCount,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

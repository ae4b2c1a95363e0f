// Package metrics exposes the aggregation pipeline's counters. Fetch
// failures never reach API callers, so these series are the only place
// failure kinds stay visible.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "event_aggregator"

type Metrics struct {
	FetchFailures *prometheus.CounterVec
	FetchedItems  *prometheus.CounterVec
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	FetchDuration *prometheus.SummaryVec
}

// New creates and registers the pipeline metrics on reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh
// prometheus.NewRegistry to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Source fetches that contributed nothing, by failure kind",
		}, []string{"source", "kind"}),
		FetchedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetched_items_total",
			Help:      "Events returned by each source across refresh cycles",
		}, []string{"source"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Dataset requests served from cache",
		}, []string{"dataset"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Dataset requests that triggered a fetch cycle",
		}, []string{"dataset"}),
		FetchDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of full fetch cycles per dataset",
		}, []string{"dataset"}),
	}

	reg.MustRegister(
		m.FetchFailures, m.FetchedItems,
		m.CacheHits, m.CacheMisses,
		m.FetchDuration,
	)
	return m
}

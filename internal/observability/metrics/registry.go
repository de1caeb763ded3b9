// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source metrics track per-adapter fetch behavior
var (
	// SourceFetchTotal counts adapter fetches by source and outcome
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_source_fetch_total",
			Help: "Total number of source adapter fetches",
		},
		[]string{"source", "status"},
	)

	// SourceFetchDuration measures adapter fetch duration in seconds
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_source_fetch_duration_seconds",
			Help:    "Source adapter fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// SourceItemsFetched counts normalized items produced per source
	SourceItemsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_source_items_total",
			Help: "Total number of items produced by source adapters",
		},
		[]string{"source"},
	)
)

// Transport metrics track direct/relay path selection and outcomes
var (
	// DirectProbeTotal counts first-time direct fetch attempts by outcome
	DirectProbeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_transport_direct_probe_total",
			Help: "Total number of direct fetch probes",
		},
		[]string{"status"},
	)

	// RelayRequestsTotal counts relay-path requests by relay name and outcome
	RelayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_transport_relay_requests_total",
			Help: "Total number of requests issued through fallback relays",
		},
		[]string{"relay", "status"},
	)
)

// Cache metrics track hit rates and eviction pressure
var (
	// CacheOpsTotal counts cache operations by operation and result
	CacheOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_cache_ops_total",
			Help: "Total number of cache operations",
		},
		[]string{"op", "result"},
	)
)

// Aggregation metrics track pipeline runs
var (
	// AggregationRunsTotal counts aggregation runs per category
	AggregationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_aggregation_runs_total",
			Help: "Total number of aggregation runs",
		},
		[]string{"category"},
	)

	// AggregationDuration measures full aggregation run duration in seconds
	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_aggregation_duration_seconds",
			Help:    "Aggregation run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	// AggregationItems tracks the item count of the most recent run
	AggregationItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "digest_aggregation_items",
			Help: "Number of items returned by the most recent aggregation run",
		},
		[]string{"category"},
	)

	// AggregationSourceErrors counts failed adapters across aggregation runs
	AggregationSourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_aggregation_source_errors_total",
			Help: "Total number of adapter failures observed by the aggregator",
		},
		[]string{"category"},
	)
)

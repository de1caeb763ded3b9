package metrics

import "time"

// RecordSourceFetch records the outcome of one adapter fetch.
// Status should be "success", "failure" or "cache_hit".
func RecordSourceFetch(source, status string, duration time.Duration) {
	SourceFetchTotal.WithLabelValues(source, status).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordSourceItems records the number of normalized items an adapter produced.
func RecordSourceItems(source string, count int) {
	if count > 0 {
		SourceItemsFetched.WithLabelValues(source).Add(float64(count))
	}
}

// RecordDirectProbe records a first-time direct fetch attempt.
func RecordDirectProbe(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	DirectProbeTotal.WithLabelValues(status).Inc()
}

// RecordRelayRequest records a request issued through a fallback relay.
// Status should be "success", "failure" or "rejected" (HTML masquerade guard).
func RecordRelayRequest(relay, status string) {
	RelayRequestsTotal.WithLabelValues(relay, status).Inc()
}

// RecordCacheHit records a cache read that returned a valid entry.
func RecordCacheHit() { CacheOpsTotal.WithLabelValues("get", "hit").Inc() }

// RecordCacheMiss records a cache read that found no valid entry.
func RecordCacheMiss() { CacheOpsTotal.WithLabelValues("get", "miss").Inc() }

// RecordCacheExpired records a lazily evicted stale entry.
func RecordCacheExpired() { CacheOpsTotal.WithLabelValues("get", "expired").Inc() }

// RecordCacheEviction records a capacity eviction triggered by a full store.
func RecordCacheEviction() { CacheOpsTotal.WithLabelValues("set", "evicted").Inc() }

// RecordCacheDrop records a write silently dropped after eviction and retry.
func RecordCacheDrop() { CacheOpsTotal.WithLabelValues("set", "dropped").Inc() }

// RecordAggregation records metrics for one aggregation run.
func RecordAggregation(category string, duration time.Duration, items, errors int) {
	AggregationRunsTotal.WithLabelValues(category).Inc()
	AggregationDuration.WithLabelValues(category).Observe(duration.Seconds())
	AggregationItems.WithLabelValues(category).Set(float64(items))
	if errors > 0 {
		AggregationSourceErrors.WithLabelValues(category).Add(float64(errors))
	}
}

// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Source adapter metrics (fetch counts, durations, item yields)
//   - Transport metrics (direct probes, relay fallbacks)
//   - Cache metrics (hits, misses, evictions)
//   - Aggregation pipeline metrics (runs, durations, partial failures)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "ai-digest/internal/observability/metrics"
//
//	func fetchSource(name string) {
//	    start := time.Now()
//	    // ... fetch and normalize ...
//	    metrics.RecordSourceFetch(name, "success", time.Since(start))
//	    metrics.RecordSourceItems(name, len(items))
//	}
package metrics

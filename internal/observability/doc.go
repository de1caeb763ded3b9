// Package observability provides observability infrastructure for the
// aggregation pipeline: structured logging and Prometheus metrics.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//
// Example usage:
//
//	import (
//	    "ai-digest/internal/observability/logging"
//	    "ai-digest/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//
//	    metrics.RecordSourceItems("hackernews", 10)
//	}
package observability

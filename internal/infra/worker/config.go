package worker

import (
	"fmt"
	"log/slog"
	"time"

	"ai-digest/internal/pkg/config"
)

// WorkerConfig controls the refresh daemon: cache backend selection,
// the nightly maintenance schedule and the health endpoint.
type WorkerConfig struct {
	// MaintenanceSchedule is the cron expression of the cache
	// maintenance job (expired-row sweep and vacuum).
	MaintenanceSchedule string

	// Timezone is the IANA timezone the maintenance schedule runs in.
	Timezone string

	// CacheBackend selects the cache store, "memory" or "sqlite".
	CacheBackend string

	// CachePath is the SQLite database path. Ignored for the memory
	// backend.
	CachePath string

	// CacheMaxEntries bounds the cache store.
	CacheMaxEntries int

	// RefreshTimeout caps one aggregation run.
	RefreshTimeout time.Duration

	// HealthPort serves the liveness and readiness probes.
	HealthPort int
}

// DefaultWorkerConfig returns production defaults: an in-memory cache,
// a 4:30 AM maintenance sweep and the usual exporter health port.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		MaintenanceSchedule: "30 4 * * *",
		Timezone:            "UTC",
		CacheBackend:        "memory",
		CachePath:           "data/cache.db",
		CacheMaxEntries:     512,
		RefreshTimeout:      2 * time.Minute,
		HealthPort:          9091,
	}
}

// Validate checks the configuration invariants.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.MaintenanceSchedule); err != nil {
		errs = append(errs, fmt.Errorf("maintenance schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := validateCacheBackend(c.CacheBackend); err != nil {
		errs = append(errs, err)
	}
	if err := config.ValidateIntRange(c.CacheMaxEntries, 16, 1<<20); err != nil {
		errs = append(errs, fmt.Errorf("cache max entries: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.RefreshTimeout); err != nil {
		errs = append(errs, fmt.Errorf("refresh timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

func validateCacheBackend(backend string) error {
	switch backend {
	case "memory", "sqlite":
		return nil
	default:
		return fmt.Errorf("cache backend must be memory or sqlite, got %q", backend)
	}
}

// LoadWorkerConfigFromEnv loads the worker configuration from the
// environment, falling back field by field to the defaults on invalid
// input. It never fails; a broken environment yields a running worker
// on defaults with the fallbacks visible in the config metrics.
//
// Environment variables:
//   - DIGEST_MAINTENANCE_SCHEDULE: cron expression (default "30 4 * * *")
//   - DIGEST_WORKER_TIMEZONE: IANA timezone (default "UTC")
//   - DIGEST_CACHE_BACKEND: "memory" or "sqlite" (default "memory")
//   - DIGEST_CACHE_PATH: SQLite path (default "data/cache.db")
//   - DIGEST_CACHE_MAX_ENTRIES: 16-1048576 (default 512)
//   - DIGEST_REFRESH_TIMEOUT: duration, 10s-30m (default 2m)
//   - DIGEST_WORKER_HEALTH_PORT: 1024-65535 (default 9091)
func LoadWorkerConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) *WorkerConfig {
	cfg := DefaultWorkerConfig()
	fallbackApplied := false

	load := func(field string, result config.ConfigLoadResult) config.ConfigLoadResult {
		if result.FallbackApplied {
			fallbackApplied = true
			metrics.RecordValidationError(field)
			metrics.RecordFallback(field)
			for _, warning := range result.Warnings {
				logger.Warn("configuration fallback applied",
					slog.String("field", field),
					slog.String("warning", warning))
			}
		}
		return result
	}

	r := load("maintenance_schedule", config.LoadEnvWithFallback("DIGEST_MAINTENANCE_SCHEDULE", cfg.MaintenanceSchedule, config.ValidateCronSchedule))
	cfg.MaintenanceSchedule = r.Value.(string)

	r = load("timezone", config.LoadEnvWithFallback("DIGEST_WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.Timezone = r.Value.(string)

	r = load("cache_backend", config.LoadEnvWithFallback("DIGEST_CACHE_BACKEND", cfg.CacheBackend, validateCacheBackend))
	cfg.CacheBackend = r.Value.(string)

	cfg.CachePath = config.LoadEnvString("DIGEST_CACHE_PATH", cfg.CachePath)

	r = load("cache_max_entries", config.LoadEnvInt("DIGEST_CACHE_MAX_ENTRIES", cfg.CacheMaxEntries, func(v int) error {
		return config.ValidateIntRange(v, 16, 1<<20)
	}))
	cfg.CacheMaxEntries = r.Value.(int)

	r = load("refresh_timeout", config.LoadEnvDuration("DIGEST_REFRESH_TIMEOUT", cfg.RefreshTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 10*time.Second, 30*time.Minute)
	}))
	cfg.RefreshTimeout = r.Value.(time.Duration)

	r = load("health_port", config.LoadEnvInt("DIGEST_WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	}))
	cfg.HealthPort = r.Value.(int)

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg
}

package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"ai-digest/internal/config"
	"ai-digest/internal/infra/cache"
	"ai-digest/internal/infra/source"
	"ai-digest/internal/infra/transport"
	workerPkg "ai-digest/internal/infra/worker"
	"ai-digest/internal/observability/logging"
	pkgcfg "ai-digest/internal/pkg/config"
	"ai-digest/internal/usecase/aggregate"
	"ai-digest/internal/usecase/learning"
	"ai-digest/internal/usecase/podcast"
	"ai-digest/internal/usecase/score"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	configMetrics := pkgcfg.NewConfigMetrics("digest_worker")
	workerCfg := workerPkg.LoadWorkerConfigFromEnv(logger, configMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cache_backend", workerCfg.CacheBackend),
		slog.String("maintenance_schedule", workerCfg.MaintenanceSchedule),
		slog.Duration("refresh_timeout", workerCfg.RefreshTimeout),
		slog.Int("health_port", workerCfg.HealthPort))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	store, sqliteStore, err := openStore(workerCfg)
	if err != nil {
		logger.Error("failed to open cache store", slog.Any("error", err))
		os.Exit(1)
	}
	if sqliteStore != nil {
		defer func() {
			if err := sqliteStore.Close(); err != nil {
				logger.Error("failed to close cache store", slog.Any("error", err))
			}
		}()
	}
	itemCache := cache.New(store)

	client := transport.NewClient(transport.ClientConfig{
		Relays:     toRelays(cfg.Relays),
		HTTPClient: newHTTPClient(),
	})

	scorer := score.NewEngine(score.DefaultConfig())
	news, papers, releases := buildAdapters(cfg, client, itemCache, scorer)
	aggregator := aggregate.NewService(news, papers, releases, scorer)

	podcasts := podcast.NewService(client, itemCache, cfg.Channels, cfg.CacheTTL.Podcasts)
	resources := learning.NewService(client, itemCache, 30*time.Minute)

	startMetricsServer(ctx, logger)

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerCfg.HealthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	scheduler := workerPkg.NewScheduler(logger,
		workerPkg.Job{
			Name:     "news",
			Interval: cfg.RefreshIntervals.News,
			Run: func(ctx context.Context) {
				runWithTimeout(ctx, workerCfg.RefreshTimeout, func(ctx context.Context) {
					aggregator.FetchNews(ctx)
				})
			},
		},
		workerPkg.Job{
			Name:     "papers",
			Interval: cfg.RefreshIntervals.Papers,
			Run: func(ctx context.Context) {
				runWithTimeout(ctx, workerCfg.RefreshTimeout, func(ctx context.Context) {
					aggregator.FetchPapers(ctx)
				})
			},
		},
		workerPkg.Job{
			Name:     "releases",
			Interval: cfg.RefreshIntervals.Releases,
			Run: func(ctx context.Context) {
				runWithTimeout(ctx, workerCfg.RefreshTimeout, func(ctx context.Context) {
					aggregator.FetchReleases(ctx)
				})
			},
		},
		workerPkg.Job{
			Name:     "podcasts",
			Interval: cfg.CacheTTL.Podcasts,
			Run: func(ctx context.Context) {
				runWithTimeout(ctx, workerCfg.RefreshTimeout, func(ctx context.Context) {
					podcasts.FetchAll(ctx)
				})
			},
		},
		workerPkg.Job{
			Name:     "learning",
			Interval: 30 * time.Minute,
			Run: func(ctx context.Context) {
				runWithTimeout(ctx, workerCfg.RefreshTimeout, func(ctx context.Context) {
					warmLearningTopics(ctx, resources)
				})
			},
		},
	)

	scheduler.Start(ctx)
	defer scheduler.Stop()
	go scheduler.Watch(ctx, workerPkg.AlwaysActive{})

	startMaintenance(ctx, logger, workerCfg, sqliteStore)

	// Prime every category once so consumers see data before the first
	// interval elapses.
	runWithTimeout(ctx, workerCfg.RefreshTimeout, func(ctx context.Context) {
		aggregator.FetchNews(ctx)
		aggregator.FetchPapers(ctx)
		aggregator.FetchReleases(ctx)
	})
	healthServer.SetReady(true)
	logger.Info("worker ready")

	<-ctx.Done()
	healthServer.SetReady(false)
	logger.Info("worker shutting down")
}

// openStore builds the cache store from the configured backend. The
// second return value is non-nil only for the SQLite backend, which
// needs closing and maintenance.
func openStore(cfg *workerPkg.WorkerConfig) (cache.Store, *cache.SQLiteStore, error) {
	if cfg.CacheBackend == "sqlite" {
		s, err := cache.OpenSQLiteStore(cfg.CachePath, cfg.CacheMaxEntries)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
	return cache.NewMemoryStore(cfg.CacheMaxEntries), nil, nil
}

// buildAdapters wires the configured adapter sets and registers each
// feed's authority weight with the scoring engine.
func buildAdapters(cfg config.Config, client *transport.Client, c *cache.Cache, scorer *score.Engine) (news, papers, releases []source.Fetcher) {
	max := cfg.MaxItemsPerSource

	news = []source.Fetcher{
		source.NewHackerNews(client, c, cfg.Queries.HackerNews, max, cfg.CacheTTL.News),
		source.NewDevto(client, c, cfg.Queries.DevtoTags, max, cfg.CacheTTL.News),
		source.NewReddit(client, c, cfg.Queries.RedditSubreddits, max, cfg.CacheTTL.News),
	}
	for _, feed := range cfg.Feeds {
		adapter := source.NewRSS(client, c, feed.Name, feed.URL, max, cfg.CacheTTL.News)
		scorer.SetAuthority(adapter.Name(), feed.Authority)
		news = append(news, adapter)
	}

	papers = []source.Fetcher{
		source.NewArxiv(client, c, cfg.Queries.ArxivCategories, max, cfg.CacheTTL.Papers),
		source.NewSemanticScholar(client, c, cfg.Queries.SemanticScholar, max, cfg.CacheTTL.Papers),
		source.NewHuggingFace(client, c, max, cfg.CacheTTL.Papers),
	}

	releases = []source.Fetcher{
		source.NewMajorReleases(c, cfg.ReleasesFile, max, cfg.CacheTTL.Releases),
		source.NewHNReleases(client, c, cfg.CacheTTL.Releases),
	}
	return news, papers, releases
}

// startMaintenance schedules the nightly cache vacuum for the SQLite
// backend. The memory backend has nothing to compact.
func startMaintenance(ctx context.Context, logger *slog.Logger, cfg *workerPkg.WorkerConfig, store *cache.SQLiteStore) {
	if store == nil {
		return
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC",
			slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.MaintenanceSchedule, func() {
		err := store.Vacuum()
		workerPkg.RecordMaintenance(err)
		if err != nil {
			logger.Error("cache maintenance failed", slog.Any("error", err))
			return
		}
		logger.Info("cache maintenance completed")
	})
	if err != nil {
		logger.Error("failed to schedule cache maintenance", slog.Any("error", err))
		return
	}
	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	logger.Info("cache maintenance scheduled",
		slog.String("schedule", cfg.MaintenanceSchedule),
		slog.String("timezone", cfg.Timezone))
}

// warmLearningTopics prefetches the trending resources of every topic
// so on-demand reads hit the cache.
func warmLearningTopics(ctx context.Context, svc *learning.Service) {
	logger := logging.FromContext(ctx)
	for topicID := range learning.Topics {
		if ctx.Err() != nil {
			return
		}
		if _, err := svc.FetchTrending(ctx, topicID); err != nil {
			logger.Warn("learning topic prefetch failed",
				slog.String("topic", topicID),
				slog.String("error", err.Error()))
		}
	}
}

func runWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context)) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	fn(runCtx)
}

func toRelays(relays []config.Relay) []transport.Relay {
	out := make([]transport.Relay, 0, len(relays))
	for _, r := range relays {
		out = append(out, transport.Relay{Name: r.Name, URLTemplate: r.URLTemplate})
	}
	return out
}

// newHTTPClient builds the shared HTTP client: pooled connections and
// TLS 1.2 minimum. Per-attempt deadlines come from request contexts.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

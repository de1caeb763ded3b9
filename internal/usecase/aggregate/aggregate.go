// Package aggregate fans out across source adapters, merges their items,
// drops duplicates and returns a scored, sorted result per category.
package aggregate

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-digest/internal/domain/entity"
	"ai-digest/internal/infra/source"
	"ai-digest/internal/observability/logging"
	"ai-digest/internal/observability/metrics"
	"ai-digest/internal/usecase/score"
)

// Category names a group of adapters fetched and ranked together.
type Category string

const (
	CategoryNews     Category = "news"
	CategoryPapers   Category = "papers"
	CategoryReleases Category = "releases"
)

// Result is the outcome of one aggregation run. Errors holds one
// message per failed adapter; a run with errors is still usable as
// long as some adapters delivered.
type Result struct {
	Items  []entity.Item `json:"items"`
	Errors []string      `json:"errors,omitempty"`
}

// Service wires the per-category adapter sets to the scoring engine.
type Service struct {
	news     []source.Fetcher
	papers   []source.Fetcher
	releases []source.Fetcher
	scorer   *score.Engine
}

// NewService creates the aggregation service.
func NewService(news, papers, releases []source.Fetcher, scorer *score.Engine) *Service {
	return &Service{
		news:     news,
		papers:   papers,
		releases: releases,
		scorer:   scorer,
	}
}

// FetchNews aggregates the news adapters.
func (s *Service) FetchNews(ctx context.Context) Result {
	return s.run(ctx, CategoryNews, s.news)
}

// FetchPapers aggregates the research paper adapters.
func (s *Service) FetchPapers(ctx context.Context) Result {
	return s.run(ctx, CategoryPapers, s.papers)
}

// FetchReleases aggregates the release adapters.
func (s *Service) FetchReleases(ctx context.Context) Result {
	return s.run(ctx, CategoryReleases, s.releases)
}

// run executes every adapter of a category concurrently and waits for
// all of them. A failing adapter contributes an error message instead
// of aborting the run.
func (s *Service) run(ctx context.Context, category Category, fetchers []source.Fetcher) Result {
	runID := uuid.NewString()
	logger := logging.FromContext(ctx).With(
		slog.String("run_id", runID),
		slog.String("category", string(category)),
	)
	start := time.Now()

	type outcome struct {
		name  string
		items []entity.Item
		err   error
	}

	outcomes := make([]outcome, len(fetchers))
	var wg sync.WaitGroup
	for i, f := range fetchers {
		i, f := i, f
		wg.Add(1)
		go func() {
			defer wg.Done()
			fetchStart := time.Now()
			items, err := f.FetchItems(ctx)
			status := "success"
			if err != nil {
				status = "failure"
			}
			metrics.RecordSourceFetch(f.Name(), status, time.Since(fetchStart))
			if err == nil {
				metrics.RecordSourceItems(f.Name(), len(items))
			}
			outcomes[i] = outcome{name: f.Name(), items: items, err: err}
		}()
	}
	wg.Wait()

	var merged []entity.Item
	var errs []string
	for _, o := range outcomes {
		if o.err != nil {
			logger.Warn("source fetch failed",
				slog.String("source", o.name),
				slog.String("error", o.err.Error()))
			errs = append(errs, o.err.Error())
			continue
		}
		for _, item := range o.items {
			if err := item.Validate(); err != nil {
				logger.Warn("dropping malformed item",
					slog.String("source", o.name),
					slog.String("id", item.ID),
					slog.String("error", err.Error()))
				continue
			}
			merged = append(merged, item)
		}
	}

	deduped := Deduplicate(merged)
	ranked := s.scorer.ScoreAndSort(deduped)

	metrics.RecordAggregation(string(category), time.Since(start), len(ranked), len(errs))
	logger.Info("aggregation run finished",
		slog.Int("sources", len(fetchers)),
		slog.Int("items", len(ranked)),
		slog.Int("dropped_duplicates", len(merged)-len(deduped)),
		slog.Int("errors", len(errs)),
		slog.Duration("elapsed", time.Since(start)))

	return Result{Items: ranked, Errors: errs}
}

// Deduplicate removes items sharing a URL or a normalized title with an
// earlier item. First occurrence wins, so callers control precedence by
// adapter order.
func Deduplicate(items []entity.Item) []entity.Item {
	seen := make(map[string]bool, len(items)*2)
	out := make([]entity.Item, 0, len(items))
	for _, item := range items {
		key := normalizeTitle(item.Title)
		if seen[item.URL] || seen[key] {
			continue
		}
		seen[item.URL] = true
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// normalizeTitle lowercases, strips everything but letters and digits
// and keeps the first 60 bytes, so near-identical headlines from
// different sources collide.
func normalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(60)
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= 60 {
				break
			}
		}
	}
	return b.String()
}

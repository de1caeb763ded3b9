package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"ai-digest/internal/domain/entity"
	"ai-digest/internal/infra/cache"
)

type majorReleasesFile struct {
	Releases []majorReleaseEntry `json:"releases"`
}

type majorReleaseEntry struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Description  string   `json:"description"`
	Vendor       string   `json:"vendor"`
	Date         string   `json:"date"`
	Significance float64  `json:"significance"`
	Tags         []string `json:"tags"`
}

// MajorReleases serves a hand-curated list of flagship model and
// product launches from a local JSON file. Curated entries carry only
// a calendar date, so each release is pinned to noon UTC to keep
// recency scoring stable across timezones.
type MajorReleases struct {
	cache    *cache.Cache
	path     string
	maxItems int
	ttl      time.Duration
}

// NewMajorReleases creates the curated releases adapter. path points at
// the releases JSON file.
func NewMajorReleases(c *cache.Cache, path string, maxItems int, ttl time.Duration) *MajorReleases {
	return &MajorReleases{
		cache:    c,
		path:     path,
		maxItems: maxItems,
		ttl:      ttl,
	}
}

// Name implements Fetcher.
func (m *MajorReleases) Name() string { return "major_releases" }

// FetchItems implements Fetcher.
func (m *MajorReleases) FetchItems(ctx context.Context) ([]entity.Item, error) {
	var cached []entity.Item
	if m.cache.Get(m.Name(), &cached) {
		return cached, nil
	}

	raw, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("major releases: %w", err)
	}

	var file majorReleasesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("major releases: parse %s: %w", m.path, err)
	}

	items := make([]entity.Item, 0, len(file.Releases))
	for _, rel := range file.Releases {
		item, err := m.mapEntry(rel)
		if err != nil {
			return nil, fmt.Errorf("major releases: entry %q: %w", rel.ID, err)
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > m.maxItems {
		items = items[:m.maxItems]
	}

	m.cache.Set(m.Name(), items, m.ttl)
	return items, nil
}

func (m *MajorReleases) mapEntry(rel majorReleaseEntry) (entity.Item, error) {
	day, err := time.Parse("2006-01-02", rel.Date)
	if err != nil {
		return entity.Item{}, err
	}
	published := day.Add(12 * time.Hour)

	tags := rel.Tags
	if len(tags) == 0 {
		tags = []string{"release"}
	}

	return entity.Item{
		ID:          "release-" + rel.ID,
		Title:       rel.Title,
		URL:         rel.URL,
		Description: rel.Description,
		Source:      "major_releases",
		SourceName:  rel.Vendor,
		PublishedAt: published,
		Engagement:  entity.Engagement{Score: rel.Significance},
		Tags:        tags,
		Type:        entity.TypeRelease,
		Extra:       map[string]any{"vendor": rel.Vendor, "significance": rel.Significance},
	}, nil
}

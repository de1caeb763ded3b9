package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"ai-digest/internal/domain/entity"
	"ai-digest/internal/infra/cache"
	"ai-digest/internal/infra/transport"
	"ai-digest/internal/utils/text"
)

const defaultAlgoliaBaseURL = "https://hn.algolia.com/api/v1/search"

// algoliaHit is one story from the HN Algolia search API.
type algoliaHit struct {
	ObjectID    string    `json:"objectID"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	StoryText   string    `json:"story_text"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
	Points      int       `json:"points"`
	NumComments int       `json:"num_comments"`
}

type algoliaResponse struct {
	Hits []algoliaHit `json:"hits"`
}

// HackerNews fetches AI-related stories from the HN Algolia search API.
type HackerNews struct {
	client   *transport.Client
	cache    *cache.Cache
	baseURL  string
	query    string
	maxItems int
	ttl      time.Duration
	now      func() time.Time
}

// NewHackerNews creates the Hacker News adapter.
func NewHackerNews(client *transport.Client, c *cache.Cache, query string, maxItems int, ttl time.Duration) *HackerNews {
	return &HackerNews{
		client:   client,
		cache:    c,
		baseURL:  defaultAlgoliaBaseURL,
		query:    query,
		maxItems: maxItems,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Name implements Fetcher.
func (h *HackerNews) Name() string { return "hackernews" }

// FetchItems implements Fetcher. Stories older than a week are excluded at
// the API level.
func (h *HackerNews) FetchItems(ctx context.Context) ([]entity.Item, error) {
	var cached []entity.Item
	if h.cache.Get(h.Name(), &cached) {
		return cached, nil
	}

	weekAgo := h.now().Add(-7 * 24 * time.Hour).Unix()
	reqURL := fmt.Sprintf("%s?query=%s&tags=story&numericFilters=created_at_i>%d&hitsPerPage=%d",
		h.baseURL, url.QueryEscape(h.query), weekAgo, h.maxItems)

	var payload algoliaResponse
	if err := h.client.GetJSON(ctx, reqURL, transport.Options{}, &payload); err != nil {
		return nil, fmt.Errorf("hackernews: %w", err)
	}

	items := make([]entity.Item, 0, len(payload.Hits))
	for _, hit := range payload.Hits {
		items = append(items, h.mapHit(hit))
	}

	h.cache.Set(h.Name(), items, h.ttl)
	return items, nil
}

func (h *HackerNews) mapHit(hit algoliaHit) entity.Item {
	storyURL := hit.URL
	if storyURL == "" {
		storyURL = "https://news.ycombinator.com/item?id=" + hit.ObjectID
	}
	return entity.Item{
		ID:          "hn-" + hit.ObjectID,
		Title:       hit.Title,
		URL:         storyURL,
		Description: text.Truncate(hit.StoryText, shortDescriptionLimit),
		Source:      "hackernews",
		SourceName:  "Hacker News",
		Author:      hit.Author,
		PublishedAt: hit.CreatedAt,
		Engagement:  entity.Engagement{Score: float64(hit.Points), Comments: hit.NumComments},
		Tags:        []string{"ai"},
		Type:        entity.TypeNews,
	}
}

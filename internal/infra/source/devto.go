package source

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ai-digest/internal/domain/entity"
	"ai-digest/internal/infra/cache"
	"ai-digest/internal/infra/transport"
	"ai-digest/internal/utils/text"
)

const defaultDevtoBaseURL = "https://dev.to/api/articles"

type devtoArticle struct {
	ID                int       `json:"id"`
	Title             string    `json:"title"`
	URL               string    `json:"url"`
	Description       string    `json:"description"`
	PublishedAt       time.Time `json:"published_at"`
	PositiveReactions int       `json:"positive_reactions_count"`
	CommentsCount     int       `json:"comments_count"`
	TagList           []string  `json:"tag_list"`
	User              devtoUser `json:"user"`
}

type devtoUser struct {
	Name string `json:"name"`
}

// Devto fetches recent articles per tag from the dev.to API and merges
// the per-tag pages into one list.
type Devto struct {
	client   *transport.Client
	cache    *cache.Cache
	baseURL  string
	tags     []string
	maxItems int
	ttl      time.Duration
}

// NewDevto creates the dev.to adapter.
func NewDevto(client *transport.Client, c *cache.Cache, tags []string, maxItems int, ttl time.Duration) *Devto {
	return &Devto{
		client:   client,
		cache:    c,
		baseURL:  defaultDevtoBaseURL,
		tags:     tags,
		maxItems: maxItems,
		ttl:      ttl,
	}
}

// Name implements Fetcher.
func (d *Devto) Name() string { return "devto" }

// FetchItems implements Fetcher. Tags are fetched concurrently and a tag
// page failure only drops that tag's articles.
func (d *Devto) FetchItems(ctx context.Context) ([]entity.Item, error) {
	var cached []entity.Item
	if d.cache.Get(d.Name(), &cached) {
		return cached, nil
	}
	if len(d.tags) == 0 {
		return nil, nil
	}

	perTag := int(math.Ceil(float64(d.maxItems) / float64(len(d.tags))))

	var (
		mu    sync.Mutex
		items []entity.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, tag := range d.tags {
		tag := tag
		g.Go(func() error {
			reqURL := fmt.Sprintf("%s?tag=%s&per_page=%d&top=7", d.baseURL, tag, perTag)
			var articles []devtoArticle
			if err := d.client.GetJSON(gctx, reqURL, transport.Options{}, &articles); err != nil {
				return nil
			}
			mapped := make([]entity.Item, 0, len(articles))
			for _, a := range articles {
				mapped = append(mapped, d.mapArticle(a))
			}
			mu.Lock()
			items = append(items, mapped...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("devto: %w", err)
	}

	// Articles carrying several configured tags come back once per tag page.
	seen := make(map[string]bool, len(items))
	unique := items[:0]
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		unique = append(unique, it)
	}
	items = unique

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if len(items) > d.maxItems {
		items = items[:d.maxItems]
	}

	d.cache.Set(d.Name(), items, d.ttl)
	return items, nil
}

func (d *Devto) mapArticle(a devtoArticle) entity.Item {
	return entity.Item{
		ID:          fmt.Sprintf("devto-%d", a.ID),
		Title:       a.Title,
		URL:         a.URL,
		Description: text.Truncate(a.Description, descriptionLimit),
		Source:      "devto",
		SourceName:  "DEV Community",
		Author:      a.User.Name,
		PublishedAt: a.PublishedAt,
		Engagement:  entity.Engagement{Score: float64(a.PositiveReactions), Comments: a.CommentsCount},
		Tags:        a.TagList,
		Type:        entity.TypeNews,
	}
}

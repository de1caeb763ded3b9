package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-digest/internal/domain/entity"
	"ai-digest/internal/infra/cache"
	"ai-digest/internal/infra/transport"
	"ai-digest/internal/utils/text"
)

const defaultRedditBaseURL = "https://www.reddit.com"

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Stickied    bool    `json:"stickied"`
	Subreddit   string  `json:"subreddit"`
}

// Reddit fetches hot posts from a multireddit of AI subreddits. Reddit
// blocks many datacenter IP ranges, so requests go straight through the
// relay chain.
type Reddit struct {
	client   *transport.Client
	cache    *cache.Cache
	baseURL  string
	multi    string
	maxItems int
	ttl      time.Duration
}

// NewReddit creates the Reddit adapter. multi is a '+'-joined multireddit
// path segment such as "artificial+MachineLearning".
func NewReddit(client *transport.Client, c *cache.Cache, multi string, maxItems int, ttl time.Duration) *Reddit {
	return &Reddit{
		client:   client,
		cache:    c,
		baseURL:  defaultRedditBaseURL,
		multi:    multi,
		maxItems: maxItems,
		ttl:      ttl,
	}
}

// Name implements Fetcher.
func (r *Reddit) Name() string { return "reddit" }

// FetchItems implements Fetcher. Stickied mod posts are skipped and do
// not count against the item limit.
func (r *Reddit) FetchItems(ctx context.Context) ([]entity.Item, error) {
	var cached []entity.Item
	if r.cache.Get(r.Name(), &cached) {
		return cached, nil
	}

	reqURL := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", r.baseURL, r.multi, r.maxItems+5)

	var listing redditListing
	if err := r.client.GetJSON(ctx, reqURL, transport.Options{UseRelay: true}, &listing); err != nil {
		return nil, fmt.Errorf("reddit: %w", err)
	}

	items := make([]entity.Item, 0, r.maxItems)
	for _, child := range listing.Data.Children {
		if child.Data.Stickied {
			continue
		}
		items = append(items, r.mapPost(child.Data))
		if len(items) >= r.maxItems {
			break
		}
	}

	r.cache.Set(r.Name(), items, r.ttl)
	return items, nil
}

func (r *Reddit) mapPost(p redditPost) entity.Item {
	// Crossposts and self posts carry a relative /r/ URL; link the thread
	// permalink instead.
	postURL := p.URL
	if postURL == "" || strings.HasPrefix(postURL, "/r/") {
		postURL = defaultRedditBaseURL + p.Permalink
	}
	return entity.Item{
		ID:          "reddit-" + p.ID,
		Title:       p.Title,
		URL:         postURL,
		Description: text.Truncate(p.Selftext, shortDescriptionLimit),
		Source:      "reddit",
		SourceName:  "r/" + p.Subreddit,
		Author:      p.Author,
		PublishedAt: time.Unix(int64(p.CreatedUTC), 0).UTC(),
		Engagement:  entity.Engagement{Score: float64(p.Score), Comments: p.NumComments},
		Tags:        []string{p.Subreddit},
		Type:        entity.TypeNews,
	}
}

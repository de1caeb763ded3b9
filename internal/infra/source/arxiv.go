package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"ai-digest/internal/domain/entity"
	"ai-digest/internal/infra/cache"
	"ai-digest/internal/infra/transport"
	"ai-digest/internal/utils/text"
)

const defaultArxivBaseURL = "http://export.arxiv.org/api/query"

// Arxiv fetches recent papers from the arXiv Atom API, newest
// submissions first.
type Arxiv struct {
	client      *transport.Client
	cache       *cache.Cache
	parser      *gofeed.Parser
	baseURL     string
	searchQuery string
	maxItems    int
	ttl         time.Duration
}

// NewArxiv creates the arXiv adapter. searchQuery is a preformed arXiv
// API search expression such as "cat:cs.AI+OR+cat:cs.LG".
func NewArxiv(client *transport.Client, c *cache.Cache, searchQuery string, maxItems int, ttl time.Duration) *Arxiv {
	return &Arxiv{
		client:      client,
		cache:       c,
		parser:      gofeed.NewParser(),
		baseURL:     defaultArxivBaseURL,
		searchQuery: searchQuery,
		maxItems:    maxItems,
		ttl:         ttl,
	}
}

// Name implements Fetcher.
func (a *Arxiv) Name() string { return "arxiv" }

// FetchItems implements Fetcher.
func (a *Arxiv) FetchItems(ctx context.Context) ([]entity.Item, error) {
	var cached []entity.Item
	if a.cache.Get(a.Name(), &cached) {
		return cached, nil
	}

	reqURL := fmt.Sprintf("%s?search_query=%s&sortBy=submittedDate&sortOrder=descending&max_results=%d",
		a.baseURL, a.searchQuery, a.maxItems)

	body, err := a.client.GetBody(ctx, reqURL, transport.Options{UseRelay: true})
	if err != nil {
		return nil, fmt.Errorf("arxiv: %w", err)
	}

	feed, err := a.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("arxiv: parse: %w", err)
	}

	items := make([]entity.Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		items = append(items, a.mapEntry(fi))
	}

	a.cache.Set(a.Name(), items, a.ttl)
	return items, nil
}

func (a *Arxiv) mapEntry(fi *gofeed.Item) entity.Item {
	published := time.Time{}
	if fi.PublishedParsed != nil {
		published = *fi.PublishedParsed
	}

	authors := make([]string, 0, len(fi.Authors))
	for _, au := range fi.Authors {
		authors = append(authors, au.Name)
	}

	return entity.Item{
		ID:          "arxiv-" + arxivID(fi.Link),
		Title:       text.CollapseWhitespace(fi.Title),
		URL:         fi.Link,
		Description: text.Truncate(text.CollapseWhitespace(fi.Description), descriptionLimit),
		Source:      "arxiv",
		SourceName:  "arXiv",
		Author:      joinAuthors(authors, 5),
		PublishedAt: published,
		Tags:        []string{"paper", "research"},
		Type:        entity.TypePaper,
		Extra:       map[string]any{"pdf_url": strings.Replace(fi.Link, "/abs/", "/pdf/", 1)},
	}
}

// arxivID extracts the bare paper id from an abstract URL such as
// http://arxiv.org/abs/2408.01234v1.
func arxivID(link string) string {
	if i := strings.LastIndex(link, "/abs/"); i >= 0 {
		return link[i+len("/abs/"):]
	}
	return url.QueryEscape(link)
}

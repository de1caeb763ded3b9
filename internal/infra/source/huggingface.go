package source

import (
	"context"
	"fmt"
	"time"

	"ai-digest/internal/domain/entity"
	"ai-digest/internal/infra/cache"
	"ai-digest/internal/infra/transport"
	"ai-digest/internal/utils/text"
)

const defaultHuggingFaceBaseURL = "https://huggingface.co/api/daily_papers"

type huggingFaceEntry struct {
	Paper       huggingFacePaper `json:"paper"`
	PublishedAt time.Time        `json:"publishedAt"`
}

type huggingFacePaper struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Upvotes int    `json:"upvotes"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// HuggingFace fetches the community-curated daily papers list.
type HuggingFace struct {
	client   *transport.Client
	cache    *cache.Cache
	baseURL  string
	maxItems int
	ttl      time.Duration
}

// NewHuggingFace creates the Hugging Face daily papers adapter.
func NewHuggingFace(client *transport.Client, c *cache.Cache, maxItems int, ttl time.Duration) *HuggingFace {
	return &HuggingFace{
		client:   client,
		cache:    c,
		baseURL:  defaultHuggingFaceBaseURL,
		maxItems: maxItems,
		ttl:      ttl,
	}
}

// Name implements Fetcher.
func (h *HuggingFace) Name() string { return "huggingface" }

// FetchItems implements Fetcher.
func (h *HuggingFace) FetchItems(ctx context.Context) ([]entity.Item, error) {
	var cached []entity.Item
	if h.cache.Get(h.Name(), &cached) {
		return cached, nil
	}

	var entries []huggingFaceEntry
	if err := h.client.GetJSON(ctx, h.baseURL, transport.Options{}, &entries); err != nil {
		if relayErr := h.client.GetJSON(ctx, h.baseURL, transport.Options{UseRelay: true}, &entries); relayErr != nil {
			return nil, fmt.Errorf("huggingface: %w", err)
		}
	}

	if len(entries) > h.maxItems {
		entries = entries[:h.maxItems]
	}
	items := make([]entity.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, h.mapEntry(e))
	}

	h.cache.Set(h.Name(), items, h.ttl)
	return items, nil
}

func (h *HuggingFace) mapEntry(e huggingFaceEntry) entity.Item {
	authors := make([]string, 0, len(e.Paper.Authors))
	for _, a := range e.Paper.Authors {
		authors = append(authors, a.Name)
	}

	return entity.Item{
		ID:          "hf-" + e.Paper.ID,
		Title:       e.Paper.Title,
		URL:         "https://huggingface.co/papers/" + e.Paper.ID,
		Description: text.Truncate(e.Paper.Summary, descriptionLimit),
		Source:      "huggingface",
		SourceName:  "Hugging Face Papers",
		Author:      joinAuthors(authors, 5),
		PublishedAt: e.PublishedAt,
		Engagement:  entity.Engagement{Score: float64(e.Paper.Upvotes)},
		Tags:        []string{"paper", "trending"},
		Type:        entity.TypePaper,
	}
}

package source

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ai-digest/internal/domain/entity"
	"ai-digest/internal/infra/cache"
	"ai-digest/internal/infra/transport"
	"ai-digest/internal/utils/text"
)

// Major AI products, models and serving stacks. Library and SDK chatter
// is filtered out separately.
var hnReleaseProducts = []string{
	"Claude",
	"Opus",
	"Sonnet",
	"GPT-4",
	"GPT-5",
	"ChatGPT",
	"OpenAI Codex",
	"Gemini",
	"Gemma",
	"Llama",
	"Mistral",
	"DeepSeek",
	"Grok",
	"Kimi",
	"Qwen",
	"Copilot",
	"Cursor AI",
	"Windsurf",
	"Claude Code",
	"Stable Diffusion",
	"Midjourney",
	"Sora",
	"DALL-E",
	"Ollama",
	"Perplexity",
	"NotebookLM",
	"Replit Agent",
	"vLLM",
	"TensorRT-LLM",
	"SGLang",
	"llama.cpp",
	"TGI",
	"LLM inference",
}

// hnReleaseNoise matches SDK, packaging and housekeeping stories that
// are not product launches.
var hnReleaseNoise = regexp.MustCompile(`(?i)\b(sdk|npm|pip|package|library|binding|wrapper|client|dependency|dependencies|changelog|patch|hotfix|bugfix|docs update|readme|typo|config|lint|ci/cd|docker|yaml|\.toml|\.json schema)\b`)

// hnReleaseMinPoints is the minimum story score for a launch to count.
const hnReleaseMinPoints = 20

// vendorTag pairs a title pattern with the vendor or category tag it
// implies. Patterns are checked in order and every match contributes.
type vendorTag struct {
	pattern *regexp.Regexp
	tag     string
}

var vendorTags = []vendorTag{
	{regexp.MustCompile(`claude|opus|sonnet|anthropic`), "Anthropic"},
	{regexp.MustCompile(`gpt|chatgpt|openai|codex|dall.e|sora`), "OpenAI"},
	{regexp.MustCompile(`gemini|gemma|google|deepmind|notebooklm`), "Google"},
	{regexp.MustCompile(`llama|meta ai`), "Meta"},
	{regexp.MustCompile(`mistral`), "Mistral"},
	{regexp.MustCompile(`deepseek`), "DeepSeek"},
	{regexp.MustCompile(`grok|xai`), "xAI"},
	{regexp.MustCompile(`kimi|moonshot`), "Kimi"},
	{regexp.MustCompile(`copilot|cursor|windsurf|claude code|replit`), "coding-tool"},
	{regexp.MustCompile(`stable diffusion|midjourney|flux|dall.e`), "image-gen"},
	{regexp.MustCompile(`perplexity`), "search"},
	{regexp.MustCompile(`vllm|tensorrt|sglang|llama\.cpp|tgi|inference|serving|throughput|latency|quantiz`), "inference"},
}

// HNReleases mines the HN Algolia API for launch announcements of
// flagship AI products. Product names are batched into quoted OR
// queries to stay within the API's request budget.
type HNReleases struct {
	client   *transport.Client
	cache    *cache.Cache
	baseURL  string
	products []string
	ttl      time.Duration
	now      func() time.Time
}

// NewHNReleases creates the HN release-mining adapter.
func NewHNReleases(client *transport.Client, c *cache.Cache, ttl time.Duration) *HNReleases {
	return &HNReleases{
		client:   client,
		cache:    c,
		baseURL:  defaultAlgoliaBaseURL,
		products: hnReleaseProducts,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Name implements Fetcher.
func (h *HNReleases) Name() string { return "hn_releases" }

// FetchItems implements Fetcher. A failed batch drops only that batch's
// stories.
func (h *HNReleases) FetchItems(ctx context.Context) ([]entity.Item, error) {
	var cached []entity.Item
	if h.cache.Get(h.Name(), &cached) {
		return cached, nil
	}

	monthAgo := h.now().Add(-30 * 24 * time.Hour).Unix()

	var (
		mu   sync.Mutex
		hits []algoliaHit
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, batch := range h.batchQueries() {
		batch := batch
		g.Go(func() error {
			reqURL := fmt.Sprintf("%s?query=%s&tags=story&numericFilters=created_at_i>%d,points>%d&hitsPerPage=15",
				h.baseURL, url.QueryEscape(batch), monthAgo, hnReleaseMinPoints)
			var payload algoliaResponse
			if err := h.client.GetJSON(gctx, reqURL, transport.Options{}, &payload); err != nil {
				return nil
			}
			mu.Lock()
			hits = append(hits, payload.Hits...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hn releases: %w", err)
	}

	seen := make(map[string]bool, len(hits))
	items := make([]entity.Item, 0, len(hits))
	for _, hit := range hits {
		if seen[hit.ObjectID] {
			continue
		}
		seen[hit.ObjectID] = true
		if hnReleaseNoise.MatchString(strings.ToLower(hit.Title)) {
			continue
		}
		items = append(items, h.mapHit(hit))
	}

	h.cache.Set(h.Name(), items, h.ttl)
	return items, nil
}

// batchQueries groups products five at a time into quoted OR queries.
func (h *HNReleases) batchQueries() []string {
	var batches []string
	for i := 0; i < len(h.products); i += 5 {
		end := min(i+5, len(h.products))
		quoted := make([]string, 0, end-i)
		for _, p := range h.products[i:end] {
			quoted = append(quoted, `"`+p+`"`)
		}
		batches = append(batches, strings.Join(quoted, " OR "))
	}
	return batches
}

func (h *HNReleases) mapHit(hit algoliaHit) entity.Item {
	storyURL := hit.URL
	if storyURL == "" {
		storyURL = "https://news.ycombinator.com/item?id=" + hit.ObjectID
	}
	return entity.Item{
		ID:          "hnr-" + hit.ObjectID,
		Title:       hit.Title,
		URL:         storyURL,
		Description: text.Truncate(hit.StoryText, shortDescriptionLimit),
		Source:      "hackernews",
		SourceName:  "Hacker News",
		Author:      hit.Author,
		PublishedAt: hit.CreatedAt,
		Engagement:  entity.Engagement{Score: float64(hit.Points), Comments: hit.NumComments},
		Tags:        detectVendorTags(hit.Title),
		Type:        entity.TypeRelease,
	}
}

// detectVendorTags infers vendor and category tags from a story title,
// falling back to a generic AI tag.
func detectVendorTags(title string) []string {
	t := strings.ToLower(title)
	var tags []string
	for _, vt := range vendorTags {
		if vt.pattern.MatchString(t) {
			tags = append(tags, vt.tag)
		}
	}
	if len(tags) == 0 {
		tags = []string{"AI"}
	}
	return tags
}

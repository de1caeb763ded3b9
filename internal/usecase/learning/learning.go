// Package learning surfaces trending educational resources per learning
// track topic, blending Hacker News and DEV Community results.
package learning

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-digest/internal/infra/cache"
	"ai-digest/internal/infra/transport"
)

const (
	trendingPerTopic = 2
	cacheKeyPrefix   = "lp-trending:"

	defaultHNBaseURL    = "https://hn.algolia.com/api/v1/search"
	defaultDevtoBaseURL = "https://dev.to/api/articles"
)

// Topic defines the search inputs of one learning track stage.
type Topic struct {
	Query string
	Tag   string
}

// Topics maps stage ids to their search definitions.
var Topics = map[string]Topic{
	"deep-learning":    {Query: "deep learning tutorial architecture CNN", Tag: "deeplearning"},
	"nlp-transformers": {Query: "transformer NLP attention tutorial", Tag: "nlp"},
	"llm-finetuning":   {Query: "LLM fine-tuning training RLHF", Tag: "llm"},
	"agentic-ai":       {Query: "AI agent agentic design ReAct tool use", Tag: "ai"},
	"mlops":            {Query: "MLOps pipeline deployment kubernetes", Tag: "mlops"},
	"llm-serving":      {Query: "LLM inference serving vLLM deployment", Tag: "llm"},
	"mcp-gateways":     {Query: "MCP model context protocol gateway", Tag: "ai"},
	"guardrails-ops":   {Query: "AI guardrails safety production", Tag: "machinelearning"},
	"llm-apis":         {Query: "prompt engineering LLM API tutorial", Tag: "ai"},
	"rag-vectors":      {Query: "RAG retrieval augmented vector database", Tag: "ai"},
	"agents-mcp":       {Query: "AI agent building MCP tool LangGraph", Tag: "ai"},
	"production-ai":    {Query: "production AI app deployment LLM", Tag: "ai"},
}

// eduKeywords mark titles as educational content, which ranks higher
// than plain news.
var eduKeywords = []string{
	"tutorial", "guide", "introduction", "intro", "explained",
	"how to", "course", "learn", "beginner", "from scratch",
	"step by step", "fundamentals", "getting started", "overview",
	"practical", "hands-on", "walkthrough",
}

// Resource is one trending educational link.
type Resource struct {
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Points   int       `json:"points"`
	Comments int       `json:"comments"`
	Date     time.Time `json:"date"`
	Source   string    `json:"source"`
	Score    float64   `json:"score"`
}

// Service searches and ranks trending resources per topic.
type Service struct {
	client       *transport.Client
	cache        *cache.Cache
	hnBaseURL    string
	devtoBaseURL string
	ttl          time.Duration
	now          func() time.Time
}

// NewService creates the learning resources service.
func NewService(client *transport.Client, c *cache.Cache, ttl time.Duration) *Service {
	return &Service{
		client:       client,
		cache:        c,
		hnBaseURL:    defaultHNBaseURL,
		devtoBaseURL: defaultDevtoBaseURL,
		ttl:          ttl,
		now:          time.Now,
	}
}

// FetchTrending returns the top trending resources of one stage topic.
// Unknown topics return an empty list, and a failed upstream search
// only drops that search's results.
func (s *Service) FetchTrending(ctx context.Context, topicID string) ([]Resource, error) {
	topic, ok := Topics[topicID]
	if !ok {
		return nil, nil
	}

	key := cacheKeyPrefix + topicID
	var cached []Resource
	if s.cache.Get(key, &cached) {
		return cached, nil
	}

	var (
		wg        sync.WaitGroup
		hn, devto []Resource
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		hn, _ = s.searchHN(ctx, topic.Query)
	}()
	go func() {
		defer wg.Done()
		devto, _ = s.searchDevto(ctx, topic.Tag)
	}()
	wg.Wait()

	merged := dedupeByURL(append(hn, devto...))
	for i := range merged {
		merged[i].Score = s.scoreResource(merged[i])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > trendingPerTopic {
		merged = merged[:trendingPerTopic]
	}

	s.cache.Set(key, merged, s.ttl)
	return merged, nil
}

func (s *Service) searchHN(ctx context.Context, query string) ([]Resource, error) {
	monthAgo := s.now().Add(-30 * 24 * time.Hour).Unix()
	reqURL := fmt.Sprintf("%s?query=%s&tags=story&numericFilters=created_at_i>%d,points>5&hitsPerPage=10",
		s.hnBaseURL, url.QueryEscape(query), monthAgo)

	var payload struct {
		Hits []struct {
			ObjectID    string    `json:"objectID"`
			Title       string    `json:"title"`
			URL         string    `json:"url"`
			Points      int       `json:"points"`
			NumComments int       `json:"num_comments"`
			CreatedAt   time.Time `json:"created_at"`
		} `json:"hits"`
	}
	if err := s.client.GetJSON(ctx, reqURL, transport.Options{}, &payload); err != nil {
		return nil, err
	}

	out := make([]Resource, 0, len(payload.Hits))
	for _, h := range payload.Hits {
		link := h.URL
		if link == "" {
			link = "https://news.ycombinator.com/item?id=" + h.ObjectID
		}
		out = append(out, Resource{
			Title:    h.Title,
			URL:      link,
			Points:   h.Points,
			Comments: h.NumComments,
			Date:     h.CreatedAt,
			Source:   "hn",
		})
	}
	return out, nil
}

func (s *Service) searchDevto(ctx context.Context, tag string) ([]Resource, error) {
	reqURL := fmt.Sprintf("%s?tag=%s&top=30&per_page=5", s.devtoBaseURL, tag)

	var articles []struct {
		Title             string    `json:"title"`
		URL               string    `json:"url"`
		PositiveReactions int       `json:"positive_reactions_count"`
		CommentsCount     int       `json:"comments_count"`
		PublishedAt       time.Time `json:"published_at"`
	}
	if err := s.client.GetJSON(ctx, reqURL, transport.Options{}, &articles); err != nil {
		return nil, err
	}

	out := make([]Resource, 0, len(articles))
	for _, a := range articles {
		out = append(out, Resource{
			Title:    a.Title,
			URL:      a.URL,
			Points:   a.PositiveReactions,
			Comments: a.CommentsCount,
			Date:     a.PublishedAt,
			Source:   "devto",
		})
	}
	return out, nil
}

// scoreResource blends recency, popularity, source authority and an
// educational-content bonus. Educational content stays relevant longer
// than news, so recency decays with a seven day half-life.
func (s *Service) scoreResource(r Resource) float64 {
	title := strings.ToLower(r.Title)

	eduBonus := 0.0
	for _, kw := range eduKeywords {
		if strings.Contains(title, kw) {
			eduBonus = 25
			break
		}
	}

	var popularity float64
	if r.Source == "hn" {
		popularity = float64(r.Points)/3 + float64(r.Comments)*0.5
	} else {
		popularity = float64(r.Points)/2 + float64(r.Comments)*0.5
	}
	popularity = math.Min(100, popularity)

	ageHours := s.now().Sub(r.Date).Hours()
	recency := 100 * math.Exp(-ageHours/(7*24))

	authority := 60.0
	if r.Source == "hn" {
		authority = 90
	}

	return recency*0.20 + popularity*0.30 + authority*0.20 + eduBonus*0.30
}

func dedupeByURL(in []Resource) []Resource {
	seen := make(map[string]bool, len(in))
	out := make([]Resource, 0, len(in))
	for _, r := range in {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out
}

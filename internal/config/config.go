// Package config holds the aggregation pipeline configuration: cache TTLs,
// refresh intervals, search queries, relay services and the curated feed list.
// Defaults mirror the values the pipeline was tuned with; individual settings
// can be overridden through environment variables, and the feed/relay lists
// can be replaced wholesale from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	pkgconfig "ai-digest/pkg/config"
)

// TTL holds per-category cache lifetimes. Lifetimes are configured through
// environment variables, not the YAML file.
type TTL struct {
	News      time.Duration `yaml:"-"`
	Papers    time.Duration `yaml:"-"`
	Releases  time.Duration `yaml:"-"`
	Resources time.Duration `yaml:"-"`
	Podcasts  time.Duration `yaml:"-"`
}

// RefreshIntervals holds per-category scheduler intervals.
type RefreshIntervals struct {
	News     time.Duration `yaml:"-"`
	Papers   time.Duration `yaml:"-"`
	Releases time.Duration `yaml:"-"`
}

// SearchQueries holds the per-source query construction inputs.
type SearchQueries struct {
	HackerNews       string   `yaml:"hackernews"`
	DevtoTags        []string `yaml:"devto_tags"`
	RedditSubreddits string   `yaml:"reddit_subreddits"`
	ArxivCategories  string   `yaml:"arxiv_categories"`
	SemanticScholar  string   `yaml:"semantic_scholar"`
}

// Feed describes one configured RSS/Atom feed.
type Feed struct {
	Name      string  `yaml:"name"`
	URL       string  `yaml:"url"`
	Authority float64 `yaml:"authority"`
}

// Relay describes one fallback relay service. URLTemplate must contain the
// "{url}" placeholder, replaced with the query-escaped target URL.
type Relay struct {
	Name        string `yaml:"name"`
	URLTemplate string `yaml:"url_template"`
}

// Channel describes one podcast/video channel to follow.
type Channel struct {
	Name      string `yaml:"name"`
	ChannelID string `yaml:"channel_id"`
}

// Config is the root configuration for the aggregation pipeline.
type Config struct {
	CacheTTL          TTL              `yaml:"cache_ttl"`
	RefreshIntervals  RefreshIntervals `yaml:"refresh_intervals"`
	MaxItemsPerSource int              `yaml:"max_items_per_source"`
	Queries           SearchQueries    `yaml:"queries"`
	Relays            []Relay          `yaml:"relays"`
	Feeds             []Feed           `yaml:"feeds"`
	Channels          []Channel        `yaml:"channels"`

	// ReleasesFile is the path of the bundled curated-releases JSON file.
	ReleasesFile string `yaml:"releases_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CacheTTL: TTL{
			News:      10 * time.Minute,
			Papers:    30 * time.Minute,
			Releases:  15 * time.Minute,
			Resources: 24 * time.Hour,
			Podcasts:  4 * time.Hour,
		},
		RefreshIntervals: RefreshIntervals{
			News:     10 * time.Minute,
			Papers:   30 * time.Minute,
			Releases: 15 * time.Minute,
		},
		MaxItemsPerSource: 20,
		Queries: SearchQueries{
			HackerNews: `AI OR "artificial intelligence" OR "machine learning" OR LLM OR "large language model" OR GPT OR "deep learning" OR vLLM OR "LLM inference" OR TensorRT`,
			DevtoTags:  []string{"ai", "machinelearning", "deeplearning", "llm", "artificialintelligence", "inference"},
			// Multireddit path segment, joined with '+'
			RedditSubreddits: "artificial+MachineLearning+deeplearning+LanguageTechnology+LocalLLaMA",
			ArxivCategories:  "cat:cs.AI+OR+cat:cs.LG+OR+cat:cs.CL",
			SemanticScholar:  "artificial intelligence large language model",
		},
		Relays: []Relay{
			{Name: "allorigins", URLTemplate: "https://api.allorigins.win/raw?url={url}"},
			{Name: "corsproxy", URLTemplate: "https://corsproxy.io/?url={url}"},
		},
		Feeds: []Feed{
			// Company blogs
			{Name: "Anthropic", URL: "https://www.anthropic.com/feed.xml", Authority: 1.0},
			{Name: "OpenAI Blog", URL: "https://openai.com/blog/rss/", Authority: 1.0},
			{Name: "Google AI Blog", URL: "https://blog.research.google/feeds/posts/default?alt=rss", Authority: 1.0},
			{Name: "Meta AI", URL: "https://ai.meta.com/blog/rss/", Authority: 0.95},
			{Name: "Microsoft AI", URL: "https://blogs.microsoft.com/ai/feed/", Authority: 0.9},
			// Inference & serving
			{Name: "vLLM Blog", URL: "https://blog.vllm.ai/feed.xml", Authority: 0.9},
			{Name: "Anyscale Blog", URL: "https://www.anyscale.com/blog/rss.xml", Authority: 0.8},
			// Popular AI media
			{Name: "MIT Tech Review AI", URL: "https://www.technologyreview.com/topic/artificial-intelligence/feed", Authority: 0.8},
			{Name: "The Gradient", URL: "https://thegradient.pub/rss/", Authority: 0.7},
			{Name: "Hugging Face Blog", URL: "https://huggingface.co/blog/feed.xml", Authority: 0.85},
			{Name: "Lilian Weng", URL: "https://lilianweng.github.io/index.xml", Authority: 0.85},
		},
		ReleasesFile: "data/major-releases.json",
	}
}

// Load returns the default configuration with environment overrides applied.
//
// Environment variables:
//   - DIGEST_CONFIG_FILE: optional YAML file replacing the feed, relay and
//     channel lists and the search queries (durations stay env-driven)
//   - DIGEST_MAX_ITEMS_PER_SOURCE: pagination cap per adapter (default: 20)
//   - DIGEST_NEWS_TTL / DIGEST_PAPERS_TTL / DIGEST_RELEASES_TTL: cache TTLs
//   - DIGEST_RELEASES_FILE: curated releases JSON path
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("DIGEST_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.MaxItemsPerSource = pkgconfig.GetEnvInt("DIGEST_MAX_ITEMS_PER_SOURCE", cfg.MaxItemsPerSource)
	cfg.CacheTTL.News = pkgconfig.GetEnvDuration("DIGEST_NEWS_TTL", cfg.CacheTTL.News)
	cfg.CacheTTL.Papers = pkgconfig.GetEnvDuration("DIGEST_PAPERS_TTL", cfg.CacheTTL.Papers)
	cfg.CacheTTL.Releases = pkgconfig.GetEnvDuration("DIGEST_RELEASES_TTL", cfg.CacheTTL.Releases)
	cfg.ReleasesFile = pkgconfig.GetEnvString("DIGEST_RELEASES_FILE", cfg.ReleasesFile)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	for _, d := range []struct {
		name string
		d    time.Duration
	}{
		{"cache_ttl.news", c.CacheTTL.News},
		{"cache_ttl.papers", c.CacheTTL.Papers},
		{"cache_ttl.releases", c.CacheTTL.Releases},
	} {
		if err := pkgconfig.ValidatePositiveDuration(d.d); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	for _, d := range []struct {
		name string
		d    time.Duration
	}{
		{"refresh_intervals.news", c.RefreshIntervals.News},
		{"refresh_intervals.papers", c.RefreshIntervals.Papers},
		{"refresh_intervals.releases", c.RefreshIntervals.Releases},
	} {
		if err := pkgconfig.ValidateDurationRange(d.d, time.Minute, 24*time.Hour); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	if c.MaxItemsPerSource <= 0 {
		return fmt.Errorf("max_items_per_source must be positive, got %d", c.MaxItemsPerSource)
	}
	for i, r := range c.Relays {
		if r.Name == "" || r.URLTemplate == "" {
			return fmt.Errorf("relay %d: name and url_template are required", i)
		}
	}
	return nil
}

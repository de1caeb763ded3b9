// Package score ranks aggregated items by combining recency, engagement
// and source authority into a single 0-100 score.
package score

import (
	"math"
	"sort"
	"strings"
	"time"

	"ai-digest/internal/domain/entity"
)

// Weights are the blend factors of the three score components. They
// must sum to 1.
type Weights struct {
	Recency    float64
	Engagement float64
	Authority  float64
}

// EngagementRule normalizes one source's raw engagement numbers onto a
// 0-100 scale. Exactly one of the fields applies.
type EngagementRule struct {
	// Divisor divides points plus half the comment count. Zero means
	// the rule does not use a divisor.
	Divisor float64
	// ScoreOnly divides the points alone, ignoring comments.
	ScoreOnly float64
	// Raw caps the points as-is.
	Raw bool
	// Constant is a fixed engagement value for sources without
	// engagement data.
	Constant float64
}

// Config holds the scoring tables. All tables are data so per-feed
// authorities from the feed list can be merged in.
type Config struct {
	Weights Weights

	// RecencyHalfDecay is the age at which recency drops to 100/e.
	RecencyHalfDecay time.Duration

	// Engagement maps a source id to its normalization rule.
	// RSSPrefix sources fall back to the RSSEngagement constant, and
	// everything else to DefaultEngagement.
	Engagement        map[string]EngagementRule
	RSSEngagement     float64
	DefaultEngagement float64

	// Authority maps a source id to its 0-1 authority weight.
	Authority        map[string]float64
	RSSAuthority     float64
	DefaultAuthority float64

	// RSSPrefix identifies feed-derived sources for the fallbacks.
	RSSPrefix string
}

// DefaultConfig returns the tuned scoring tables.
func DefaultConfig() Config {
	return Config{
		Weights:          Weights{Recency: 0.35, Engagement: 0.35, Authority: 0.30},
		RecencyHalfDecay: 48 * time.Hour,
		Engagement: map[string]EngagementRule{
			"hackernews":       {Divisor: 3},
			"reddit":           {Divisor: 10},
			"devto":            {Divisor: 2},
			"huggingface":      {Divisor: 1.5},
			"semantic_scholar": {ScoreOnly: 5},
			"major_releases":   {Raw: true},
			"arxiv":            {Constant: 30},
		},
		RSSEngagement:     40,
		DefaultEngagement: 20,
		Authority: map[string]float64{
			"hackernews":       0.9,
			"devto":            0.6,
			"reddit":           0.7,
			"arxiv":            0.95,
			"semantic_scholar": 0.9,
			"huggingface":      0.85,
			"major_releases":   1.0,
		},
		RSSAuthority:     0.85,
		DefaultAuthority: 0.5,
		RSSPrefix:        "rss-",
	}
}

// Engine scores items against a Config. The clock is injectable for
// deterministic tests.
type Engine struct {
	cfg Config
	now func() time.Time
}

// NewEngine creates a scoring engine with the given tables.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, now: time.Now}
}

// WithClock replaces the engine's clock.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// SetAuthority registers or overrides the authority weight of one
// source, used to carry per-feed authorities into the table.
func (e *Engine) SetAuthority(source string, authority float64) {
	e.cfg.Authority[source] = authority
}

// ScoreItem computes the blended 0-100 score of one item.
func (e *Engine) ScoreItem(item entity.Item) int {
	r := e.recency(item.PublishedAt)
	g := e.engagement(item)
	a := e.authority(item.Source)
	w := e.cfg.Weights
	return int(math.Round(r*w.Recency + g*w.Engagement + a*w.Authority))
}

// ScoreAndSort returns scored copies ordered best first, leaving the
// input untouched. The sort is stable so equally scored items keep
// their input order.
func (e *Engine) ScoreAndSort(items []entity.Item) []entity.Item {
	scored := append([]entity.Item(nil), items...)
	for i := range scored {
		scored[i].Score = e.ScoreItem(scored[i])
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// recency decays exponentially with age and clamps to [0,100]. Future
// timestamps count as age zero.
func (e *Engine) recency(publishedAt time.Time) float64 {
	ageHours := e.now().Sub(publishedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	s := 100 * math.Exp(-ageHours/e.cfg.RecencyHalfDecay.Hours())
	return clamp(s)
}

func (e *Engine) engagement(item entity.Item) float64 {
	rule, ok := e.cfg.Engagement[item.Source]
	if !ok {
		if strings.HasPrefix(item.Source, e.cfg.RSSPrefix) {
			return e.cfg.RSSEngagement
		}
		return e.cfg.DefaultEngagement
	}

	points := item.Engagement.Score
	combined := points + float64(item.Engagement.Comments)*0.5
	switch {
	case rule.Divisor > 0:
		return clamp(combined / rule.Divisor)
	case rule.ScoreOnly > 0:
		return clamp(points / rule.ScoreOnly)
	case rule.Raw:
		return clamp(points)
	default:
		return rule.Constant
	}
}

func (e *Engine) authority(source string) float64 {
	if a, ok := e.cfg.Authority[source]; ok {
		return a * 100
	}
	if strings.HasPrefix(source, e.cfg.RSSPrefix) {
		return e.cfg.RSSAuthority * 100
	}
	return e.cfg.DefaultAuthority * 100
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// Package entity defines the core domain entities and validation logic for the application.
// It contains the normalized Item produced by every source adapter, along with
// its validation rules and domain-specific errors.
package entity

import "time"

// ItemType classifies an Item into one of the aggregated content categories.
type ItemType string

// Valid item types.
const (
	TypeNews    ItemType = "news"
	TypePaper   ItemType = "paper"
	TypeRelease ItemType = "release"
)

// Engagement is a source-native popularity signal.
// Score carries upvotes, reactions, citations or a curated significance rank
// depending on the source; both fields are zero when the source has no signal.
type Engagement struct {
	Score    float64 `json:"score"`
	Comments int     `json:"comments"`
}

// Item is the normalized unit of aggregated content. Every source adapter maps
// its raw payload into this shape; the aggregation pipeline (dedup, scoring,
// sorting) operates on Items only.
//
// Items are created fresh on every adapter fetch and are treated as immutable
// once produced: scoring returns augmented copies rather than mutating.
type Item struct {
	// ID is a stable, source-namespaced unique identifier, e.g. "hn-8863".
	ID string `json:"id"`

	// Title is required and non-empty.
	Title string `json:"title"`

	// URL is the canonical link. It doubles as a deduplication key and must be
	// non-empty for any item entering the dedup stage.
	URL string `json:"url"`

	// Description is truncated by adapters to at most 300 characters.
	Description string `json:"description,omitempty"`

	// Source is the machine id of the origin. Multi-feed adapters namespace it
	// with a per-feed suffix, e.g. "rss-anthropic".
	Source string `json:"source"`

	// SourceName is the human-readable label of the origin.
	SourceName string `json:"sourceName"`

	Author      string     `json:"author,omitempty"`
	PublishedAt time.Time  `json:"publishedAt"`
	Engagement  Engagement `json:"engagement"`
	Tags        []string   `json:"tags"`
	Type        ItemType   `json:"type"`

	// Score is attached by the scorer; zero before scoring, in [0,100] after.
	Score int `json:"score,omitempty"`

	// Extra holds optional source-specific fields such as citation counts,
	// PDF links, significance rank or release category.
	Extra map[string]any `json:"extra,omitempty"`
}

// Validate checks the invariants an Item must satisfy before it may enter the
// aggregation pipeline.
func (i *Item) Validate() error {
	if i.Title == "" {
		return &ValidationError{Field: "title", Message: "must not be empty"}
	}
	if i.URL == "" {
		return &ValidationError{Field: "url", Message: "must not be empty"}
	}
	if i.Source == "" {
		return &ValidationError{Field: "source", Message: "must not be empty"}
	}
	switch i.Type {
	case TypeNews, TypePaper, TypeRelease:
	default:
		return &ValidationError{Field: "type", Message: "must be news, paper or release"}
	}
	return nil
}

// Package source implements the content source adapters. Each adapter fetches
// from one external origin and maps raw payloads into the common entity.Item
// schema; all adapters satisfy the same Fetcher contract and handle their own
// query construction, pagination cap and caching.
package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"ai-digest/internal/domain/entity"
)

// Fetcher is the contract every source adapter implements. FetchItems returns
// normalized items or an error, never a partial mix; on failure the aggregator
// gets the error and zero items.
type Fetcher interface {
	// Name returns the machine id of the adapter for logs, metrics and the
	// aggregator's error reporting.
	Name() string

	FetchItems(ctx context.Context) ([]entity.Item, error)
}

// descriptionLimit bounds Item descriptions produced by adapters.
const descriptionLimit = 300

// shortDescriptionLimit is used by sources whose raw text tends to be noisy
// (self-posts, story text, feed excerpts).
const shortDescriptionLimit = 200

// hashID builds a stable namespaced id from an arbitrary string, for sources
// without a native identifier.
func hashID(prefix, s string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%s-%08x", prefix, h.Sum32())
}

// joinAuthors joins up to max author names, appending "et al." when the list
// was longer.
func joinAuthors(names []string, max int) string {
	trimmed := make([]string, 0, max)
	for _, n := range names {
		if n == "" {
			continue
		}
		trimmed = append(trimmed, n)
		if len(trimmed) == max {
			break
		}
	}
	joined := strings.Join(trimmed, ", ")
	if len(names) > max && joined != "" {
		joined += " et al."
	}
	return joined
}

// slugify turns a display name into a machine id fragment: lowercase with
// every non-alphanumeric run collapsed to a single dash.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Package text provides utilities for text processing and normalization.
// This package includes reusable functions for truncation, whitespace folding
// and HTML stripping shared by all source adapters.
package text

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CountRunes counts the number of Unicode characters (runes) in the given text.
// Counting runes instead of bytes keeps multi-byte characters (Japanese,
// emoji, accented letters) intact when lengths are compared or enforced.
func CountRunes(text string) int {
	return len([]rune(text))
}

// Truncate returns text cut to at most limit runes.
// It never splits a multi-byte character.
//
// Examples:
//
//	Truncate("hello world", 5) // returns "hello"
//	Truncate("short", 300)     // returns "short"
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// CollapseWhitespace folds any run of whitespace (including newlines) into a
// single space and trims the result. Feed summaries frequently arrive with
// hard-wrapped lines and indentation.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// StripHTML removes markup from an HTML fragment and returns the visible text
// with collapsed whitespace. Malformed fragments are handled leniently; on a
// parse failure the input is returned unchanged rather than lost.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return CollapseWhitespace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CollapseWhitespace(fragment)
	}
	return CollapseWhitespace(doc.Text())
}

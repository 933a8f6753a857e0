// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package titles implements the fuzzy title comparison used to decide
// whether two records describe the same paper. Titles are normalized
// (lower-cased, punctuation stripped, whitespace collapsed) and compared
// by Jaccard similarity over their word sets.
package titles

import (
	"strings"
	"unicode"
)

// Two thresholds are in use. Source matching is stricter than the
// CrossRef best-title-match step because CrossRef search results are
// already relevance-filtered. Kept as distinct constants; tuning either
// should be driven by real match/miss data.
const (
	// MatchThreshold accepts a candidate as the same paper when
	// comparing against a source's search hit.
	MatchThreshold = 0.6

	// CrossRefThreshold accepts the best CrossRef title-search result.
	CrossRefThreshold = 0.5
)

// Normalize lower-cases a title, strips everything but letters, digits
// and spaces, and collapses runs of whitespace.
func Normalize(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// wordSet returns the set of words in a normalized title.
func wordSet(title string) map[string]bool {
	words := strings.Fields(Normalize(title))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Jaccard returns |intersection| / |union| of the two titles' word sets.
// Identical normalized word sets score 1.0; disjoint sets score 0.0.
func Jaccard(a, b string) float64 {
	sa, sb := wordSet(a), wordSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	common := 0
	for w := range sa {
		if sb[w] {
			common++
		}
	}
	union := len(sa) + len(sb) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}

// Match reports whether two titles are similar enough to be the same
// paper under the source-matching threshold.
func Match(a, b string) bool {
	return Jaccard(a, b) >= MatchThreshold
}

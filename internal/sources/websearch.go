// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"regexp"
	"strings"
)

// Searcher runs a web search and returns result snippets or URLs. The
// binary ships without one; deployments plug in whatever search backend
// they have access to.
type Searcher func(ctx context.Context, query string) ([]string, error)

// pdfURLPattern extracts direct PDF links from search result text.
var pdfURLPattern = regexp.MustCompile(`https?://[^\s<>"']+\.pdf(?:\?[^\s<>"']*)?`)

// downloadKeywords marks result URLs that likely lead to a full-text
// download even without a .pdf suffix.
var downloadKeywords = []string{"download", "pdf", "fulltext", "full-text"}

// WebSearch is the last-resort official source: it mines generic web
// search results for direct PDF links. Without a configured Searcher
// every request is not-found.
type WebSearch struct {
	client    *http.Client
	userAgent string
	search    Searcher
}

func NewWebSearch(client *http.Client, userAgent string) *WebSearch {
	return &WebSearch{client: client, userAgent: userAgent}
}

func (w *WebSearch) Name() string { return "web_search" }

// SetSearcher installs the search backend.
func (w *WebSearch) SetSearcher(s Searcher) { w.search = s }

// PDFURL builds a query from the title, DOI and first author, runs the
// searcher, and returns the first PDF link found in the results.
func (w *WebSearch) PDFURL(ctx context.Context, req Request) (string, error) {
	if w.search == nil {
		return "", nil
	}

	query := buildSearchQuery(req)
	if query == "" {
		return "", nil
	}

	results, err := w.search(ctx, query)
	if err != nil {
		return "", err
	}

	for _, result := range results {
		if m := pdfURLPattern.FindString(result); m != "" {
			return m, nil
		}
	}
	// Second pass: follow result URLs that look like download pages.
	for _, result := range results {
		if isDownloadURL(result) {
			return strings.TrimSpace(result), nil
		}
	}
	return "", nil
}

func buildSearchQuery(req Request) string {
	var parts []string
	if req.Title != "" {
		parts = append(parts, `"`+req.Title+`"`)
	}
	if req.DOI != "" {
		parts = append(parts, req.DOI)
	}
	if len(req.Authors) > 0 && req.Authors[0] != "" {
		parts = append(parts, req.Authors[0])
	}
	if len(parts) == 0 {
		return ""
	}
	parts = append(parts, "filetype:pdf")
	return strings.Join(parts, " ")
}

// isDownloadURL reports whether a bare URL looks like a full-text
// download page.
func isDownloadURL(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	lower := strings.ToLower(s)
	for _, kw := range downloadKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

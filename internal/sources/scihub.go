// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// sciHubMirrors lists the mirrors to try in order. Declared as a var so
// tests can substitute an httptest server and operators can override
// dead mirrors.
var sciHubMirrors = []string{
	"https://sci-hub.se",
	"https://sci-hub.st",
	"https://sci-hub.ru",
}

// sciHubEmbedPattern pulls the PDF location out of the article page's
// embed or iframe element.
var sciHubEmbedPattern = regexp.MustCompile(`(?i)<(?:embed|iframe)[^>]+src\s*=\s*["']([^"'#]+)`)

// SciHub scrapes PDF links from Sci-Hub mirrors. The registry only
// constructs this client after the operator accepts the unofficial
// sources disclaimer.
type SciHub struct {
	client    *http.Client
	userAgent string
}

func NewSciHub(client *http.Client, userAgent string) *SciHub {
	return &SciHub{client: client, userAgent: userAgent}
}

func (s *SciHub) Name() string { return "scihub" }

// PDFURL tries each mirror for the DOI and returns the embedded PDF
// link from the first one that answers. Mirrors behind bot protection
// return pages without an embed; those count as not-found.
func (s *SciHub) PDFURL(ctx context.Context, req Request) (string, error) {
	if req.DOI == "" {
		return "", nil
	}

	var lastErr error
	for _, mirror := range sciHubMirrors {
		pdfURL, err := s.tryMirror(ctx, mirror, req.DOI)
		if err != nil {
			lastErr = err
			continue
		}
		if pdfURL != "" {
			return pdfURL, nil
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("all mirrors failed: %w", lastErr)
	}
	return "", nil
}

func (s *SciHub) tryMirror(ctx context.Context, mirror, doi string) (string, error) {
	pageURL := mirror + "/" + doi

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	m := sciHubEmbedPattern.FindSubmatch(body)
	if m == nil {
		return "", nil
	}
	return resolveMirrorLink(mirror, string(m[1])), nil
}

// resolveMirrorLink absolutizes the scheme-relative and path-relative
// links mirrors use in their embed elements.
func resolveMirrorLink(mirror, link string) string {
	switch {
	case strings.HasPrefix(link, "//"):
		return "https:" + link
	case strings.HasPrefix(link, "/"):
		base, err := url.Parse(mirror)
		if err != nil {
			return link
		}
		return base.Scheme + "://" + base.Host + link
	default:
		return link
	}
}

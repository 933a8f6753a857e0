// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements clients for the paper repositories and
// aggregators that can serve PDF links: Unpaywall, arXiv, PubMed Central,
// bioRxiv/medRxiv, Semantic Scholar, OpenAlex, institutional proxies, web
// search, and the disclaimer-gated unofficial mirrors.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/paperfetch/internal/httputil"
)

// Request carries the identifiers known for a paper when a source is
// asked for a PDF link. Clients use whichever fields they understand and
// return not-found for the rest.
type Request struct {
	DOI     string
	ArxivID string
	Title   string
	Authors []string
}

// Client locates a direct PDF URL for one source. Implementations return
// ("", nil) when the source does not carry the paper; errors are reserved
// for transport and protocol failures.
type Client interface {
	Name() string
	PDFURL(ctx context.Context, req Request) (string, error)
}

// HeaderProvider is implemented by clients whose PDF links require extra
// request headers on download (session cookies, proxy auth).
type HeaderProvider interface {
	DownloadHeaders() map[string]string
}

// getJSON performs a GET with retry-on-429 and decodes the JSON body into
// out. It returns false with a nil error on HTTP 404 so callers can treat
// an absent record as not-found rather than a failure.
func getJSON(ctx context.Context, client *http.Client, rawURL, userAgent string, headers map[string]string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("parsing response from %s: %w", req.URL.Host, err)
	}
	return true, nil
}

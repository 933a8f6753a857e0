// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
)

// libGenMirrors lists the scientific-article mirrors to try in order.
// Declared as a var so tests can substitute an httptest server.
var libGenMirrors = []string{
	"https://libgen.rs",
	"https://libgen.is",
}

// LibGen result pages link to a gateway page whose "GET" anchor is the
// actual file.
var (
	libGenGatewayPattern = regexp.MustCompile(`(?i)href\s*=\s*["'](https?://[^"']+/scimag/[^"']+)["']`)
	libGenFilePattern    = regexp.MustCompile(`(?i)<h2><a\s+href\s*=\s*["']([^"']+)["'][^>]*>\s*GET\s*</a>`)
)

// LibGen scrapes PDF links from Library Genesis scimag mirrors. Like
// SciHub, the registry only constructs it behind the disclaimer gate.
type LibGen struct {
	client    *http.Client
	userAgent string
}

func NewLibGen(client *http.Client, userAgent string) *LibGen {
	return &LibGen{client: client, userAgent: userAgent}
}

func (l *LibGen) Name() string { return "libgen" }

// PDFURL searches each mirror's scimag index for the DOI, follows the
// first gateway link, and returns the file URL behind its GET anchor.
func (l *LibGen) PDFURL(ctx context.Context, req Request) (string, error) {
	if req.DOI == "" {
		return "", nil
	}

	var lastErr error
	for _, mirror := range libGenMirrors {
		pdfURL, err := l.tryMirror(ctx, mirror, req.DOI)
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

func (l *LibGen) tryMirror(ctx context.Context, mirror, doi string) (string, error) {
	searchURL := mirror + "/scimag/?q=" + url.QueryEscape(doi)

	page, err := l.fetchPage(ctx, searchURL)
	if err != nil || page == nil {
		return "", err
	}

	gw := libGenGatewayPattern.FindSubmatch(page)
	if gw == nil {
		return "", nil
	}

	gatewayPage, err := l.fetchPage(ctx, string(gw[1]))
	if err != nil || gatewayPage == nil {
		return "", err
	}

	file := libGenFilePattern.FindSubmatch(gatewayPage)
	if file == nil {
		return "", nil
	}
	return resolveMirrorLink(string(gw[1]), string(file[1])), nil
}

func (l *LibGen) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

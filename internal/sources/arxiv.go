// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/internal/titles"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// arXiv endpoints. Declared as vars so tests can substitute an httptest
// server.
var (
	arxivAPIBase = "http://export.arxiv.org/api/query"
	arxivPDFBase = "https://arxiv.org/pdf/"
)

// arxivFeed is the subset of the Atom feed returned by the arXiv API.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	DOI        string          `xml:"doi"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// Arxiv serves preprints directly from arxiv.org. PDF links are
// constructed from the identifier; the export API is only consulted for
// metadata.
type Arxiv struct {
	client    *http.Client
	userAgent string
}

func NewArxiv(client *http.Client, userAgent string) *Arxiv {
	return &Arxiv{client: client, userAgent: userAgent}
}

func (a *Arxiv) Name() string { return "arxiv" }

// PDFURL builds the arxiv.org PDF link for the paper's arXiv identifier.
// A DOI in the arXiv registrar namespace is accepted in place of an
// explicit identifier. Requests carrying neither fall back to a title
// search against the export API.
func (a *Arxiv) PDFURL(ctx context.Context, req Request) (string, error) {
	id := req.ArxivID
	if id == "" && req.DOI != "" {
		id = identifier.ArxivIDFromDOI(req.DOI)
	}
	if id != "" {
		return arxivPDFBase + id, nil
	}
	if req.Title == "" {
		return "", nil
	}
	return a.searchPDFURL(ctx, req.Title)
}

// searchPDFURL queries the export API for the quoted title and builds a
// PDF link from the best-matching entry's identifier.
func (a *Arxiv) searchPDFURL(ctx context.Context, title string) (string, error) {
	query := `ti:"` + title + `"`
	apiURL := arxivAPIBase + "?search_query=" + url.QueryEscape(query) + "&max_results=5"

	feed, err := a.fetchFeed(ctx, apiURL)
	if err != nil {
		return "", err
	}
	for _, entry := range feed.Entries {
		id := entryArxivID(entry.ID)
		if id == "" {
			continue
		}
		if titles.Match(title, collapseWhitespace(entry.Title)) {
			return arxivPDFBase + id, nil
		}
	}
	return "", nil
}

// entryArxivID extracts the bare arXiv identifier from an Atom entry ID
// such as "http://arxiv.org/abs/1706.03762v5".
func entryArxivID(entryID string) string {
	idx := strings.LastIndex(entryID, "/abs/")
	if idx < 0 {
		return ""
	}
	return identifier.NormalizeArxivID(entryID[idx+len("/abs/"):])
}

// fetchFeed retrieves and decodes an Atom feed from the export API.
func (a *Arxiv) fetchFeed(ctx context.Context, apiURL string) (*arxivFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating arXiv request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := httputil.DoWithRetry(ctx, a.client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv feed: %w", err)
	}
	return &feed, nil
}

// Metadata fetches the Atom record for an arXiv identifier and maps it
// to paper metadata. The version suffix is stripped before the query so
// the latest revision is returned.
func (a *Arxiv) Metadata(ctx context.Context, arxivID string) (*types.PaperMetadata, error) {
	bare := identifier.NormalizeArxivID(arxivID)
	apiURL := arxivAPIBase + "?id_list=" + url.QueryEscape(bare) + "&max_results=1"

	feed, err := a.fetchFeed(ctx, apiURL)
	if err != nil {
		return nil, err
	}
	if len(feed.Entries) == 0 {
		return nil, nil
	}
	entry := feed.Entries[0]
	// An empty id means the API answered with its "no such paper" stub
	// entry rather than a real record.
	if strings.TrimSpace(entry.ID) == "" || strings.Contains(entry.ID, "api/errors") {
		return nil, nil
	}

	md := &types.PaperMetadata{
		Title:    collapseWhitespace(entry.Title),
		Abstract: collapseWhitespace(entry.Summary),
		ArxivID:  arxivID,
		DOI:      identifier.ArxivDOI(arxivID),
		PDFURL:   arxivPDFBase + bare,
		URL:      "https://arxiv.org/abs/" + bare,
		Venue:    "arXiv",
		Source:   "arxiv",
	}
	if entry.DOI != "" {
		// A publisher DOI recorded on the preprint wins over the
		// registrar-derived one.
		md.DOI = identifier.NormalizeDOI(entry.DOI)
	}
	for _, au := range entry.Authors {
		md.Authors = append(md.Authors, types.Author{Name: au.Name})
	}
	for _, cat := range entry.Categories {
		if cat.Term != "" {
			md.Subjects = append(md.Subjects, cat.Term)
		}
	}
	if len(entry.Published) >= 4 {
		fmt.Sscanf(entry.Published[:4], "%d", &md.Year)
		md.PublicationDate = entry.Published[:min(10, len(entry.Published))]
	}
	return md, nil
}

// collapseWhitespace flattens the newline-wrapped text the arXiv feed
// uses in titles and abstracts.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/internal/titles"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// semanticScholarAPIBase is the Graph API paper endpoint. Declared as a
// var so tests can substitute an httptest server.
var semanticScholarAPIBase = "https://api.semanticscholar.org/graph/v1/paper/"

// s2Fields is the field list requested for full metadata lookups.
const s2Fields = "title,abstract,year,venue,authors,externalIds,openAccessPdf,citationCount,referenceCount,publicationDate,publicationTypes"

type s2Paper struct {
	PaperID          string        `json:"paperId"`
	Title            string        `json:"title"`
	Abstract         string        `json:"abstract"`
	Year             int           `json:"year"`
	Venue            string        `json:"venue"`
	Authors          []s2Author    `json:"authors"`
	ExternalIDs      s2ExternalIDs `json:"externalIds"`
	OpenAccessPdf    *s2OpenAccess `json:"openAccessPdf"`
	CitationCount    int           `json:"citationCount"`
	ReferenceCount   int           `json:"referenceCount"`
	PublicationDate  string        `json:"publicationDate"`
	PublicationTypes []string      `json:"publicationTypes"`
}

type s2Author struct {
	Name string `json:"name"`
}

type s2ExternalIDs struct {
	DOI           string `json:"DOI"`
	ArXiv         string `json:"ArXiv"`
	PubMed        string `json:"PubMed"`
	PubMedCentral string `json:"PubMedCentral"`
}

type s2OpenAccess struct {
	URL string `json:"url"`
}

type s2SearchResponse struct {
	Data []s2Paper `json:"data"`
}

// SemanticScholar is the Semantic Scholar Graph API client. An API key
// is optional; without one the public pool's stricter rate limit
// applies.
type SemanticScholar struct {
	client    *http.Client
	apiKey    string
	userAgent string
}

func NewSemanticScholar(client *http.Client, apiKey, userAgent string) *SemanticScholar {
	return &SemanticScholar{client: client, apiKey: apiKey, userAgent: userAgent}
}

func (s *SemanticScholar) Name() string { return "semantic_scholar" }

func (s *SemanticScholar) headers() map[string]string {
	if s.apiKey == "" {
		return nil
	}
	return map[string]string{"x-api-key": s.apiKey}
}

// paperPath builds the Graph API paper path for the identifiers at hand.
func paperPath(req Request) string {
	switch {
	case req.DOI != "":
		return "DOI:" + req.DOI
	case req.ArxivID != "":
		return "ARXIV:" + identifier.NormalizeArxivID(req.ArxivID)
	default:
		return ""
	}
}

// PDFURL returns the open-access PDF link Semantic Scholar knows for the
// paper, if any. A direct ID lookup is tried first; when the request
// carries no identifier, or the lookup comes back empty, a title search
// serves as the secondary path.
func (s *SemanticScholar) PDFURL(ctx context.Context, req Request) (string, error) {
	if path := paperPath(req); path != "" {
		apiURL := semanticScholarAPIBase + url.PathEscape(path) + "?fields=openAccessPdf"

		var rec s2Paper
		found, err := getJSON(ctx, s.client, apiURL, s.userAgent, s.headers(), &rec)
		if err != nil {
			return "", err
		}
		if found && rec.OpenAccessPdf != nil && rec.OpenAccessPdf.URL != "" {
			return rec.OpenAccessPdf.URL, nil
		}
	}
	if req.Title == "" {
		return "", nil
	}
	return s.searchPDFURL(ctx, req.Title)
}

// searchPDFURL searches by title and returns the PDF link of the best
// hit whose title clears the match threshold.
func (s *SemanticScholar) searchPDFURL(ctx context.Context, title string) (string, error) {
	q := url.Values{}
	q.Set("query", title)
	q.Set("fields", "title,openAccessPdf")
	q.Set("limit", "10")
	apiURL := semanticScholarAPIBase + "search?" + q.Encode()

	var rec s2SearchResponse
	found, err := getJSON(ctx, s.client, apiURL, s.userAgent, s.headers(), &rec)
	if err != nil || !found {
		return "", err
	}
	for _, hit := range rec.Data {
		if hit.OpenAccessPdf == nil || hit.OpenAccessPdf.URL == "" {
			continue
		}
		if titles.Match(title, hit.Title) {
			return hit.OpenAccessPdf.URL, nil
		}
	}
	return "", nil
}

// Lookup fetches full metadata for a paper. paperID accepts any Graph
// API form: a raw Semantic Scholar ID, "DOI:...", or "ARXIV:...". It
// returns nil with a nil error when the paper is unknown.
func (s *SemanticScholar) Lookup(ctx context.Context, paperID string) (*types.PaperMetadata, error) {
	apiURL := semanticScholarAPIBase + url.PathEscape(paperID) + "?fields=" + s2Fields

	var rec s2Paper
	found, err := getJSON(ctx, s.client, apiURL, s.userAgent, s.headers(), &rec)
	if err != nil || !found {
		return nil, err
	}
	return s.toMetadata(rec), nil
}

// SearchTitle searches by title and returns the ID of the best hit whose
// title clears the match threshold, or "" when none does.
func (s *SemanticScholar) SearchTitle(ctx context.Context, title string) (string, error) {
	q := url.Values{}
	q.Set("query", title)
	q.Set("fields", "title")
	q.Set("limit", "10")
	apiURL := semanticScholarAPIBase + "search?" + q.Encode()

	var rec s2SearchResponse
	found, err := getJSON(ctx, s.client, apiURL, s.userAgent, s.headers(), &rec)
	if err != nil || !found {
		return "", err
	}

	bestID, bestScore := "", 0.0
	for _, hit := range rec.Data {
		score := titles.Jaccard(title, hit.Title)
		if score > bestScore {
			bestID, bestScore = hit.PaperID, score
		}
	}
	if bestScore < titles.MatchThreshold {
		return "", nil
	}
	return bestID, nil
}

func (s *SemanticScholar) toMetadata(rec s2Paper) *types.PaperMetadata {
	md := &types.PaperMetadata{
		Title:           rec.Title,
		Abstract:        rec.Abstract,
		Year:            rec.Year,
		Venue:           rec.Venue,
		S2ID:            rec.PaperID,
		DOI:             identifier.NormalizeDOI(rec.ExternalIDs.DOI),
		ArxivID:         rec.ExternalIDs.ArXiv,
		PMID:            rec.ExternalIDs.PubMed,
		CitationCount:   rec.CitationCount,
		ReferenceCount:  rec.ReferenceCount,
		PublicationDate: rec.PublicationDate,
		Source:          "semantic_scholar",
	}
	if len(rec.PublicationTypes) > 0 {
		md.PublicationType = rec.PublicationTypes[0]
	}
	if rec.ExternalIDs.PubMedCentral != "" {
		md.PMCID = "PMC" + rec.ExternalIDs.PubMedCentral
	}
	if rec.OpenAccessPdf != nil {
		md.PDFURL = rec.OpenAccessPdf.URL
	}
	for _, au := range rec.Authors {
		md.Authors = append(md.Authors, types.Author{Name: au.Name})
	}
	return md
}

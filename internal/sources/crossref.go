// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/internal/titles"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// CrossRef endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	crossrefAPIBase    = "https://api.crossref.org/works/"
	crossrefSearchBase = "https://api.crossref.org/works"
)

type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefSearchResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	DOI            string           `json:"DOI"`
	Title          []string         `json:"title"`
	Author         []crossrefAuthor `json:"author"`
	Issued         crossrefDate     `json:"issued"`
	ContainerTitle []string         `json:"container-title"`
	Publisher      string           `json:"publisher"`
	Volume         string           `json:"volume"`
	Issue          string           `json:"issue"`
	Page           string           `json:"page"`
	Type           string           `json:"type"`
	Abstract       string           `json:"abstract"`
	Subject        []string         `json:"subject"`
	URL            string           `json:"URL"`
	ReferenceCount int              `json:"references-count"`
	CitedByCount   int              `json:"is-referenced-by-count"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	ORCID  string `json:"ORCID"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// jatsTag matches the JATS markup CrossRef embeds in abstracts.
var jatsTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// CrossRef is the DOI registrar's metadata API. It never serves PDFs;
// the metadata resolver uses it as the primary record for any DOI.
type CrossRef struct {
	client    *http.Client
	email     string
	userAgent string
}

func NewCrossRef(client *http.Client, email, userAgent string) *CrossRef {
	return &CrossRef{client: client, email: email, userAgent: userAgent}
}

// Metadata fetches the registrar record for a DOI. It returns nil with a
// nil error when the DOI is not registered.
func (c *CrossRef) Metadata(ctx context.Context, doi string) (*types.PaperMetadata, error) {
	apiURL := crossrefAPIBase + url.PathEscape(doi)
	if c.email != "" {
		apiURL += "?mailto=" + url.QueryEscape(c.email)
	}

	var rec crossrefResponse
	found, err := getJSON(ctx, c.client, apiURL, c.userAgent, nil, &rec)
	if err != nil || !found {
		return nil, err
	}
	return c.toMetadata(rec.Message), nil
}

// SearchTitle queries the works search endpoint and returns the best
// match whose title overlaps the query above the search threshold, or
// nil when nothing scores high enough.
func (c *CrossRef) SearchTitle(ctx context.Context, title string) (*types.PaperMetadata, error) {
	q := url.Values{}
	q.Set("query.title", title)
	q.Set("rows", "5")
	if c.email != "" {
		q.Set("mailto", c.email)
	}

	var rec crossrefSearchResponse
	found, err := getJSON(ctx, c.client, crossrefSearchBase+"?"+q.Encode(), c.userAgent, nil, &rec)
	if err != nil || !found {
		return nil, err
	}

	var best *crossrefWork
	bestScore := 0.0
	for i, item := range rec.Message.Items {
		if len(item.Title) == 0 {
			continue
		}
		score := titles.Jaccard(title, item.Title[0])
		if score > bestScore {
			best = &rec.Message.Items[i]
			bestScore = score
		}
	}
	if best == nil || bestScore < titles.CrossRefThreshold {
		return nil, nil
	}
	return c.toMetadata(*best), nil
}

func (c *CrossRef) toMetadata(w crossrefWork) *types.PaperMetadata {
	md := &types.PaperMetadata{
		DOI:             identifier.NormalizeDOI(w.DOI),
		Publisher:       w.Publisher,
		Volume:          w.Volume,
		Issue:           w.Issue,
		Pages:           w.Page,
		PublicationType: w.Type,
		Abstract:        strings.TrimSpace(jatsTag.ReplaceAllString(w.Abstract, "")),
		Keywords:        w.Subject,
		URL:             w.URL,
		CitationCount:   w.CitedByCount,
		ReferenceCount:  w.ReferenceCount,
		Source:          "crossref",
	}
	if len(w.Title) > 0 {
		md.Title = w.Title[0]
	}
	if len(w.ContainerTitle) > 0 {
		md.Venue = w.ContainerTitle[0]
	}
	for _, au := range w.Author {
		md.Authors = append(md.Authors, types.Author{
			Given:  au.Given,
			Family: au.Family,
			Name:   strings.TrimSpace(au.Given + " " + au.Family),
			ORCID:  au.ORCID,
		})
	}
	if len(w.Issued.DateParts) > 0 && len(w.Issued.DateParts[0]) > 0 {
		md.Year = w.Issued.DateParts[0][0]
	}
	return md
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/internal/titles"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// openAlexAPIBase is the OpenAlex works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org/works/"

type openAlexWork struct {
	ID                    string             `json:"id"`
	DOI                   string             `json:"doi"`
	Title                 string             `json:"title"`
	PublicationYear       int                `json:"publication_year"`
	PublicationDate       string             `json:"publication_date"`
	Type                  string             `json:"type"`
	CitedByCount          int                `json:"cited_by_count"`
	Authorships           []openAlexAuthship `json:"authorships"`
	PrimaryLocation       *openAlexLocation  `json:"primary_location"`
	BestOALocation        *openAlexLocation  `json:"best_oa_location"`
	AbstractInvertedIndex map[string][]int   `json:"abstract_inverted_index"`
	Biblio                openAlexBiblio     `json:"biblio"`
}

type openAlexAuthship struct {
	Author       openAlexAuthor `json:"author"`
	Institutions []struct {
		DisplayName string `json:"display_name"`
	} `json:"institutions"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
	ORCID       string `json:"orcid"`
}

type openAlexLocation struct {
	PDFURL         string `json:"pdf_url"`
	LandingPageURL string `json:"landing_page_url"`
	Source         *struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}

type openAlexSearchResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexBiblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

// OpenAlex queries the OpenAlex works API for open-access locations and
// metadata. Passing a contact email joins the polite pool.
type OpenAlex struct {
	client    *http.Client
	email     string
	userAgent string
}

func NewOpenAlex(client *http.Client, email, userAgent string) *OpenAlex {
	return &OpenAlex{client: client, email: email, userAgent: userAgent}
}

func (o *OpenAlex) Name() string { return "openalex" }

func (o *OpenAlex) workURL(id string) string {
	apiURL := openAlexAPIBase + id
	if o.email != "" {
		apiURL += "?mailto=" + url.QueryEscape(o.email)
	}
	return apiURL
}

// PDFURL returns the best open-access PDF link OpenAlex records for the
// paper. The work is looked up by DOI when one is present; otherwise a
// title search picks the best-matching work.
func (o *OpenAlex) PDFURL(ctx context.Context, req Request) (string, error) {
	if req.DOI != "" {
		var work openAlexWork
		found, err := getJSON(ctx, o.client, o.workURL("https://doi.org/"+req.DOI), o.userAgent, nil, &work)
		if err != nil {
			return "", err
		}
		if found {
			return oaPDFURL(work), nil
		}
	}
	if req.Title == "" {
		return "", nil
	}
	return o.searchPDFURL(ctx, req.Title)
}

// searchPDFURL searches works by title and returns the open-access PDF
// link of the best-matching hit.
func (o *OpenAlex) searchPDFURL(ctx context.Context, title string) (string, error) {
	q := url.Values{}
	q.Set("filter", "title.search:"+title)
	q.Set("per-page", "10")
	if o.email != "" {
		q.Set("mailto", o.email)
	}
	apiURL := strings.TrimSuffix(openAlexAPIBase, "/") + "?" + q.Encode()

	var resp openAlexSearchResponse
	found, err := getJSON(ctx, o.client, apiURL, o.userAgent, nil, &resp)
	if err != nil || !found {
		return "", err
	}
	for _, work := range resp.Results {
		if !titles.Match(title, work.Title) {
			continue
		}
		if pdfURL := oaPDFURL(work); pdfURL != "" {
			return pdfURL, nil
		}
	}
	return "", nil
}

func oaPDFURL(work openAlexWork) string {
	if work.BestOALocation != nil {
		return work.BestOALocation.PDFURL
	}
	return ""
}

// Metadata fetches a work record by OpenAlex ID (a "W..." identifier) or
// by DOI URL and maps it to paper metadata. It returns nil with a nil
// error when the work is unknown.
func (o *OpenAlex) Metadata(ctx context.Context, id string) (*types.PaperMetadata, error) {
	var work openAlexWork
	found, err := getJSON(ctx, o.client, o.workURL(id), o.userAgent, nil, &work)
	if err != nil || !found {
		return nil, err
	}

	md := &types.PaperMetadata{
		Title:           work.Title,
		Year:            work.PublicationYear,
		PublicationDate: work.PublicationDate,
		PublicationType: work.Type,
		DOI:             identifier.NormalizeDOI(work.DOI),
		OpenAlexID:      strings.TrimPrefix(work.ID, "https://openalex.org/"),
		CitationCount:   work.CitedByCount,
		Abstract:        reconstructAbstract(work.AbstractInvertedIndex),
		Volume:          work.Biblio.Volume,
		Issue:           work.Biblio.Issue,
		Source:          "openalex",
	}
	if work.Biblio.FirstPage != "" {
		md.Pages = work.Biblio.FirstPage
		if work.Biblio.LastPage != "" {
			md.Pages += "-" + work.Biblio.LastPage
		}
	}
	if loc := work.PrimaryLocation; loc != nil {
		md.URL = loc.LandingPageURL
		if loc.Source != nil {
			md.Venue = loc.Source.DisplayName
		}
	}
	if work.BestOALocation != nil && work.BestOALocation.PDFURL != "" {
		md.PDFURL = work.BestOALocation.PDFURL
	}
	for _, as := range work.Authorships {
		author := types.Author{
			Name:  as.Author.DisplayName,
			ORCID: strings.TrimPrefix(as.Author.ORCID, "https://orcid.org/"),
		}
		for _, inst := range as.Institutions {
			author.Affiliations = append(author.Affiliations, inst.DisplayName)
		}
		md.Authors = append(md.Authors, author)
	}
	return md, nil
}

// reconstructAbstract rebuilds the abstract text from OpenAlex's
// inverted index (word to list of positions).
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	type posWord struct {
		pos  int
		word string
	}
	var words []posWord
	for word, positions := range index {
		for _, pos := range positions {
			words = append(words, posWord{pos, word})
		}
	}
	sort.Slice(words, func(i, j int) bool { return words[i].pos < words[j].pos })

	parts := make([]string, len(words))
	for i, pw := range words {
		parts[i] = pw.word
	}
	return strings.Join(parts, " ")
}

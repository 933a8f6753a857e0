// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// Preprint details endpoints. bioRxiv and medRxiv share the Cold Spring
// Harbor DOI prefix, so both servers are probed for any 10.1101 DOI.
// Declared as vars so tests can substitute an httptest server.
var (
	biorxivAPIBase = "https://api.biorxiv.org/details"
	medrxivAPIBase = "https://api.medrxiv.org/details"
)

// biorxivDOIPrefix is the Cold Spring Harbor registrar prefix used by
// both servers.
const biorxivDOIPrefix = "10.1101/"

type biorxivResponse struct {
	Collection []biorxivItem `json:"collection"`
}

type biorxivItem struct {
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Date     string `json:"date"`
	Version  string `json:"version"`
	Category string `json:"category"`
	Abstract string `json:"abstract"`
}

// Biorxiv locates preprints on bioRxiv and medRxiv.
type Biorxiv struct {
	client    *http.Client
	userAgent string
}

func NewBiorxiv(client *http.Client, userAgent string) *Biorxiv {
	return &Biorxiv{client: client, userAgent: userAgent}
}

func (b *Biorxiv) Name() string { return "biorxiv" }

// PDFURL probes both preprint servers for a 10.1101 DOI and returns the
// content PDF link of whichever one knows the paper. Non-preprint DOIs
// are not-found without any network traffic.
func (b *Biorxiv) PDFURL(ctx context.Context, req Request) (string, error) {
	item, server, err := b.lookup(ctx, req.DOI)
	if err != nil || item == nil {
		return "", err
	}
	return "https://www." + server + ".org/content/" + item.DOI + ".full.pdf", nil
}

// Metadata returns the preprint record for a 10.1101 DOI, or nil when
// neither server knows it.
func (b *Biorxiv) Metadata(ctx context.Context, doi string) (*types.PaperMetadata, error) {
	item, server, err := b.lookup(ctx, doi)
	if err != nil || item == nil {
		return nil, err
	}

	md := &types.PaperMetadata{
		Title:           item.Title,
		Abstract:        item.Abstract,
		DOI:             item.DOI,
		Venue:           server,
		PublicationDate: item.Date,
		PDFURL:          "https://www." + server + ".org/content/" + item.DOI + ".full.pdf",
		Source:          "biorxiv",
	}
	if len(item.Date) >= 4 {
		if year, err := strconv.Atoi(item.Date[:4]); err == nil {
			md.Year = year
		}
	}
	// Authors come back as "Family, G.; Family, G." in one string.
	for _, name := range strings.Split(item.Authors, ";") {
		name = strings.TrimSpace(name)
		if name != "" {
			md.Authors = append(md.Authors, types.Author{Name: name})
		}
	}
	if item.Category != "" {
		md.Subjects = []string{item.Category}
	}
	return md, nil
}

func (b *Biorxiv) lookup(ctx context.Context, doi string) (*biorxivItem, string, error) {
	if !strings.HasPrefix(doi, biorxivDOIPrefix) {
		return nil, "", nil
	}

	servers := []struct {
		name string
		base string
	}{
		{"biorxiv", biorxivAPIBase},
		{"medrxiv", medrxivAPIBase},
	}
	// A failure on one server must not mask a hit on the other; the
	// prefix alone does not say which server holds the paper.
	var lastErr error
	for _, srv := range servers {
		apiURL := srv.base + "/" + srv.name + "/" + doi + "/na/json"

		var rec biorxivResponse
		found, err := getJSON(ctx, b.client, apiURL, b.userAgent, nil, &rec)
		if err != nil {
			lastErr = err
			continue
		}
		if found && len(rec.Collection) > 0 {
			return &rec.Collection[0], srv.name, nil
		}
	}
	if lastErr != nil {
		return nil, "", lastErr
	}
	return nil, "", nil
}

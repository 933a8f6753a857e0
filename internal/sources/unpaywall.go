// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"net/url"
)

// unpaywallAPIBase is the Unpaywall DOI endpoint. Declared as a var so
// tests can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// unpaywallResponse captures the open-access locations of an Unpaywall
// record.
type unpaywallResponse struct {
	BestOALocation *unpaywallLocation  `json:"best_oa_location"`
	OALocations    []unpaywallLocation `json:"oa_locations"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
}

// Unpaywall queries the Unpaywall open-access index. The API requires a
// contact email on every request.
type Unpaywall struct {
	client    *http.Client
	email     string
	userAgent string
}

func NewUnpaywall(client *http.Client, email, userAgent string) *Unpaywall {
	return &Unpaywall{client: client, email: email, userAgent: userAgent}
}

func (u *Unpaywall) Name() string { return "unpaywall" }

// PDFURL returns the best open-access PDF link for a DOI. When the best
// location has no PDF it falls back to the first alternate location that
// does.
func (u *Unpaywall) PDFURL(ctx context.Context, req Request) (string, error) {
	if req.DOI == "" {
		return "", nil
	}

	apiURL := unpaywallAPIBase + url.PathEscape(req.DOI) + "?email=" + url.QueryEscape(u.email)

	var rec unpaywallResponse
	found, err := getJSON(ctx, u.client, apiURL, u.userAgent, nil, &rec)
	if err != nil || !found {
		return "", err
	}

	if rec.BestOALocation != nil && rec.BestOALocation.URLForPDF != "" {
		return rec.BestOALocation.URLForPDF, nil
	}
	for _, loc := range rec.OALocations {
		if loc.URLForPDF != "" {
			return loc.URLForPDF, nil
		}
	}
	return "", nil
}

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
)

// PubMed Central endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pmcIDConvAPIBase = "https://pmc.ncbi.nlm.nih.gov/tools/idconv/api/v1/articles/"
	pmcOAAPIBase     = "https://www.ncbi.nlm.nih.gov/pmc/utils/oa/oa.fcgi"
	pmcArticleBase   = "https://pmc.ncbi.nlm.nih.gov/articles/"
)

type pmcIDConvResponse struct {
	Records []struct {
		PMCID string `json:"pmcid"`
	} `json:"records"`
}

// pmcOAResponse is the OA service XML envelope. An <error> element means
// the article is not in the open-access subset.
type pmcOAResponse struct {
	Error *struct {
		Code string `xml:"code,attr"`
	} `xml:"error"`
	Links []struct {
		Format string `xml:"format,attr"`
		Href   string `xml:"href,attr"`
	} `xml:"records>record>link"`
}

// PMC serves PDFs from PubMed Central. DOIs are first converted to a
// PMCID via the NCBI ID converter, then the open-access service is asked
// for a PDF link; articles outside the OA subset fall back to a probe of
// the direct article PDF path.
type PMC struct {
	client    *http.Client
	email     string
	apiKey    string
	userAgent string
}

func NewPMC(client *http.Client, email, apiKey, userAgent string) *PMC {
	return &PMC{client: client, email: email, apiKey: apiKey, userAgent: userAgent}
}

func (p *PMC) Name() string { return "pmc" }

// PDFURL resolves a DOI to a PubMed Central PDF link, or "" when the
// article is not deposited there.
func (p *PMC) PDFURL(ctx context.Context, req Request) (string, error) {
	if req.DOI == "" {
		return "", nil
	}

	pmcid, err := p.DOIToPMCID(ctx, req.DOI)
	if err != nil {
		return "", err
	}
	if pmcid == "" {
		return "", nil
	}
	return p.PDFURLForPMCID(ctx, pmcid)
}

// DOIToPMCID converts a DOI to a PMCID via the NCBI ID converter. It
// returns "" when the DOI has no PMC deposit.
func (p *PMC) DOIToPMCID(ctx context.Context, doi string) (string, error) {
	q := url.Values{}
	q.Set("ids", doi)
	q.Set("format", "json")
	q.Set("tool", "paperfetch")
	if p.email != "" {
		q.Set("email", p.email)
	}
	if p.apiKey != "" {
		q.Set("api_key", p.apiKey)
	}

	var rec pmcIDConvResponse
	found, err := getJSON(ctx, p.client, pmcIDConvAPIBase+"?"+q.Encode(), p.userAgent, nil, &rec)
	if err != nil || !found {
		return "", err
	}
	if len(rec.Records) == 0 {
		return "", nil
	}
	return rec.Records[0].PMCID, nil
}

// PDFURLForPMCID asks the open-access service for the article's PDF
// link. FTP links are rewritten to their HTTPS mirror. When the article
// is not in the OA subset the direct article PDF path is probed with a
// HEAD request instead.
func (p *PMC) PDFURLForPMCID(ctx context.Context, pmcid string) (string, error) {
	pmcid = normalizePMCID(pmcid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pmcOAAPIBase+"?id="+url.QueryEscape(pmcid)+"&format=pdf", nil)
	if err != nil {
		return "", fmt.Errorf("creating OA request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := httputil.DoWithRetry(ctx, p.client, req, 0)
	if err != nil {
		return "", fmt.Errorf("PMC OA request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var oa pmcOAResponse
		if err := xml.NewDecoder(resp.Body).Decode(&oa); err != nil {
			return "", fmt.Errorf("parsing PMC OA response: %w", err)
		}
		if oa.Error == nil {
			for _, link := range oa.Links {
				if link.Format == "pdf" && link.Href != "" {
					return strings.Replace(link.Href, "ftp://", "https://", 1), nil
				}
			}
		}
	}

	return p.probeDirectPDF(ctx, pmcid)
}

// probeDirectPDF checks whether the non-OA article PDF path answers a
// HEAD request. Many PMC articles serve a PDF there even when the OA
// service has no record.
func (p *PMC) probeDirectPDF(ctx context.Context, pmcid string) (string, error) {
	directURL := pmcArticleBase + pmcid + "/pdf/"

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, directURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating probe request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", nil
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return directURL, nil
	}
	return "", nil
}

// normalizePMCID upper-cases and prefixes a bare numeric ID with "PMC".
func normalizePMCID(pmcid string) string {
	pmcid = strings.ToUpper(strings.TrimSpace(pmcid))
	if !strings.HasPrefix(pmcid, "PMC") {
		pmcid = "PMC" + pmcid
	}
	return pmcid
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/internal/sources"
	"github.com/pdiddy/paperfetch/pkg/types"
)

type fakeSource struct {
	name  string
	url   string
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) PDFURL(ctx context.Context, req sources.Request) (string, error) {
	f.calls++
	return f.url, f.err
}

type fakeResolver struct {
	md *types.PaperMetadata
}

func (f *fakeResolver) Resolve(ctx context.Context, id identifier.PaperIdentifier) (*types.PaperMetadata, error) {
	return f.md, nil
}

// newPDFServer serves a minimal valid PDF on every path.
func newPDFServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.5 test body"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTestRetriever wires a retriever over fake sources. Sources are
// registered under "alpha" < "beta" < "gamma" priority order.
func newTestRetriever(t *testing.T, outDir string, hc *http.Client, md *types.PaperMetadata, fakes ...*fakeSource) *Retriever {
	t.Helper()

	cfg := types.DefaultConfig()
	cfg.Download.OutputDir = outDir
	cfg.RateLimits.GlobalDelay = 0
	cfg.Sources = map[string]types.SourceConfig{}

	reg := sources.NewRegistry()
	for i, f := range fakes {
		cfg.Sources[f.name] = types.SourceConfig{Enabled: true, Priority: i + 1}
		require.NoError(t, reg.Register(f))
	}

	history, err := OpenHistory(outDir)
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	if hc == nil {
		hc = http.DefaultClient
	}
	return &Retriever{
		cfg:        cfg,
		registry:   reg,
		limiter:    sources.NewRateLimiter(cfg.RateLimits),
		resolver:   &fakeResolver{md: md},
		downloader: NewDownloader(hc, "test-agent"),
		history:    history,
		out:        &bytes.Buffer{},
		log:        zerolog.Nop(),
	}
}

func testMetadata() *types.PaperMetadata {
	return &types.PaperMetadata{
		Title:   "Test Paper",
		Authors: []types.Author{{Name: "Jane Doe"}},
		Year:    2020,
		DOI:     "10.1234/test",
	}
}

func TestRetrieveSuccessFirstSource(t *testing.T) {
	srv := newPDFServer(t)
	outDir := t.TempDir()
	alpha := &fakeSource{name: "alpha", url: srv.URL + "/paper.pdf"}
	r := newTestRetriever(t, outDir, srv.Client(), testMetadata(), alpha)

	result := r.Retrieve(context.Background(), Query{DOI: "10.1234/test"})

	assert.Equal(t, types.StatusSuccess, result.Status)
	assert.Equal(t, "alpha", result.Source)
	assert.Equal(t, "10.1234/test", result.DOI)
	assert.Equal(t, "Test Paper", result.Title)
	assert.Equal(t, filepath.Join(outDir, "Doe_2020_Test_Paper.pdf"), result.PDFPath)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, outcomeDownloaded, result.Attempts[0].Outcome)

	_, err := os.Stat(result.PDFPath)
	assert.NoError(t, err, "PDF on disk")
	_, err = os.Stat(SidecarPath(result.PDFPath))
	assert.NoError(t, err, "metadata sidecar on disk")
}

func TestRetrieveUsesMetadataPDFLink(t *testing.T) {
	srv := newPDFServer(t)
	alpha := &fakeSource{name: "alpha", url: srv.URL + "/alpha.pdf"}
	md := testMetadata()
	md.Source = "crossref"
	md.PDFURL = srv.URL + "/oa.pdf"
	r := newTestRetriever(t, t.TempDir(), srv.Client(), md, alpha)

	result := r.Retrieve(context.Background(), Query{DOI: "10.1234/test"})

	assert.Equal(t, types.StatusSuccess, result.Status)
	assert.Equal(t, "crossref", result.Source)
	assert.Zero(t, alpha.calls, "metadata link served; sources never walked")
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, "metadata", result.Attempts[0].Source)
	assert.Equal(t, outcomeDownloaded, result.Attempts[0].Outcome)
}

func TestRetrieveMetadataPDFLinkFailureFallsToSources(t *testing.T) {
	srv := newPDFServer(t)
	dead := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer dead.Close()

	alpha := &fakeSource{name: "alpha", url: srv.URL + "/alpha.pdf"}
	md := testMetadata()
	md.Source = "crossref"
	md.PDFURL = dead.URL + "/gone.pdf"
	r := newTestRetriever(t, t.TempDir(), srv.Client(), md, alpha)

	result := r.Retrieve(context.Background(), Query{DOI: "10.1234/test"})

	assert.Equal(t, types.StatusSuccess, result.Status)
	assert.Equal(t, "alpha", result.Source)
	require.Len(t, result.Attempts, 2)
	assert.Equal(t, "metadata", result.Attempts[0].Source)
	assert.Equal(t, outcomeError, result.Attempts[0].Outcome)
	assert.Equal(t, "alpha", result.Attempts[1].Source)
}

func TestRetrieveFallsThroughPriorityOrder(t *testing.T) {
	srv := newPDFServer(t)
	alpha := &fakeSource{name: "alpha"} // not found
	beta := &fakeSource{name: "beta", err: errors.New("upstream 500")}
	gamma := &fakeSource{name: "gamma", url: srv.URL + "/paper.pdf"}
	r := newTestRetriever(t, t.TempDir(), srv.Client(), testMetadata(), alpha, beta, gamma)

	result := r.Retrieve(context.Background(), Query{DOI: "10.1234/test"})

	require.Equal(t, types.StatusSuccess, result.Status)
	assert.Equal(t, "gamma", result.Source)

	require.Len(t, result.Attempts, 3)
	assert.Equal(t, types.Attempt{Source: "alpha", Outcome: outcomeNotFound}, result.Attempts[0])
	assert.Equal(t, "beta", result.Attempts[1].Source)
	assert.Equal(t, outcomeError, result.Attempts[1].Outcome)
	assert.Contains(t, result.Attempts[1].Detail, "upstream 500")
	assert.Equal(t, outcomeDownloaded, result.Attempts[2].Outcome)

	assert.Equal(t, 1, alpha.calls)
	assert.Equal(t, 1, beta.calls)
	assert.Equal(t, 1, gamma.calls)
}

func TestRetrieveNotFoundAnywhere(t *testing.T) {
	alpha := &fakeSource{name: "alpha"}
	beta := &fakeSource{name: "beta"}
	r := newTestRetriever(t, t.TempDir(), nil, testMetadata(), alpha, beta)

	result := r.Retrieve(context.Background(), Query{DOI: "10.1234/test"})

	assert.Equal(t, types.StatusNotFound, result.Status)
	assert.Equal(t, "PDF not found in any source", result.Error)
	assert.Empty(t, result.PDFPath)
	assert.Len(t, result.Attempts, 2)
}

func TestRetrieveSkipsExistingFile(t *testing.T) {
	outDir := t.TempDir()
	existing := filepath.Join(outDir, "Doe_2020_Test_Paper.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("%PDF-1.5 old"), 0o644))

	alpha := &fakeSource{name: "alpha", url: "https://example.org/should-not-be-used.pdf"}
	r := newTestRetriever(t, outDir, nil, testMetadata(), alpha)

	result := r.Retrieve(context.Background(), Query{DOI: "10.1234/test"})

	assert.Equal(t, types.StatusSkipped, result.Status)
	assert.Equal(t, "cached", result.Source)
	assert.Equal(t, existing, result.PDFPath)
	assert.Zero(t, alpha.calls, "no source may be contacted for a cached paper")
}

func TestRetrieveRejectsNonPDFAndContinues(t *testing.T) {
	htmlSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/landing" {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>paywall</html>"))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.5 real"))
	}))
	defer htmlSrv.Close()

	alpha := &fakeSource{name: "alpha", url: htmlSrv.URL + "/landing"}
	beta := &fakeSource{name: "beta", url: htmlSrv.URL + "/real.pdf"}
	r := newTestRetriever(t, t.TempDir(), htmlSrv.Client(), testMetadata(), alpha, beta)

	result := r.Retrieve(context.Background(), Query{DOI: "10.1234/test"})

	require.Equal(t, types.StatusSuccess, result.Status)
	assert.Equal(t, "beta", result.Source)
	require.Len(t, result.Attempts, 2)
	assert.Equal(t, outcomeError, result.Attempts[0].Outcome)
	assert.Contains(t, result.Attempts[0].Detail, "not a PDF")
}

func TestRetrieveEmptyQueryIsError(t *testing.T) {
	r := newTestRetriever(t, t.TempDir(), nil, nil)

	result := r.Retrieve(context.Background(), Query{})

	assert.Equal(t, types.StatusError, result.Status)
	assert.Contains(t, result.Error, "DOI or title")
}

func TestRetrieveDirectPDFURL(t *testing.T) {
	srv := newPDFServer(t)
	r := newTestRetriever(t, t.TempDir(), srv.Client(), nil)

	result := r.Retrieve(context.Background(), Query{PDFURL: srv.URL + "/direct.pdf"})

	require.Equal(t, types.StatusSuccess, result.Status)
	assert.Equal(t, "direct", result.Source)
	_, err := os.Stat(result.PDFPath)
	assert.NoError(t, err)
	assert.Equal(t, "paper.pdf", filepath.Base(result.PDFPath), "no metadata falls back to the default name")
}

func TestRetrieveRecordsHistory(t *testing.T) {
	srv := newPDFServer(t)
	alpha := &fakeSource{name: "alpha", url: srv.URL + "/paper.pdf"}
	r := newTestRetriever(t, t.TempDir(), srv.Client(), testMetadata(), alpha)

	r.Retrieve(context.Background(), Query{DOI: "10.1234/test"})
	r.Retrieve(context.Background(), Query{DOI: "10.1234/test"}) // cached this time

	entries, err := r.History().Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, types.StatusSkipped, entries[0].Status)
	assert.Equal(t, types.StatusSuccess, entries[1].Status)
}

func TestQueryFromIdentifier(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Query
	}{
		{"doi", "10.1038/nature14539", Query{DOI: "10.1038/nature14539"}},
		{"arxiv", "arXiv:1706.03762", Query{DOI: "10.48550/arXiv.1706.03762", ArxivID: "1706.03762"}},
		{"title", "Attention Is All You Need", Query{Title: "Attention Is All You Need"}},
		{"pdf url", "https://example.org/p.pdf", Query{PDFURL: "https://example.org/p.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QueryFromIdentifier(identifier.Resolve(tt.in))
			assert.Equal(t, tt.want, got)
		})
	}
}

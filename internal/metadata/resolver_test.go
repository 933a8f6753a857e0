// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/pkg/types"
)

type fakeRegistrar struct {
	records map[string]*types.PaperMetadata
	err     error
	calls   int
}

func (f *fakeRegistrar) Metadata(ctx context.Context, doi string) (*types.PaperMetadata, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records[doi], nil
}

type fakeGraph struct {
	records  map[string]*types.PaperMetadata
	searches map[string]string
	calls    []string
}

func (f *fakeGraph) Lookup(ctx context.Context, paperID string) (*types.PaperMetadata, error) {
	f.calls = append(f.calls, paperID)
	return f.records[paperID], nil
}

func (f *fakeGraph) SearchTitle(ctx context.Context, title string) (string, error) {
	return f.searches[title], nil
}

type fakeWorks struct {
	records map[string]*types.PaperMetadata
}

func (f *fakeWorks) Metadata(ctx context.Context, id string) (*types.PaperMetadata, error) {
	return f.records[id], nil
}

type fakePreprints struct {
	records map[string]*types.PaperMetadata
}

func (f *fakePreprints) Metadata(ctx context.Context, arxivID string) (*types.PaperMetadata, error) {
	return f.records[identifier.NormalizeArxivID(arxivID)], nil
}

func newTestResolver() *Resolver {
	return &Resolver{
		crossref: &fakeRegistrar{records: map[string]*types.PaperMetadata{}},
		s2:       &fakeGraph{records: map[string]*types.PaperMetadata{}, searches: map[string]string{}},
		openalex: &fakeWorks{records: map[string]*types.PaperMetadata{}},
		arxiv:    &fakePreprints{records: map[string]*types.PaperMetadata{}},
		email:    "ops@example.org",
		log:      zerolog.Nop(),
	}
}

func TestResolveDOIPrefersCrossRef(t *testing.T) {
	r := newTestResolver()
	r.crossref.(*fakeRegistrar).records["10.1038/nature14539"] = &types.PaperMetadata{Title: "Deep learning", Source: "crossref"}
	r.s2.(*fakeGraph).records["DOI:10.1038/nature14539"] = &types.PaperMetadata{Title: "Deep learning", Source: "semantic_scholar"}

	md, err := r.Resolve(context.Background(), identifier.Resolve("10.1038/nature14539"))
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "crossref", md.Source)
}

func TestResolveDOIFallsBackToSemanticScholar(t *testing.T) {
	r := newTestResolver()
	r.s2.(*fakeGraph).records["DOI:10.1038/nature14539"] = &types.PaperMetadata{Title: "Deep learning", Source: "semantic_scholar"}

	md, err := r.Resolve(context.Background(), identifier.Resolve("10.1038/nature14539"))
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "semantic_scholar", md.Source)
}

func TestResolveDOIFallsBackToOpenAlex(t *testing.T) {
	r := newTestResolver()
	r.crossref.(*fakeRegistrar).err = errors.New("boom")
	r.openalex.(*fakeWorks).records["https://doi.org/10.1038/nature14539"] = &types.PaperMetadata{Title: "Deep learning", Source: "openalex"}

	md, err := r.Resolve(context.Background(), identifier.Resolve("10.1038/nature14539"))
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "openalex", md.Source)
}

func TestResolveDOIWithoutEmailSkipsCrossRef(t *testing.T) {
	r := newTestResolver()
	r.email = ""
	r.crossref.(*fakeRegistrar).records["10.1038/nature14539"] = &types.PaperMetadata{Source: "crossref"}
	r.s2.(*fakeGraph).records["DOI:10.1038/nature14539"] = &types.PaperMetadata{Source: "semantic_scholar"}

	md, err := r.Resolve(context.Background(), identifier.Resolve("10.1038/nature14539"))
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "semantic_scholar", md.Source)
	assert.Zero(t, r.crossref.(*fakeRegistrar).calls)
}

func TestResolveDOIWithoutEmailStillReachesOpenAlex(t *testing.T) {
	r := newTestResolver()
	r.email = ""
	r.openalex.(*fakeWorks).records["https://doi.org/10.1038/nature14539"] = &types.PaperMetadata{Title: "Deep learning", Source: "openalex"}

	md, err := r.Resolve(context.Background(), identifier.Resolve("10.1038/nature14539"))
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "openalex", md.Source)
	assert.Zero(t, r.crossref.(*fakeRegistrar).calls, "no email still skips CrossRef only")
}

func TestResolveArxivEnrichesCitations(t *testing.T) {
	r := newTestResolver()
	r.arxiv.(*fakePreprints).records["1706.03762"] = &types.PaperMetadata{
		Title:   "Attention Is All You Need",
		ArxivID: "1706.03762",
		Source:  "arxiv",
	}
	r.s2.(*fakeGraph).records["ARXIV:1706.03762"] = &types.PaperMetadata{
		S2ID:           "649def34",
		CitationCount:  90000,
		ReferenceCount: 40,
	}

	md, err := r.Resolve(context.Background(), identifier.Resolve("arXiv:1706.03762"))
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "arxiv", md.Source, "arXiv stays the record of origin")
	assert.Equal(t, 90000, md.CitationCount)
	assert.Equal(t, "649def34", md.S2ID)
}

func TestResolveArxivRegistrarDOIRoutesToArxiv(t *testing.T) {
	r := newTestResolver()
	r.arxiv.(*fakePreprints).records["1706.03762"] = &types.PaperMetadata{Source: "arxiv"}

	md, err := r.Resolve(context.Background(), identifier.PaperIdentifier{
		Kind:  identifier.KindDOI,
		Value: "10.48550/arxiv.1706.03762",
	})
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "arxiv", md.Source)
	assert.Zero(t, r.crossref.(*fakeRegistrar).calls)
}

func TestResolveTitleSearchesThenFetches(t *testing.T) {
	r := newTestResolver()
	g := r.s2.(*fakeGraph)
	g.searches["Attention Is All You Need"] = "649def34"
	g.records["649def34"] = &types.PaperMetadata{Title: "Attention Is All You Need", S2ID: "649def34"}

	md, err := r.Resolve(context.Background(), identifier.Resolve("Attention Is All You Need"))
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "649def34", md.S2ID)
}

func TestResolveTitleNoMatchIsNil(t *testing.T) {
	r := newTestResolver()

	md, err := r.Resolve(context.Background(), identifier.Resolve("Entirely Unknown Paper Title"))
	require.NoError(t, err)
	assert.Nil(t, md)
}

func TestResolvePubMedGoesThroughGraph(t *testing.T) {
	r := newTestResolver()
	r.s2.(*fakeGraph).records["PMID:31452104"] = &types.PaperMetadata{PMID: "31452104"}

	md, err := r.Resolve(context.Background(), identifier.Resolve("PMID:31452104"))
	require.NoError(t, err)
	require.NotNil(t, md)
	assert.Equal(t, "31452104", md.PMID)
}

func TestResolvePDFURLHasNoMetadata(t *testing.T) {
	r := newTestResolver()

	md, err := r.Resolve(context.Background(), identifier.Resolve("https://example.org/paper.pdf"))
	require.NoError(t, err)
	assert.Nil(t, md)
}

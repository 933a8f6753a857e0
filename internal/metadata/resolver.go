// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata resolves a paper identifier to a merged metadata
// record by querying the registrar and aggregator APIs, and renders
// records as BibTeX.
package metadata

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/internal/sources"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// The provider interfaces cover exactly the calls the resolver makes,
// so tests can substitute fakes without a network.
type registrarProvider interface {
	Metadata(ctx context.Context, doi string) (*types.PaperMetadata, error)
}

type graphProvider interface {
	Lookup(ctx context.Context, paperID string) (*types.PaperMetadata, error)
	SearchTitle(ctx context.Context, title string) (string, error)
}

type worksProvider interface {
	Metadata(ctx context.Context, id string) (*types.PaperMetadata, error)
}

type preprintProvider interface {
	Metadata(ctx context.Context, arxivID string) (*types.PaperMetadata, error)
}

// Resolver queries metadata providers in reliability order for a given
// identifier kind. All lookups go through the shared rate limiter so
// metadata traffic and PDF-location traffic count against the same
// per-source budget.
type Resolver struct {
	crossref registrarProvider
	s2       graphProvider
	openalex worksProvider
	arxiv    preprintProvider

	email   string
	limiter *sources.RateLimiter
	log     zerolog.Logger
}

// NewResolver builds a resolver from the run configuration.
func NewResolver(cfg types.Config, hc *http.Client, limiter *sources.RateLimiter, log zerolog.Logger) *Resolver {
	ua := cfg.HTTP.UserAgent
	return &Resolver{
		crossref: sources.NewCrossRef(hc, cfg.User.Email, ua),
		s2:       sources.NewSemanticScholar(hc, cfg.APIKeys.SemanticScholar, ua),
		openalex: sources.NewOpenAlex(hc, cfg.User.Email, ua),
		arxiv:    sources.NewArxiv(hc, ua),
		email:    cfg.User.Email,
		limiter:  limiter,
		log:      log,
	}
}

func (r *Resolver) wait(ctx context.Context, source string) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx, source)
}

// Resolve fetches metadata for an identifier. It returns nil with a nil
// error when no provider knows the paper; provider failures only
// propagate when every fallback also failed.
func (r *Resolver) Resolve(ctx context.Context, id identifier.PaperIdentifier) (*types.PaperMetadata, error) {
	switch id.Kind {
	case identifier.KindArxiv:
		return r.resolveArxiv(ctx, id.Value)
	case identifier.KindDOI:
		return r.resolveDOI(ctx, id.Value)
	case identifier.KindSemanticScholar:
		if err := r.wait(ctx, "semantic_scholar"); err != nil {
			return nil, err
		}
		return r.s2.Lookup(ctx, id.Value)
	case identifier.KindOpenAlex:
		if err := r.wait(ctx, "openalex"); err != nil {
			return nil, err
		}
		return r.openalex.Metadata(ctx, id.Value)
	case identifier.KindPubMed:
		if err := r.wait(ctx, "semantic_scholar"); err != nil {
			return nil, err
		}
		return r.s2.Lookup(ctx, "PMID:"+id.Value)
	case identifier.KindPMC:
		if err := r.wait(ctx, "semantic_scholar"); err != nil {
			return nil, err
		}
		return r.s2.Lookup(ctx, "PMCID:"+id.Value)
	case identifier.KindTitle:
		return r.resolveTitle(ctx, id.Value)
	default:
		// A bare PDF URL carries no metadata to resolve.
		return nil, nil
	}
}

// resolveArxiv fetches the arXiv record and enriches it with the
// citation graph fields only Semantic Scholar has.
func (r *Resolver) resolveArxiv(ctx context.Context, arxivID string) (*types.PaperMetadata, error) {
	if err := r.wait(ctx, "arxiv"); err != nil {
		return nil, err
	}
	md, err := r.arxiv.Metadata(ctx, arxivID)
	if err != nil || md == nil {
		return md, err
	}

	if err := r.wait(ctx, "semantic_scholar"); err != nil {
		return nil, err
	}
	bare := identifier.NormalizeArxivID(arxivID)
	s2md, err := r.s2.Lookup(ctx, "ARXIV:"+bare)
	if err != nil {
		// The arXiv record alone is still a valid answer.
		r.log.Debug().Err(err).Str("arxiv_id", bare).Msg("citation enrichment failed")
		return md, nil
	}
	if s2md != nil {
		md.CitationCount = s2md.CitationCount
		md.ReferenceCount = s2md.ReferenceCount
		md.S2ID = s2md.S2ID
	}
	return md, nil
}

// resolveDOI tries CrossRef, then Semantic Scholar, then OpenAlex. A DOI
// in the arXiv registrar namespace goes through the arXiv path instead.
func (r *Resolver) resolveDOI(ctx context.Context, doi string) (*types.PaperMetadata, error) {
	if arxivID := identifier.ArxivIDFromDOI(doi); arxivID != "" {
		return r.resolveArxiv(ctx, arxivID)
	}

	var lastErr error
	if r.email != "" {
		if err := r.wait(ctx, "crossref"); err != nil {
			return nil, err
		}
		md, err := r.crossref.Metadata(ctx, doi)
		if err != nil {
			r.log.Debug().Err(err).Str("doi", doi).Msg("crossref lookup failed")
			lastErr = err
		} else if md != nil {
			return md, nil
		}
	}

	if err := r.wait(ctx, "semantic_scholar"); err != nil {
		return nil, err
	}
	md, err := r.s2.Lookup(ctx, "DOI:"+doi)
	if err != nil {
		r.log.Debug().Err(err).Str("doi", doi).Msg("semantic scholar lookup failed")
		lastErr = err
	} else if md != nil {
		return md, nil
	}

	// OpenAlex needs no credentials; a contact email only joins the
	// polite pool.
	if err := r.wait(ctx, "openalex"); err != nil {
		return nil, err
	}
	md, err = r.openalex.Metadata(ctx, "https://doi.org/"+doi)
	if err != nil {
		lastErr = err
	} else if md != nil {
		return md, nil
	}
	return nil, lastErr
}

// resolveTitle searches Semantic Scholar and fetches the full record of
// the best title match.
func (r *Resolver) resolveTitle(ctx context.Context, title string) (*types.PaperMetadata, error) {
	if err := r.wait(ctx, "semantic_scholar"); err != nil {
		return nil, err
	}
	paperID, err := r.s2.SearchTitle(ctx, title)
	if err != nil || paperID == "" {
		return nil, err
	}

	if err := r.wait(ctx, "semantic_scholar"); err != nil {
		return nil, err
	}
	return r.s2.Lookup(ctx, paperID)
}

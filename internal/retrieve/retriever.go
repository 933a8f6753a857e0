// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve implements the retrieval orchestrator: it resolves
// metadata for a paper, walks the enabled sources in priority order, and
// downloads the first PDF that survives the content gate, keeping an
// attempt log for the sources that did not serve.
package retrieve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/internal/metadata"
	"github.com/pdiddy/paperfetch/internal/sources"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// Attempt outcomes recorded in the audit log.
const (
	outcomeDownloaded = "downloaded"
	outcomeNotFound   = "not_found"
	outcomeError      = "error"
)

// Query identifies one paper to retrieve. At least one of DOI and Title
// must be set; ArxivID and PDFURL are optional refinements carried over
// from identifier resolution.
type Query struct {
	DOI     string
	Title   string
	ArxivID string
	PDFURL  string
}

// QueryFromIdentifier maps a resolved identifier to a retrieval query.
func QueryFromIdentifier(id identifier.PaperIdentifier) Query {
	q := Query{DOI: id.DOI}
	switch id.Kind {
	case identifier.KindArxiv:
		q.ArxivID = id.ArxivID
	case identifier.KindTitle:
		q.Title = id.Value
	case identifier.KindPDFURL:
		q.PDFURL = id.URL
	}
	return q
}

// metadataResolver is what the orchestrator needs from the metadata
// layer; tests substitute a fake.
type metadataResolver interface {
	Resolve(ctx context.Context, id identifier.PaperIdentifier) (*types.PaperMetadata, error)
}

// Retriever coordinates one or more retrievals against a fixed
// configuration snapshot.
type Retriever struct {
	cfg        types.Config
	registry   *sources.Registry
	limiter    *sources.RateLimiter
	resolver   metadataResolver
	downloader *Downloader
	history    *History

	out io.Writer
	log zerolog.Logger
}

// New builds a retriever: source registry, shared rate limiter, metadata
// resolver, downloader, and the retrieval history store under the output
// directory. Progress text goes to out.
func New(cfg types.Config, hc *http.Client, out io.Writer, log zerolog.Logger) (*Retriever, error) {
	registry, err := sources.BuildRegistry(cfg, hc)
	if err != nil {
		return nil, fmt.Errorf("building source registry: %w", err)
	}

	history, err := OpenHistory(cfg.Download.OutputDir)
	if err != nil {
		return nil, err
	}

	limiter := sources.NewRateLimiter(cfg.RateLimits)
	return &Retriever{
		cfg:        cfg,
		registry:   registry,
		limiter:    limiter,
		resolver:   metadata.NewResolver(cfg, hc, limiter, log),
		downloader: NewDownloader(hc, cfg.HTTP.UserAgent),
		history:    history,
		out:        out,
		log:        log,
	}, nil
}

// Close releases the history store.
func (r *Retriever) Close() error {
	return r.history.Close()
}

// History exposes the retrieval history store.
func (r *Retriever) History() *History {
	return r.history
}

// Registry exposes the constructed source registry.
func (r *Retriever) Registry() *sources.Registry {
	return r.registry
}

// Retrieve fetches one paper. It never returns a Go error for a paper
// that simply cannot be found; the result status carries the outcome so
// batch runs keep going.
func (r *Retriever) Retrieve(ctx context.Context, q Query) *types.RetrievalResult {
	if q.DOI == "" && q.Title == "" && q.ArxivID == "" && q.PDFURL == "" {
		return &types.RetrievalResult{
			Status: types.StatusError,
			Error:  "must provide a DOI or title",
		}
	}

	outDir := r.cfg.Download.OutputDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &types.RetrievalResult{
			DOI: q.DOI, Title: q.Title,
			Status: types.StatusError,
			Error:  fmt.Sprintf("creating output directory: %v", err),
		}
	}

	md := r.resolveMetadata(ctx, q)
	doi, title := q.DOI, q.Title
	if md != nil {
		if md.DOI != "" {
			doi = md.DOI
		}
		if md.Title != "" {
			title = md.Title
		}
		if md.ArxivID != "" && q.ArxivID == "" {
			q.ArxivID = md.ArxivID
		}
	}
	r.log.Info().Str("doi", doi).Str("title", title).Msg("retrieving")

	result := &types.RetrievalResult{
		DOI:      doi,
		Title:    title,
		Metadata: md,
	}

	outputPath := OutputPath(md, doi, outDir, r.cfg.Download.MaxTitleLength)

	if r.cfg.Download.SkipExisting {
		if _, err := os.Stat(outputPath); err == nil {
			fmt.Fprintf(r.out, "Already downloaded: %s\n", outputPath)
			result.Status = types.StatusSkipped
			result.Source = "cached"
			result.PDFPath = outputPath
			r.record(result)
			return result
		}
	}

	// A direct PDF URL skips the source walk entirely.
	if q.PDFURL != "" {
		return r.retrieveDirect(ctx, q.PDFURL, outputPath, result)
	}

	// Metadata resolution sometimes surfaces an open-access link of its
	// own; try it before walking the sources. A failure here is just the
	// first attempt in the log.
	if md != nil && md.PDFURL != "" {
		if err := r.downloader.Download(ctx, md.PDFURL, outputPath, nil); err != nil {
			r.log.Warn().Err(err).Str("url", md.PDFURL).Msg("metadata PDF link failed")
			result.Attempts = append(result.Attempts, types.Attempt{
				Source: "metadata", Outcome: outcomeError, Detail: err.Error(),
			})
		} else {
			result.Attempts = append(result.Attempts, types.Attempt{
				Source: "metadata", Outcome: outcomeDownloaded, Detail: md.PDFURL,
			})
			result.Status = types.StatusSuccess
			result.Source = md.Source
			result.PDFPath = outputPath
			fmt.Fprintf(r.out, "Downloaded via %s metadata: %s\n", md.Source, outputPath)

			if err := WriteSidecar(outputPath, result); err != nil {
				r.log.Warn().Err(err).Msg("sidecar write failed")
			}
			r.record(result)
			return result
		}
	}

	req := sources.Request{
		DOI:     doi,
		ArxivID: q.ArxivID,
		Title:   title,
		Authors: authorNames(md),
	}

	names := r.enabledSources()
	for i, name := range names {
		if ctx.Err() != nil {
			result.Status = types.StatusError
			result.Error = ctx.Err().Error()
			return result
		}

		fmt.Fprintf(r.out, "[%d/%d] Trying %s...\n", i+1, len(names), name)
		client, _ := r.registry.Get(name)

		if err := r.limiter.Wait(ctx, name); err != nil {
			result.Status = types.StatusError
			result.Error = err.Error()
			return result
		}

		pdfURL, err := client.PDFURL(ctx, req)
		if err != nil {
			r.log.Warn().Err(err).Str("source", name).Msg("source failed")
			result.Attempts = append(result.Attempts, types.Attempt{
				Source: name, Outcome: outcomeError, Detail: err.Error(),
			})
			continue
		}
		if pdfURL == "" {
			result.Attempts = append(result.Attempts, types.Attempt{
				Source: name, Outcome: outcomeNotFound,
			})
			continue
		}

		r.log.Debug().Str("source", name).Str("url", pdfURL).Msg("candidate PDF")
		if err := r.download(ctx, client, pdfURL, outputPath); err != nil {
			r.log.Warn().Err(err).Str("source", name).Msg("download failed")
			result.Attempts = append(result.Attempts, types.Attempt{
				Source: name, Outcome: outcomeError, Detail: err.Error(),
			})
			continue
		}

		result.Attempts = append(result.Attempts, types.Attempt{
			Source: name, Outcome: outcomeDownloaded, Detail: pdfURL,
		})
		result.Status = types.StatusSuccess
		result.Source = name
		result.PDFPath = outputPath
		fmt.Fprintf(r.out, "Downloaded via %s: %s\n", name, outputPath)

		if err := WriteSidecar(outputPath, result); err != nil {
			r.log.Warn().Err(err).Msg("sidecar write failed")
		}
		r.record(result)
		return result
	}

	fmt.Fprintf(r.out, "Not found in any source\n")
	result.Status = types.StatusNotFound
	result.Error = "PDF not found in any source"
	r.record(result)
	return result
}

// retrieveDirect downloads a user-supplied PDF URL.
func (r *Retriever) retrieveDirect(ctx context.Context, pdfURL, outputPath string, result *types.RetrievalResult) *types.RetrievalResult {
	if err := r.downloader.Download(ctx, pdfURL, outputPath, nil); err != nil {
		result.Status = types.StatusError
		result.Error = err.Error()
		result.Attempts = []types.Attempt{{Source: "direct", Outcome: outcomeError, Detail: err.Error()}}
		r.record(result)
		return result
	}
	result.Status = types.StatusSuccess
	result.Source = "direct"
	result.PDFPath = outputPath
	result.Attempts = []types.Attempt{{Source: "direct", Outcome: outcomeDownloaded, Detail: pdfURL}}
	fmt.Fprintf(r.out, "Downloaded: %s\n", outputPath)

	if err := WriteSidecar(outputPath, result); err != nil {
		r.log.Warn().Err(err).Msg("sidecar write failed")
	}
	r.record(result)
	return result
}

// resolveMetadata picks the strongest identifier the query carries and
// resolves it. Failures degrade to a nil record; retrieval can still
// proceed on the raw identifiers.
func (r *Retriever) resolveMetadata(ctx context.Context, q Query) *types.PaperMetadata {
	var id identifier.PaperIdentifier
	switch {
	case q.ArxivID != "":
		id = identifier.PaperIdentifier{Kind: identifier.KindArxiv, Value: q.ArxivID, ArxivID: q.ArxivID}
	case q.DOI != "":
		id = identifier.PaperIdentifier{Kind: identifier.KindDOI, Value: q.DOI, DOI: q.DOI}
	case q.Title != "":
		id = identifier.PaperIdentifier{Kind: identifier.KindTitle, Value: q.Title}
	default:
		return nil
	}

	md, err := r.resolver.Resolve(ctx, id)
	if err != nil {
		r.log.Warn().Err(err).Msg("metadata resolution failed")
		return nil
	}
	return md
}

// download fetches a candidate URL, attaching any extra headers the
// source needs (institutional session cookies).
func (r *Retriever) download(ctx context.Context, client sources.Client, pdfURL, outputPath string) error {
	var headers map[string]string
	if hp, ok := client.(sources.HeaderProvider); ok {
		headers = hp.DownloadHeaders()
	}
	return r.downloader.Download(ctx, pdfURL, outputPath, headers)
}

// enabledSources returns the priority-ordered source names that have a
// constructed client.
func (r *Retriever) enabledSources() []string {
	var names []string
	for _, name := range r.cfg.SortedSources() {
		if _, ok := r.registry.Get(name); ok {
			names = append(names, name)
		}
	}
	return names
}

func (r *Retriever) record(result *types.RetrievalResult) {
	if r.history == nil {
		return
	}
	if err := r.history.Record(result); err != nil {
		r.log.Warn().Err(err).Msg("history record failed")
	}
}

func authorNames(md *types.PaperMetadata) []string {
	if md == nil {
		return nil
	}
	names := make([]string, 0, len(md.Authors))
	for _, a := range md.Authors {
		names = append(names, a.LastName())
	}
	return names
}

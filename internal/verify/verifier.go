// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfetch/internal/metadata"
	"github.com/pdiddy/paperfetch/internal/sources"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// Verification statuses. Every status except StatusFailed counts as
// verified for reporting.
const (
	StatusVerified = "verified" // DOI confirmed by the registrar
	StatusArxiv    = "arxiv"    // eprint present, registrar DOI derived
	StatusSearched = "searched" // matched by registrar title search
	StatusWebsite  = "website"  // web reference, access date stamped
	StatusManual   = "manual"   // skipped on request
	StatusFailed   = "failed"   // nothing confirmed the entry
)

// VerificationResult is the outcome for one bibliography entry. Bibtex
// holds the entry text to emit, possibly rewritten.
type VerificationResult struct {
	Key     string
	Status  string
	Message string
	Bibtex  string
}

// VerificationStats counts outcomes across a run.
type VerificationStats struct {
	Verified int
	Arxiv    int
	Searched int
	Website  int
	Manual   int
	Failed   int
}

func (s *VerificationStats) add(status string) {
	switch status {
	case StatusVerified:
		s.Verified++
	case StatusArxiv:
		s.Arxiv++
	case StatusSearched:
		s.Searched++
	case StatusWebsite:
		s.Website++
	case StatusManual:
		s.Manual++
	default:
		s.Failed++
	}
}

// TotalVerified counts every entry that needs no further attention.
func (s VerificationStats) TotalVerified() int {
	return s.Verified + s.Arxiv + s.Searched + s.Website + s.Manual
}

func (s VerificationStats) Total() int {
	return s.TotalVerified() + s.Failed
}

// registrar is the slice of the CrossRef client the verifier uses;
// tests substitute a fake.
type registrar interface {
	Metadata(ctx context.Context, doi string) (*types.PaperMetadata, error)
	SearchTitle(ctx context.Context, title string) (*types.PaperMetadata, error)
}

// Verifier classifies bibliography entries against the registrar.
type Verifier struct {
	crossref registrar
	limiter  *sources.RateLimiter
	log      zerolog.Logger
}

// NewVerifier builds a verifier over the run configuration. CrossRef
// lookups share the retrieval rate budget for the source name.
func NewVerifier(cfg types.Config, hc *http.Client, log zerolog.Logger) *Verifier {
	return &Verifier{
		crossref: sources.NewCrossRef(hc, cfg.User.Email, cfg.HTTP.UserAgent),
		limiter:  sources.NewRateLimiter(cfg.RateLimits),
		log:      log,
	}
}

// LoadSkipKeys merges explicitly listed keys with the contents of a
// manual-review file, one key per line, '#' comments allowed.
func LoadSkipKeys(keys []string, manualFile string) (map[string]bool, error) {
	skip := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			skip[k] = true
		}
	}
	if manualFile == "" {
		return skip, nil
	}
	f, err := os.Open(manualFile)
	if err != nil {
		return nil, fmt.Errorf("opening skip-keys file: %w", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		skip[line] = true
	}
	return skip, scanner.Err()
}

// VerifyEntry classifies a single entry. Classification short-circuits
// in a fixed order: manual skip, website, arXiv, DOI lookup, title
// search, failed. Only the last two steps touch the network.
func (v *Verifier) VerifyEntry(ctx context.Context, entry *BibEntry, skipKeys map[string]bool) VerificationResult {
	result := VerificationResult{Key: entry.Key, Bibtex: entry.Raw}

	if skipKeys[entry.Key] {
		result.Status = StatusManual
		result.Message = "skipped verification"
		return result
	}

	if IsWebsite(entry) {
		result.Status = StatusWebsite
		result.Message = "website reference"
		result.Bibtex = AddAccessDate(entry.Raw)
		return result
	}

	if entry.IsArxiv {
		result.Status = StatusArxiv
		if doi := ArxivDOIFor(entry); doi != "" {
			result.Message = "arXiv eprint, DOI " + doi
		} else {
			result.Message = "arXiv entry"
		}
		return result
	}

	if entry.DOI != "" {
		md, err := v.lookupDOI(ctx, entry.DOI)
		if err != nil {
			v.log.Warn().Err(err).Str("key", entry.Key).Msg("DOI lookup failed")
		}
		if md != nil && (entry.Title == "" || md.Title == "" || TitlesMatch(entry.Title, md.Title)) {
			result.Status = StatusVerified
			result.Message = "DOI verified: " + entry.DOI
			return result
		}
	}

	if entry.Title != "" {
		md, err := v.searchTitle(ctx, entry.Title)
		if err != nil {
			v.log.Warn().Err(err).Str("key", entry.Key).Msg("title search failed")
		}
		if md != nil && TitlesMatch(entry.Title, md.Title) {
			result.Status = StatusSearched
			result.Message = "matched by title search: " + md.DOI
			if key := metadata.BibtexKey(md); key != "" {
				result.Bibtex = ReplaceKey(entry.Raw, key)
				result.Key = key
			}
			return result
		}
	}

	result.Status = StatusFailed
	result.Message = "no source confirmed this entry"
	return result
}

func (v *Verifier) lookupDOI(ctx context.Context, doi string) (*types.PaperMetadata, error) {
	if err := v.limiter.Wait(ctx, "crossref"); err != nil {
		return nil, err
	}
	return v.crossref.Metadata(ctx, doi)
}

func (v *Verifier) searchTitle(ctx context.Context, title string) (*types.PaperMetadata, error) {
	if err := v.limiter.Wait(ctx, "crossref"); err != nil {
		return nil, err
	}
	return v.crossref.SearchTitle(ctx, title)
}

// VerifyFile verifies every entry in one .bib file. With dryRun set the
// stats and results are identical but nothing is written.
func (v *Verifier) VerifyFile(ctx context.Context, inputPath, outputDir string, skipKeys map[string]bool, dryRun bool) (VerificationStats, []VerificationResult, error) {
	entries := ParseFile(inputPath)
	stats, results := v.verifyEntries(ctx, entries, skipKeys)
	if !dryRun {
		if err := WriteArtifacts(outputDir, stats, results); err != nil {
			return stats, results, err
		}
	}
	return stats, results, nil
}

// VerifyDirectory verifies every .bib file under dir, aggregating into
// a single report.
func (v *Verifier) VerifyDirectory(ctx context.Context, dir, outputDir string, skipKeys map[string]bool, dryRun bool) (VerificationStats, []VerificationResult, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.bib"))
	if err != nil {
		return VerificationStats{}, nil, err
	}
	sort.Strings(paths)

	var entries []BibEntry
	for _, p := range paths {
		entries = append(entries, ParseFile(p)...)
	}
	stats, results := v.verifyEntries(ctx, entries, skipKeys)
	if !dryRun {
		if err := WriteArtifacts(outputDir, stats, results); err != nil {
			return stats, results, err
		}
	}
	return stats, results, nil
}

func (v *Verifier) verifyEntries(ctx context.Context, entries []BibEntry, skipKeys map[string]bool) (VerificationStats, []VerificationResult) {
	var stats VerificationStats
	results := make([]VerificationResult, 0, len(entries))
	for i := range entries {
		res := v.VerifyEntry(ctx, &entries[i], skipKeys)
		v.log.Info().Str("key", res.Key).Str("status", res.Status).Msg("entry verified")
		stats.add(res.Status)
		results = append(results, res)
	}
	return stats, results
}

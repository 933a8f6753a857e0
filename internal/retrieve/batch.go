// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// batchKey is the resume identifier for one query: the DOI when known,
// the title otherwise.
func batchKey(q Query) string {
	if q.DOI != "" {
		return q.DOI
	}
	if q.Title != "" {
		return q.Title
	}
	if q.ArxivID != "" {
		return q.ArxivID
	}
	return q.PDFURL
}

// RetrieveBatch fetches many papers. Results come back in input order
// regardless of concurrency. Papers recorded in the progress file are
// skipped; every success or skip updates it, so an interrupted run
// resumes cleanly. With a concurrency of one, the configured global
// delay is inserted between papers on top of per-source rate limits.
func (r *Retriever) RetrieveBatch(ctx context.Context, queries []Query) ([]*types.RetrievalResult, types.BatchSummary) {
	progressPath := filepath.Join(r.cfg.Download.OutputDir, r.cfg.Batch.ProgressFile)
	progress := LoadProgress(progressPath)
	if n := progress.Count(); n > 0 {
		fmt.Fprintf(r.out, "Resuming: %d papers already completed\n", n)
	}

	maxConcurrent := r.cfg.Batch.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	results := make([]*types.RetrievalResult, len(queries))

	retrieveOne := func(ctx context.Context, idx int) {
		q := queries[idx]
		key := batchKey(q)

		if progress.Done(key) {
			fmt.Fprintf(r.out, "[%d/%d] Already completed: %s\n", idx+1, len(queries), key)
			results[idx] = &types.RetrievalResult{
				DOI:    q.DOI,
				Title:  q.Title,
				Status: types.StatusSkipped,
			}
			return
		}

		fmt.Fprintf(r.out, "\n[%d/%d] Processing: %s\n", idx+1, len(queries), key)
		result := r.Retrieve(ctx, q)
		results[idx] = result

		if result.Status == types.StatusSuccess || result.Status == types.StatusSkipped {
			if err := progress.MarkDone(key); err != nil {
				r.log.Warn().Err(err).Msg("progress save failed")
			}
		}
	}

	if maxConcurrent > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrent)
		for i := range queries {
			idx := i
			g.Go(func() error {
				retrieveOne(gctx, idx)
				return nil
			})
		}
		g.Wait()
	} else {
		for i := range queries {
			retrieveOne(ctx, i)
			if i < len(queries)-1 && r.cfg.RateLimits.GlobalDelay > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(r.cfg.RateLimits.GlobalDelay):
				}
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	var summary types.BatchSummary
	for i, res := range results {
		if res == nil {
			// Cancelled before this paper started.
			results[i] = &types.RetrievalResult{
				DOI:    queries[i].DOI,
				Title:  queries[i].Title,
				Status: types.StatusError,
				Error:  "batch cancelled",
			}
			res = results[i]
		}
		switch res.Status {
		case types.StatusSuccess:
			summary.Downloaded++
		case types.StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	fmt.Fprintf(r.out, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		summary.Downloaded, summary.Skipped, summary.Failed, summary.Total())
	return results, summary
}

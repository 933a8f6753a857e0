// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteArtifacts writes verified.bib (every non-failed entry),
// failed.bib, and report.md into outputDir.
func WriteArtifacts(outputDir string, stats VerificationStats, results []VerificationResult) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var verified, failed []string
	for _, res := range results {
		if res.Status == StatusFailed {
			failed = append(failed, res.Bibtex)
		} else {
			verified = append(verified, res.Bibtex)
		}
	}

	if err := writeBib(filepath.Join(outputDir, "verified.bib"), verified); err != nil {
		return err
	}
	if err := writeBib(filepath.Join(outputDir, "failed.bib"), failed); err != nil {
		return err
	}
	report := buildReport(stats, results, time.Now())
	if err := os.WriteFile(filepath.Join(outputDir, "report.md"), []byte(report), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func writeBib(path string, entries []string) error {
	content := ""
	if len(entries) > 0 {
		content = strings.Join(entries, "\n\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func buildReport(stats VerificationStats, results []VerificationResult, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Citation Verification Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| Status | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| verified | %d |\n", stats.Verified)
	fmt.Fprintf(&b, "| arxiv | %d |\n", stats.Arxiv)
	fmt.Fprintf(&b, "| searched | %d |\n", stats.Searched)
	fmt.Fprintf(&b, "| website | %d |\n", stats.Website)
	fmt.Fprintf(&b, "| manual | %d |\n", stats.Manual)
	fmt.Fprintf(&b, "| failed | %d |\n\n", stats.Failed)
	fmt.Fprintf(&b, "Total verified: %d of %d\n", stats.TotalVerified(), stats.Total())

	if stats.Failed > 0 {
		fmt.Fprintf(&b, "\n## Failed entries\n\n")
		for _, res := range results {
			if res.Status == StatusFailed {
				fmt.Fprintf(&b, "- `%s`: %s\n", res.Key, res.Message)
			}
		}
	}
	return b.String()
}

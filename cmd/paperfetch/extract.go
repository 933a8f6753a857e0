// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/extract"
	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/internal/metadata"
	"github.com/pdiddy/paperfetch/internal/sources"
)

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Extract text or the embedded DOI from a PDF",
	Long: `Extract prints the plain text of a PDF. With --doi it scans the first
pages for an embedded DOI instead; with --bibtex it resolves that DOI to
metadata and prints a BibTeX entry for the file.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().Bool("doi", false, "print the embedded DOI instead of the text")
	extractCmd.Flags().Bool("bibtex", false, "resolve the embedded DOI and print a BibTeX entry")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	var x extract.PDF

	wantDOI, _ := cmd.Flags().GetBool("doi")
	wantBibtex, _ := cmd.Flags().GetBool("bibtex")

	if !wantDOI && !wantBibtex {
		text, err := x.Text(args[0])
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	}

	doi, err := x.DOI(args[0])
	if err != nil {
		return err
	}
	if doi == "" {
		return fmt.Errorf("no DOI found in %s", args[0])
	}
	if wantDOI {
		fmt.Println(doi)
	}
	if !wantBibtex {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	resolver := metadata.NewResolver(cfg, newHTTPClient(cfg), sources.NewRateLimiter(cfg.RateLimits), log)
	md, err := resolver.Resolve(cmd.Context(), identifier.Resolve(doi))
	if err != nil {
		return fmt.Errorf("resolving %s: %w", doi, err)
	}
	if md == nil {
		return fmt.Errorf("no metadata found for %s", doi)
	}
	fmt.Fprintln(os.Stdout, metadata.FormatBibtex(md, metadata.BibtexKey(md)))
	return nil
}

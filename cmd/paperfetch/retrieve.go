// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/internal/metadata"
	"github.com/pdiddy/paperfetch/internal/retrieve"
	"github.com/pdiddy/paperfetch/internal/sources"
	"github.com/pdiddy/paperfetch/pkg/types"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <identifier>",
	Short: "Download one paper by DOI, arXiv ID, title, or URL",
	Long: `Retrieve resolves a paper identifier to metadata, then tries each enabled
source in priority order until one yields a verified PDF. The identifier
kind is detected automatically; --doi and --title force the interpretation.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().Bool("doi", false, "treat the identifier as a DOI")
	retrieveCmd.Flags().Bool("title", false, "treat the identifier as a title")
	retrieveCmd.Flags().StringP("output", "o", "", "output directory (default from config)")
	retrieveCmd.Flags().Bool("skip-existing", true, "skip papers already downloaded")
	retrieveCmd.Flags().Bool("bibtex", false, "print the paper's BibTeX entry after retrieval")

	rootCmd.AddCommand(retrieveCmd)
}

func buildQuery(cmd *cobra.Command, cfg types.Config, raw string) (retrieve.Query, error) {
	if forceDOI, _ := cmd.Flags().GetBool("doi"); forceDOI {
		return retrieve.Query{DOI: identifier.NormalizeDOI(raw)}, nil
	}
	if forceTitle, _ := cmd.Flags().GetBool("title"); forceTitle {
		return retrieve.Query{Title: raw}, nil
	}
	id := identifier.Resolve(raw)
	q := retrieve.QueryFromIdentifier(id)
	if q != (retrieve.Query{}) {
		return q, nil
	}
	if id.Kind == identifier.KindUnknown {
		return q, fmt.Errorf("could not classify %q as a DOI, arXiv ID, title, or URL", raw)
	}

	// Indirect identifiers (PubMed, PMC, S2, OpenAlex) carry no DOI of
	// their own; resolve metadata first to obtain one.
	hc := newHTTPClient(cfg)
	resolver := metadata.NewResolver(cfg, hc, sources.NewRateLimiter(cfg.RateLimits), log)
	md, err := resolver.Resolve(cmd.Context(), id)
	if err != nil {
		return q, fmt.Errorf("resolving %q: %w", raw, err)
	}
	if md == nil {
		return q, fmt.Errorf("no metadata found for %q", raw)
	}
	return retrieve.Query{DOI: md.DOI, Title: md.Title, ArxivID: md.ArxivID}, nil
}

// applyRetrieveFlags folds command-line overrides into the config. Only
// a flag the user actually passed overrides the config file; the
// skip-existing default must not clobber a configured skip_existing:
// false.
func applyRetrieveFlags(cmd *cobra.Command, cfg *types.Config) {
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.Download.OutputDir = out
	}
	if cmd.Flags().Changed("skip-existing") {
		cfg.Download.SkipExisting, _ = cmd.Flags().GetBool("skip-existing")
	}
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRetrieveFlags(cmd, &cfg)

	q, err := buildQuery(cmd, cfg, args[0])
	if err != nil {
		return err
	}

	r, err := retrieve.New(cfg, newHTTPClient(cfg), os.Stdout, log)
	if err != nil {
		return err
	}
	defer r.Close()

	result := r.Retrieve(cmd.Context(), q)

	if printBibtex, _ := cmd.Flags().GetBool("bibtex"); printBibtex && result.Metadata != nil {
		key := metadata.BibtexKey(result.Metadata)
		fmt.Fprintln(os.Stdout, metadata.FormatBibtex(result.Metadata, key))
	}

	switch result.Status {
	case types.StatusSuccess, types.StatusSkipped:
		return nil
	default:
		return fmt.Errorf("retrieval failed: %s", result.Error)
	}
}

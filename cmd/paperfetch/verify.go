// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Verify BibTeX entries against the registrar APIs",
	Long: `Verify checks each entry of a .bib file (or every .bib file under a
directory) against CrossRef. Entries are sorted into verified.bib and
failed.bib with a Markdown report; website references get an access-date
note, arXiv entries a derived DOI. --dry-run computes the same results
without writing anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringP("output", "o", "verification", "output directory for reports")
	verifyCmd.Flags().StringSlice("skip-keys", nil, "citation keys to mark for manual review")
	verifyCmd.Flags().String("manual", "", "file of citation keys to mark for manual review, one per line")
	verifyCmd.Flags().Bool("dry-run", false, "compute results without writing files")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	keys, _ := cmd.Flags().GetStringSlice("skip-keys")
	manualFile, _ := cmd.Flags().GetString("manual")
	skipKeys, err := verify.LoadSkipKeys(keys, manualFile)
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString("output")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	v := verify.NewVerifier(cfg, newHTTPClient(cfg), log)

	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	var stats verify.VerificationStats
	if info.IsDir() {
		stats, _, err = v.VerifyDirectory(cmd.Context(), args[0], outputDir, skipKeys, dryRun)
	} else {
		stats, _, err = v.VerifyFile(cmd.Context(), args[0], outputDir, skipKeys, dryRun)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Verified %d of %d entries (%d verified, %d arxiv, %d searched, %d website, %d manual, %d failed)\n",
		stats.TotalVerified(), stats.Total(),
		stats.Verified, stats.Arxiv, stats.Searched, stats.Website, stats.Manual, stats.Failed)
	if stats.Failed > 0 {
		return fmt.Errorf("%d entries could not be verified", stats.Failed)
	}
	return nil
}

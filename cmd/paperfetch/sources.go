// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/retrieve"
	"github.com/pdiddy/paperfetch/pkg/types"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Show the configured source priority table",
	Long: `Sources prints each retrieval source with its priority and whether it is
active under the current configuration. With --history it also summarizes
recent retrieval outcomes from the history database.`,
	RunE: runSources,
}

func init() {
	sourcesCmd.Flags().Bool("history", false, "show recent retrieval outcomes")
	sourcesCmd.Flags().Int("limit", 20, "number of history rows to show")

	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRIORITY\tSOURCE\tSTATUS")
	for _, name := range cfg.SortedSources() {
		status := "disabled"
		if cfg.SourceEnabled(name) {
			status = "enabled"
		} else if types.UnofficialSources[name] && cfg.Sources[name].Enabled {
			status = "disabled (disclaimer not accepted)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", cfg.Sources[name].Priority, name, status)
	}
	w.Flush()

	if showHistory, _ := cmd.Flags().GetBool("history"); !showHistory {
		return nil
	}

	history, err := retrieve.OpenHistory(cfg.Download.OutputDir)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer history.Close()

	counts, err := history.SourceCounts()
	if err != nil {
		return err
	}
	if len(counts) > 0 {
		fmt.Println("\nDownloads per source:")
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %d\n", name, counts[name])
		}
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := history.Recent(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("\nNo retrievals recorded yet.")
		return nil
	}

	fmt.Println("\nRecent retrievals:")
	hw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(hw, "WHEN\tSTATUS\tSOURCE\tPAPER")
	for _, e := range entries {
		paper := e.DOI
		if paper == "" {
			paper = e.Title
		}
		fmt.Fprintf(hw, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Status, e.Source, paper)
	}
	return hw.Flush()
}

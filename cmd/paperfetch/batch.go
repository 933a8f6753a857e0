// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/internal/retrieve"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Download many papers from an identifier list",
	Long: `Batch reads identifiers from a file, one per line (blank lines and '#'
comments ignored), and retrieves each in turn. Completed papers are
recorded in a progress file so an interrupted run resumes where it left
off.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("output", "o", "", "output directory (default from config)")
	batchCmd.Flags().IntP("concurrency", "n", 0, "concurrent retrievals (default from config)")

	rootCmd.AddCommand(batchCmd)
}

// readQueries parses the identifier list file.
func readQueries(path string) ([]retrieve.Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening identifier list: %w", err)
	}
	defer f.Close()

	var queries []retrieve.Query
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		q := retrieve.QueryFromIdentifier(identifier.Resolve(line))
		if q == (retrieve.Query{}) {
			return nil, fmt.Errorf("line %d: cannot use %q as a retrieval identifier", lineNo, line)
		}
		queries = append(queries, q)
	}
	return queries, scanner.Err()
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		cfg.Download.OutputDir = out
	}
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		cfg.Batch.MaxConcurrent = n
	}

	queries, err := readQueries(args[0])
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("no identifiers found in %s", args[0])
	}

	r, err := retrieve.New(cfg, newHTTPClient(cfg), os.Stdout, log)
	if err != nil {
		return err
	}
	defer r.Close()

	_, summary := r.RetrieveBatch(cmd.Context(), queries)
	if summary.HasFailures() {
		return fmt.Errorf("%d paper(s) failed retrieval", summary.Failed)
	}
	return nil
}

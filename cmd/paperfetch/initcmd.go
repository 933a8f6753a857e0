// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperfetch/pkg/types"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Init writes paperfetch.yaml in the current directory with the default
source priorities and download settings, and creates the output directory.
An existing config file is never overwritten.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	const path = "paperfetch.yaml"

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := types.DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("rendering default config: %w", err)
	}
	header := "# paperfetch configuration.\n" +
		"# Set user.email to join the polite pools of CrossRef, Unpaywall, and OpenAlex.\n" +
		"# API keys belong in the environment or .env, not here.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Println("Wrote", path)

	if err := os.MkdirAll(cfg.Download.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", cfg.Download.OutputDir, err)
	}
	fmt.Println("Created", cfg.Download.OutputDir)
	return nil
}

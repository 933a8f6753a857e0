// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperfetch CLI. Each
// operation is a subcommand: retrieve, batch, verify, sources, extract,
// init, auth, version.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperfetch/internal/secrets"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var log zerolog.Logger

// rootCmd is the base command for the paperfetch CLI.
var rootCmd = &cobra.Command{
	Use:   "paperfetch",
	Short: "Retrieve scholarly-paper PDFs from open-access sources",
	Long: `paperfetch resolves paper identifiers (DOIs, arXiv IDs, titles, URLs) to
metadata and open-access PDFs by falling back across sources in priority
order: Unpaywall, arXiv, PubMed Central, bioRxiv/medRxiv, Semantic Scholar,
OpenAlex, and optional institutional or unofficial sources.

It also verifies existing BibTeX bibliographies against the same APIs and
runs resumable batch downloads from identifier lists.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env carries credentials the config file should not.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading .env: %w", err)
		}

		level := zerolog.WarnLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = zerolog.DebugLevel
		}
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).With().Timestamp().Logger()
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperfetch.yaml or ~/.config/paperfetch/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperfetch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperfetch"))
		}
	}

	viper.SetEnvPrefix("PAPERFETCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig merges the config file and environment over the built-in
// defaults. Credentials come from the environment, .env, or .secrets/,
// never from the config file.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}

	keys, err := secrets.Load(".secrets/")
	if err != nil {
		return cfg, err
	}
	if cfg.User.Email == "" {
		cfg.User.Email = firstNonEmpty(os.Getenv("PAPERFETCH_EMAIL"), keys["user-email"])
	}
	if cfg.APIKeys.SemanticScholar == "" {
		cfg.APIKeys.SemanticScholar = firstNonEmpty(os.Getenv("SEMANTIC_SCHOLAR_API_KEY"), keys["semantic-scholar-api-key"])
	}
	if cfg.APIKeys.NCBI == "" {
		cfg.APIKeys.NCBI = firstNonEmpty(os.Getenv("NCBI_API_KEY"), keys["ncbi-api-key"])
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func newHTTPClient(cfg types.Config) *http.Client {
	return &http.Client{Timeout: cfg.HTTP.Timeout}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

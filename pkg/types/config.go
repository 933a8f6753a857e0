// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperfetch/0.1").
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// UserConfig identifies the operator to polite-pool APIs.
type UserConfig struct {
	// Email is sent to CrossRef, Unpaywall, and OpenAlex. Sources that
	// require it are skipped when empty.
	Email string `mapstructure:"email" yaml:"email"`
}

// APIKeysConfig holds optional per-provider API keys.
type APIKeysConfig struct {
	SemanticScholar string `mapstructure:"semantic_scholar" yaml:"semantic_scholar,omitempty"`
	NCBI            string `mapstructure:"ncbi" yaml:"ncbi,omitempty"`
}

// SourceConfig controls one retrieval source.
type SourceConfig struct {
	Enabled  bool `mapstructure:"enabled" yaml:"enabled"`
	Priority int  `mapstructure:"priority" yaml:"priority"`
}

// InstitutionalConfig configures EZProxy/VPN access to paywalled content.
type InstitutionalConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	VPNEnabled  bool   `mapstructure:"vpn_enabled" yaml:"vpn_enabled"`
	VPNScript   string `mapstructure:"vpn_script" yaml:"vpn_script,omitempty"`
	ProxyURL    string `mapstructure:"proxy_url" yaml:"proxy_url,omitempty"`
	CookiesFile string `mapstructure:"cookies_file" yaml:"cookies_file,omitempty"`
}

// UnofficialConfig gates Sci-Hub/LibGen clients. These are never
// constructed unless DisclaimerAccepted is true.
type UnofficialConfig struct {
	DisclaimerAccepted bool `mapstructure:"disclaimer_accepted" yaml:"disclaimer_accepted"`
}

// DownloadConfig holds settings for PDF downloads.
type DownloadConfig struct {
	OutputDir      string `mapstructure:"output_dir" yaml:"output_dir"`
	SkipExisting   bool   `mapstructure:"skip_existing" yaml:"skip_existing"`
	MaxTitleLength int    `mapstructure:"max_title_length" yaml:"max_title_length"`
}

// RateLimitConfig holds per-source request pacing.
type RateLimitConfig struct {
	// GlobalDelay is the pause between papers in sequential batch mode,
	// on top of per-source limits.
	GlobalDelay time.Duration `mapstructure:"global_delay" yaml:"global_delay"`

	// PerSourceDelays overrides the built-in minimum interval between
	// requests to a named source.
	PerSourceDelays map[string]time.Duration `mapstructure:"per_source_delays" yaml:"per_source_delays,omitempty"`
}

// BatchConfig holds settings for batch retrieval runs.
type BatchConfig struct {
	MaxConcurrent int    `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	ProgressFile  string `mapstructure:"progress_file" yaml:"progress_file"`
}

// Config is the full configuration tree. It is loaded once at startup
// and treated as an immutable snapshot for the rest of the run, so a
// retrieval pass is reproducible.
type Config struct {
	HTTP          HTTPConfig              `mapstructure:"http" yaml:"http"`
	User          UserConfig              `mapstructure:"user" yaml:"user"`
	APIKeys       APIKeysConfig           `mapstructure:"api_keys" yaml:"api_keys"`
	Sources       map[string]SourceConfig `mapstructure:"sources" yaml:"sources"`
	Institutional InstitutionalConfig     `mapstructure:"institutional" yaml:"institutional"`
	Unofficial    UnofficialConfig        `mapstructure:"unofficial" yaml:"unofficial"`
	Download      DownloadConfig          `mapstructure:"download" yaml:"download"`
	RateLimits    RateLimitConfig         `mapstructure:"rate_limits" yaml:"rate_limits"`
	Batch         BatchConfig             `mapstructure:"batch" yaml:"batch"`
}

// UnofficialSources lists the source names gated behind the disclaimer.
var UnofficialSources = map[string]bool{
	"scihub": true,
	"libgen": true,
}

// DefaultConfig returns the built-in configuration: all official sources
// enabled in published-etiquette priority order, unofficial sources off.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:   60 * time.Second,
			UserAgent: "paperfetch/0.1",
		},
		Sources: map[string]SourceConfig{
			"unpaywall":        {Enabled: true, Priority: 1},
			"arxiv":            {Enabled: true, Priority: 2},
			"pmc":              {Enabled: true, Priority: 3},
			"biorxiv":          {Enabled: true, Priority: 4},
			"semantic_scholar": {Enabled: true, Priority: 5},
			"openalex":         {Enabled: true, Priority: 6},
			"institutional":    {Enabled: false, Priority: 7},
			"web_search":       {Enabled: false, Priority: 8},
			"scihub":           {Enabled: false, Priority: 9},
			"libgen":           {Enabled: false, Priority: 10},
		},
		Institutional: InstitutionalConfig{
			CookiesFile: ".institutional_cookies.json",
		},
		Download: DownloadConfig{
			OutputDir:      "./downloads",
			SkipExisting:   true,
			MaxTitleLength: 50,
		},
		RateLimits: RateLimitConfig{
			GlobalDelay: time.Second,
		},
		Batch: BatchConfig{
			MaxConcurrent: 1,
			ProgressFile:  ".retrieval_progress.json",
		},
	}
}

// SortedSources returns source names in ascending priority order.
// Names tie-break alphabetically so the order is deterministic.
func (c Config) SortedSources() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := c.Sources[names[i]].Priority, c.Sources[names[j]].Priority
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
	return names
}

// SourceEnabled reports whether the named source is enabled. Unofficial
// sources are additionally gated on the disclaimer flag.
func (c Config) SourceEnabled(name string) bool {
	sc, ok := c.Sources[name]
	if !ok || !sc.Enabled {
		return false
	}
	if UnofficialSources[name] && !c.Unofficial.DisclaimerAccepted {
		return false
	}
	return true
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/sources"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Set up institutional access",
	Long: `Auth prepares the institutional source. In VPN mode it runs the configured
VPN script. In EZProxy mode it imports session cookies exported by the
browser-login helper (--import) into the configured cookies file.`,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().String("import", "", "JSON file of session cookies to import")

	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Institutional.VPNEnabled {
		if cfg.Institutional.VPNScript == "" {
			return fmt.Errorf("vpn_enabled is set but institutional.vpn_script is not configured")
		}
		vpn := exec.CommandContext(cmd.Context(), cfg.Institutional.VPNScript)
		vpn.Stdout = os.Stdout
		vpn.Stderr = os.Stderr
		if err := vpn.Run(); err != nil {
			return fmt.Errorf("running VPN script: %w", err)
		}
		fmt.Println("VPN connected; institutional access uses direct URLs.")
		return nil
	}

	importFile, _ := cmd.Flags().GetString("import")
	if importFile == "" {
		return fmt.Errorf("EZProxy mode needs --import with a cookies JSON file (run the browser login helper first)")
	}

	data, err := os.ReadFile(importFile)
	if err != nil {
		return fmt.Errorf("reading cookies: %w", err)
	}
	var cookies map[string]string
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("parsing cookies JSON: %w", err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("no cookies found in %s", importFile)
	}

	if err := sources.SaveCookies(cfg.Institutional.CookiesFile, cookies); err != nil {
		return err
	}
	fmt.Printf("Saved %d cookies to %s\n", len(cookies), cfg.Institutional.CookiesFile)
	return nil
}

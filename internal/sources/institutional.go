// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// institutionalCookies is the on-disk session format written by the auth
// command after a browser login.
type institutionalCookies struct {
	Cookies map[string]string `json:"cookies"`
}

// Institutional accesses paywalled publisher content through an EZProxy
// prefix or, when the operator is on the institution's VPN, directly.
// EZProxy mode needs a saved session cookie file; the client rewrites
// the DOI landing URL through the proxy and attaches the cookies on
// download.
type Institutional struct {
	client    *http.Client
	cfg       types.InstitutionalConfig
	userAgent string
	cookies   map[string]string
}

func NewInstitutional(client *http.Client, cfg types.InstitutionalConfig, userAgent string) *Institutional {
	inst := &Institutional{client: client, cfg: cfg, userAgent: userAgent}
	inst.loadCookies()
	return inst
}

func (i *Institutional) Name() string { return "institutional" }

// IsAuthenticated reports whether the client can attempt a download: VPN
// mode is always ready, EZProxy mode needs both a proxy URL and a saved
// session.
func (i *Institutional) IsAuthenticated() bool {
	if i.cfg.VPNEnabled {
		return true
	}
	return i.cfg.ProxyURL != "" && len(i.cookies) > 0
}

// PDFURL returns the proxied publisher landing URL for a DOI. The
// download step follows publisher redirects to the PDF itself.
func (i *Institutional) PDFURL(ctx context.Context, req Request) (string, error) {
	if req.DOI == "" {
		return "", nil
	}
	if !i.IsAuthenticated() {
		return "", nil
	}
	return i.ProxiedURL("https://doi.org/" + req.DOI), nil
}

// ProxiedURL rewrites a publisher URL through the EZProxy prefix. In VPN
// mode the URL passes through unchanged.
func (i *Institutional) ProxiedURL(rawURL string) string {
	if i.cfg.VPNEnabled || i.cfg.ProxyURL == "" {
		return rawURL
	}
	return i.cfg.ProxyURL + rawURL
}

// DownloadHeaders returns the session cookies as a Cookie header for the
// PDF download request.
func (i *Institutional) DownloadHeaders() map[string]string {
	if len(i.cookies) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(i.cookies))
	for name, value := range i.cookies {
		pairs = append(pairs, name+"="+value)
	}
	return map[string]string{"Cookie": strings.Join(pairs, "; ")}
}

func (i *Institutional) loadCookies() {
	if i.cfg.CookiesFile == "" {
		return
	}
	data, err := os.ReadFile(i.cfg.CookiesFile)
	if err != nil {
		return
	}
	var saved institutionalCookies
	if err := json.Unmarshal(data, &saved); err != nil {
		return
	}
	i.cookies = saved.Cookies
}

// SaveCookies persists a session for later runs. The auth command calls
// this after a successful proxy login.
func SaveCookies(path string, cookies map[string]string) error {
	data, err := json.MarshalIndent(institutionalCookies{Cookies: cookies}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

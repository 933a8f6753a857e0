// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfetch/pkg/types"
)

func TestRegistryRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewArxiv(http.DefaultClient, "test")))

	err := reg.Register(NewArxiv(http.DefaultClient, "test"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestBuildRegistrySkipsUnpaywallWithoutEmail(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.User.Email = ""

	reg, err := BuildRegistry(cfg, http.DefaultClient)
	require.NoError(t, err)

	_, ok := reg.Get("unpaywall")
	assert.False(t, ok, "unpaywall requires a contact email")
	_, ok = reg.Get("arxiv")
	assert.True(t, ok)
}

func TestBuildRegistryUnofficialGatedOnDisclaimer(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.User.Email = "ops@example.org"
	sc := cfg.Sources["scihub"]
	sc.Enabled = true
	cfg.Sources["scihub"] = sc

	reg, err := BuildRegistry(cfg, http.DefaultClient)
	require.NoError(t, err)
	_, ok := reg.Get("scihub")
	assert.False(t, ok, "enabled flag alone must not construct scihub")

	cfg.Unofficial.DisclaimerAccepted = true
	reg, err = BuildRegistry(cfg, http.DefaultClient)
	require.NoError(t, err)
	_, ok = reg.Get("scihub")
	assert.True(t, ok)
}

func TestBuildRegistrySkipsUnauthenticatedInstitutional(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.User.Email = "ops@example.org"
	inst := cfg.Sources["institutional"]
	inst.Enabled = true
	cfg.Sources["institutional"] = inst
	cfg.Institutional.Enabled = true
	cfg.Institutional.CookiesFile = "" // no saved session

	reg, err := BuildRegistry(cfg, http.DefaultClient)
	require.NoError(t, err)
	_, ok := reg.Get("institutional")
	assert.False(t, ok)

	cfg.Institutional.VPNEnabled = true
	reg, err = BuildRegistry(cfg, http.DefaultClient)
	require.NoError(t, err)
	_, ok = reg.Get("institutional")
	assert.True(t, ok)
}

func TestBuildRegistryRejectsUnknownSource(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Sources["gopher_hole"] = types.SourceConfig{Enabled: true, Priority: 99}

	_, err := BuildRegistry(cfg, http.DefaultClient)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gopher_hole")
}

func TestRegistryNamesSorted(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.User.Email = "ops@example.org"

	reg, err := BuildRegistry(cfg, http.DefaultClient)
	require.NoError(t, err)

	names := reg.Names()
	assert.Equal(t, []string{"arxiv", "biorxiv", "openalex", "pmc", "semantic_scholar", "unpaywall"}, names)
}

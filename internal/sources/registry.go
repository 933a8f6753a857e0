// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// Registry holds the constructed source clients for a run, keyed by
// source name. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a client. Registering two clients under the same name is
// a programming error and is rejected.
func (r *Registry) Register(c Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.clients[name]; exists {
		return fmt.Errorf("source %q already registered", name)
	}
	r.clients[name] = c
	return nil
}

// Get returns the client for a source name, or false if none was built.
func (r *Registry) Get(name string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[name]
	return c, ok
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildRegistry constructs clients for every source the configuration
// enables. Sources whose preconditions are not met are skipped rather
// than failing the run: Unpaywall needs a contact email, institutional
// access needs the proxy or VPN configured, and the unofficial mirrors
// need the disclaimer accepted (already folded into SourceEnabled).
func BuildRegistry(cfg types.Config, hc *http.Client) (*Registry, error) {
	reg := NewRegistry()
	ua := cfg.HTTP.UserAgent

	for _, name := range cfg.SortedSources() {
		if !cfg.SourceEnabled(name) {
			continue
		}

		var c Client
		switch name {
		case "unpaywall":
			if cfg.User.Email == "" {
				continue
			}
			c = NewUnpaywall(hc, cfg.User.Email, ua)
		case "arxiv":
			c = NewArxiv(hc, ua)
		case "pmc":
			c = NewPMC(hc, cfg.User.Email, cfg.APIKeys.NCBI, ua)
		case "biorxiv":
			c = NewBiorxiv(hc, ua)
		case "semantic_scholar":
			c = NewSemanticScholar(hc, cfg.APIKeys.SemanticScholar, ua)
		case "openalex":
			c = NewOpenAlex(hc, cfg.User.Email, ua)
		case "institutional":
			inst := NewInstitutional(hc, cfg.Institutional, ua)
			if !inst.IsAuthenticated() {
				continue
			}
			c = inst
		case "web_search":
			c = NewWebSearch(hc, ua)
		case "scihub":
			c = NewSciHub(hc, ua)
		case "libgen":
			c = NewLibGen(hc, ua)
		default:
			return nil, fmt.Errorf("unknown source %q in configuration", name)
		}

		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

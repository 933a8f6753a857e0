// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSearchWithoutBackendIsNotFound(t *testing.T) {
	w := NewWebSearch(http.DefaultClient, "test-agent")
	pdfURL, err := w.PDFURL(context.Background(), Request{Title: "Some Paper"})
	require.NoError(t, err)
	assert.Empty(t, pdfURL)
}

func TestWebSearchFindsPDFLinkInResults(t *testing.T) {
	w := NewWebSearch(http.DefaultClient, "test-agent")
	w.SetSearcher(func(ctx context.Context, query string) ([]string, error) {
		assert.Contains(t, query, `"Attention Is All You Need"`)
		assert.Contains(t, query, "Vaswani")
		assert.Contains(t, query, "filetype:pdf")
		return []string{
			"A page about transformers: https://example.org/blog",
			"Direct link: https://papers.example.org/attention.pdf?dl=1 mirrored here",
		}, nil
	})

	pdfURL, err := w.PDFURL(context.Background(), Request{
		Title:   "Attention Is All You Need",
		Authors: []string{"Vaswani"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://papers.example.org/attention.pdf?dl=1", pdfURL)
}

func TestWebSearchFallsBackToDownloadPage(t *testing.T) {
	w := NewWebSearch(http.DefaultClient, "test-agent")
	w.SetSearcher(func(ctx context.Context, query string) ([]string, error) {
		return []string{
			"https://example.org/about",
			"https://journal.example.org/article/fulltext",
		}, nil
	})

	pdfURL, err := w.PDFURL(context.Background(), Request{Title: "Some Paper"})
	require.NoError(t, err)
	assert.Equal(t, "https://journal.example.org/article/fulltext", pdfURL)
}

func TestBuildSearchQueryEmptyRequest(t *testing.T) {
	assert.Empty(t, buildSearchQuery(Request{}))
}

func TestIsDownloadURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.org/download/123", true},
		{"https://example.org/article/full-text", true},
		{"https://example.org/pdf/view", true},
		{"https://example.org/about", false},
		{"not a url with download in it", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isDownloadURL(tt.in), "isDownloadURL(%q)", tt.in)
	}
}

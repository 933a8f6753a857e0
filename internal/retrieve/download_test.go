// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadWritesPDF(t *testing.T) {
	body := "%PDF-1.5\nfake pdf body"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/pdf", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	d := NewDownloader(srv.Client(), "test-agent")
	require.NoError(t, d.Download(context.Background(), srv.URL, dest, nil))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestDownloadAcceptsMagicWithoutContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("%PDF-1.7 content"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	d := NewDownloader(srv.Client(), "test-agent")
	assert.NoError(t, d.Download(context.Background(), srv.URL, dest, nil))
}

func TestDownloadRejectsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Please sign in</body></html>"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	d := NewDownloader(srv.Client(), "test-agent")
	err := d.Download(context.Background(), srv.URL, dest, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a PDF")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "rejected download must not leave a file")
}

func TestDownloadRejectsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	d := NewDownloader(srv.Client(), "test-agent")
	err := d.Download(context.Background(), srv.URL, dest, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestDownloadSendsExtraHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.5"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	d := NewDownloader(srv.Client(), "test-agent")
	require.NoError(t, d.Download(context.Background(), srv.URL, dest, map[string]string{"Cookie": "session=abc"}))
}

func TestDownloadLeavesNoTempFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.5 body"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(srv.Client(), "test-agent")
	require.NoError(t, d.Download(context.Background(), srv.URL, filepath.Join(dir, "paper.pdf"), nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "paper.pdf", entries[0].Name())
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var pdfMagic = []byte("%PDF")

// Downloader fetches PDF files to disk. Every download goes through a
// temp file in the destination directory and an os.Rename, so readers
// never observe a partial file and a paper is either fully on disk or
// absent.
type Downloader struct {
	client    *http.Client
	userAgent string
}

func NewDownloader(client *http.Client, userAgent string) *Downloader {
	return &Downloader{client: client, userAgent: userAgent}
}

// Download fetches url to destPath. A response that neither declares a
// PDF content type nor starts with the %PDF magic is rejected without
// touching destPath; publisher landing pages and bot-check HTML fail
// here instead of poisoning the library.
func (d *Downloader) Download(ctx context.Context, url, destPath string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/pdf")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	head := make([]byte, len(pdfMagic))
	n, _ := io.ReadFull(resp.Body, head)
	head = head[:n]

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "pdf") && !bytes.HasPrefix(head, pdfMagic) {
		return fmt.Errorf("response from %s is not a PDF (content type %q)", url, contentType)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".paperfetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := tmpFile.Write(head)
	if copyErr == nil {
		_, copyErr = io.Copy(tmpFile, resp.Body)
	}
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

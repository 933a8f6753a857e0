// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// titleFilenameChars keeps letters, digits, underscores, spaces and
// hyphens in any script; the rest would be hostile in a filename.
var titleFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)

// OutputPath builds the download path for a paper:
// {author}_{year}_{truncated title}.pdf, falling back to the DOI with
// slashes replaced, then to "paper.pdf" when nothing is known.
func OutputPath(md *types.PaperMetadata, doi string, outputDir string, maxTitleLen int) string {
	var author, year, title string
	if md != nil {
		author = md.FirstAuthorLastName()
		if md.Year != 0 {
			year = fmt.Sprintf("%d", md.Year)
		}
		title = md.Title
		if doi == "" {
			doi = md.DOI
		}
	}

	if maxTitleLen <= 0 {
		maxTitleLen = 50
	}
	titleShort := titleFilenameChars.ReplaceAllString(title, "")
	// Truncate on rune boundaries; a byte slice could split a multi-byte
	// character and leave an invalid-UTF-8 filename.
	if runes := []rune(titleShort); len(runes) > maxTitleLen {
		titleShort = string(runes[:maxTitleLen])
	}
	titleShort = strings.TrimSpace(titleShort)

	var parts []string
	for _, p := range []string{author, year, titleShort} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	var filename string
	switch {
	case len(parts) > 0:
		filename = strings.ReplaceAll(strings.Join(parts, "_"), " ", "_") + ".pdf"
	case doi != "":
		filename = strings.ReplaceAll(doi, "/", "_") + ".pdf"
	default:
		filename = "paper.pdf"
	}

	return filepath.Join(outputDir, filename)
}

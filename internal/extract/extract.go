// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract pulls plain text and embedded identifiers out of
// downloaded PDFs. It is the default implementation of the
// document-extraction collaborator; callers depend on the Extractor
// interface so other backends can be substituted.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor turns a PDF file into plain text.
type Extractor interface {
	Text(path string) (string, error)
}

// doiPattern matches 10.NNNN/suffix identifiers embedded in page text.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// doiScanPages bounds the DOI scan; the identifier sits on the first
// page of almost every publisher layout.
const doiScanPages = 3

// PDF extracts text with the pure-Go pdf reader.
type PDF struct{}

// Text returns the plain text of every page, pages separated by blank
// lines. Pages that fail to decode are skipped.
func (PDF) Text(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// DOI scans the first pages of a PDF for an embedded DOI. A PDF with
// no DOI returns "" without error.
func (PDF) DOI(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	last := min(doiScanPages, r.NumPage())
	for i := 1; i <= last; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if doi := FindDOI(text); doi != "" {
			return doi, nil
		}
	}
	return "", nil
}

// FindDOI returns the first DOI in a block of text, trimmed of the
// trailing punctuation that page extraction tends to glue on.
func FindDOI(text string) string {
	match := doiPattern.FindString(text)
	return strings.TrimRight(match, ".,;)")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// skipWords are the leading articles and prepositions ignored when
// picking the title word for a citation key.
var skipWords = map[string]bool{
	"a": true, "an": true, "the": true, "on": true,
	"in": true, "of": true, "for": true, "to": true,
}

var nonWordChars = regexp.MustCompile(`[^\w]`)

// BibtexKey builds the citation key: lower-cased first-author last name,
// year, and the first significant title word. Missing parts degrade to
// "0000" for the year and "paper" for the title word.
func BibtexKey(md *types.PaperMetadata) string {
	lastName := nonWordChars.ReplaceAllString(strings.ToLower(md.FirstAuthorLastName()), "")

	year := "0000"
	if md.Year != 0 {
		year = fmt.Sprintf("%d", md.Year)
	}

	firstWord := "paper"
	for _, word := range strings.Fields(strings.ToLower(md.Title)) {
		clean := nonWordChars.ReplaceAllString(word, "")
		if clean != "" && !skipWords[clean] {
			firstWord = clean
			break
		}
	}

	return lastName + year + firstWord
}

// entryType picks the BibTeX entry type from the record. A paper that
// only exists on arXiv is a @misc preprint; otherwise the CrossRef
// publication type decides.
func entryType(md *types.PaperMetadata) string {
	switch {
	case md.ArxivID != "" && md.Venue == "":
		return "misc"
	case md.PublicationType == "book-chapter":
		return "incollection"
	case md.PublicationType == "proceedings-article":
		return "inproceedings"
	case md.PublicationType == "book":
		return "book"
	default:
		return "article"
	}
}

func escapeBraces(s string) string {
	s = strings.ReplaceAll(s, "{", `\{`)
	return strings.ReplaceAll(s, "}", `\}`)
}

// FormatBibtex renders the record as a BibTeX entry. An empty key uses
// the generated one.
func FormatBibtex(md *types.PaperMetadata, key string) string {
	if key == "" {
		key = BibtexKey(md)
	}
	etype := entryType(md)

	var fields []string
	add := func(name, value string) {
		if value != "" {
			fields = append(fields, fmt.Sprintf("  %s = {%s}", name, value))
		}
	}

	add("title", escapeBraces(md.Title))
	if len(md.Authors) > 0 {
		names := make([]string, len(md.Authors))
		for i, a := range md.Authors {
			names[i] = a.Name
		}
		add("author", strings.Join(names, " and "))
	}
	if md.Year != 0 {
		add("year", fmt.Sprintf("%d", md.Year))
	}
	if md.Venue != "" {
		field := "journal"
		if etype == "inproceedings" || etype == "incollection" {
			field = "booktitle"
		}
		add(field, escapeBraces(md.Venue))
	}
	add("publisher", md.Publisher)
	add("volume", md.Volume)
	add("number", md.Issue)
	add("pages", md.Pages)
	add("doi", md.DOI)
	if md.ArxivID != "" {
		add("eprint", md.ArxivID)
		fields = append(fields, "  archiveprefix = {arXiv}")
		if len(md.Subjects) > 0 {
			add("primaryclass", md.Subjects[0])
		}
	}
	if md.URL != "" {
		add("url", md.URL)
	} else {
		add("url", md.PDFURL)
	}
	if md.Abstract != "" {
		abstract := strings.ReplaceAll(escapeBraces(md.Abstract), "\n", " ")
		add("abstract", abstract)
	}
	if len(md.Keywords) > 0 {
		add("keywords", strings.Join(md.Keywords, ", "))
	}

	return fmt.Sprintf("@%s{%s,\n%s\n}", etype, key, strings.Join(fields, ",\n"))
}

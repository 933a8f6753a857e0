// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify checks existing BibTeX bibliographies against the
// registrar APIs. Entries are classified as verified, arXiv, searched,
// website, manual, or failed, and the sorted entries are written back
// out as verified.bib, failed.bib, and a Markdown report.
package verify

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/paperfetch/internal/identifier"
	"github.com/pdiddy/paperfetch/internal/titles"
)

// BibEntry is one parsed BibTeX record. Raw preserves the entry text
// verbatim so re-serialization never loses fields the parser does not
// model.
type BibEntry struct {
	Key          string
	EntryType    string
	Raw          string
	Title        string
	Author       string
	DOI          string
	Eprint       string
	URL          string
	Howpublished string
	Booktitle    string
	Note         string
	IsArxiv      bool
}

var entryHeadPattern = regexp.MustCompile(`^@([a-zA-Z]+)\s*\{\s*([^,\s}]+)\s*,`)

// ParseEntry parses a single @type{key, ...} block. It returns nil for
// text that is not a well-formed entry.
func ParseEntry(raw string) *BibEntry {
	trimmed := strings.TrimSpace(raw)
	m := entryHeadPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return nil
	}
	entry := &BibEntry{
		Key:       m[2],
		EntryType: strings.ToLower(m[1]),
		Raw:       trimmed,
	}

	fields := parseFields(trimmed[len(m[0]):])
	entry.Title = fields["title"]
	entry.Author = fields["author"]
	entry.DOI = CleanDOI(fields["doi"])
	entry.Eprint = fields["eprint"]
	entry.URL = fields["url"]
	entry.Howpublished = fields["howpublished"]
	entry.Booktitle = fields["booktitle"]
	entry.Note = fields["note"]
	entry.IsArxiv = entry.Eprint != "" ||
		strings.EqualFold(fields["archiveprefix"], "arxiv")
	return entry
}

// parseFields scans `name = {value}` pairs, tracking brace depth so
// nested braces inside values survive. Field names are lower-cased.
func parseFields(body string) map[string]string {
	fields := map[string]string{}
	i := 0
	for i < len(body) {
		// Field name up to '='.
		eq := strings.IndexByte(body[i:], '=')
		if eq < 0 {
			break
		}
		name := strings.ToLower(strings.Trim(body[i:i+eq], " \t\r\n,"))
		i += eq + 1

		for i < len(body) && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n' || body[i] == '\r') {
			i++
		}
		if i >= len(body) {
			break
		}

		var value string
		switch body[i] {
		case '{':
			depth := 0
			start := i + 1
			for ; i < len(body); i++ {
				if body[i] == '{' {
					depth++
				} else if body[i] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			if i >= len(body) {
				return fields
			}
			value = body[start:i]
			i++
		case '"':
			end := strings.IndexByte(body[i+1:], '"')
			if end < 0 {
				return fields
			}
			value = body[i+1 : i+1+end]
			i += end + 2
		default:
			end := strings.IndexAny(body[i:], ",\n}")
			if end < 0 {
				end = len(body) - i
			}
			value = strings.TrimSpace(body[i : i+end])
			i += end
		}
		if name != "" {
			fields[name] = strings.TrimSpace(value)
		}
	}
	return fields
}

// ParseFile splits a .bib file into entries on top-level '@' markers. A
// missing or unreadable file yields no entries rather than an error so
// directory scans skip junk files quietly.
func ParseFile(path string) []BibEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return ParseAll(string(data))
}

// ParseAll parses every entry in a BibTeX document.
func ParseAll(text string) []BibEntry {
	var entries []BibEntry
	for _, block := range splitEntries(text) {
		if entry := ParseEntry(block); entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries
}

// splitEntries cuts the document at each '@' that starts an entry and
// closes each block at its balancing brace.
func splitEntries(text string) []string {
	var blocks []string
	for i := 0; i < len(text); i++ {
		if text[i] != '@' {
			continue
		}
		depth := 0
		end := -1
		for j := i; j < len(text); j++ {
			if text[j] == '{' {
				depth++
			} else if text[j] == '}' {
				depth--
				if depth == 0 {
					end = j
					break
				}
			}
		}
		if end < 0 {
			break
		}
		blocks = append(blocks, text[i:end+1])
		i = end
	}
	return blocks
}

var doiPrefixPattern = regexp.MustCompile(`(?i)^doi[:\s]+`)

// CleanDOI strips surrounding braces, whitespace, and a leading "DOI"
// label from a DOI field value.
func CleanDOI(raw string) string {
	doi := strings.TrimSpace(raw)
	doi = strings.Trim(doi, "{}")
	doi = strings.TrimSpace(doi)
	doi = doiPrefixPattern.ReplaceAllString(doi, "")
	return strings.TrimSpace(doi)
}

var (
	latexCommandPattern = regexp.MustCompile(`\\[a-zA-Z]+\{([^{}]*)\}`)
	latexAccentPattern  = regexp.MustCompile(`\\.\{([^{}]*)\}`)
	latexEscapePattern  = regexp.MustCompile(`\\.`)
	nonAlnumPattern     = regexp.MustCompile(`[^a-z0-9]`)
)

// normalizeTitle reduces a title to bare lower-case alphanumerics for
// comparison: LaTeX commands and accents are unwrapped, escapes and
// punctuation dropped, whitespace removed.
func normalizeTitle(s string) string {
	s = latexCommandPattern.ReplaceAllString(s, "$1")
	s = latexAccentPattern.ReplaceAllString(s, "$1")
	s = latexEscapePattern.ReplaceAllString(s, "")
	return nonAlnumPattern.ReplaceAllString(strings.ToLower(s), "")
}

// TitlesMatch reports whether a bibliography title and an API title
// refer to the same paper: exact or substring match after
// normalization, otherwise word overlap above the search threshold.
func TitlesMatch(a, b string) bool {
	na, nb := normalizeTitle(a), normalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return titles.Jaccard(a, b) >= titles.CrossRefThreshold
}

// IsWebsite reports whether the entry cites a web page rather than a
// paper. arXiv entries and links into scholarly hosts never count.
func IsWebsite(entry *BibEntry) bool {
	if entry.IsArxiv {
		return false
	}
	link := entry.URL
	if link == "" {
		link = entry.Howpublished
	}
	if link == "" {
		return false
	}
	lower := strings.ToLower(link)
	for _, host := range []string{"arxiv.org", "doi.org", "dl.acm.org", "ieeexplore.ieee.org"} {
		if strings.Contains(lower, host) {
			return false
		}
	}
	return true
}

// ArxivDOIFor derives the registrar DOI for an entry's eprint, or ""
// when the entry has none.
func ArxivDOIFor(entry *BibEntry) string {
	if entry.Eprint == "" {
		return ""
	}
	return identifier.ArxivDOI(entry.Eprint)
}

var keyPattern = regexp.MustCompile(`(@[a-zA-Z]+\s*\{\s*)[^,\s}]+`)

// ReplaceKey swaps the citation key of an entry, leaving everything
// else untouched.
func ReplaceKey(bibtex, newKey string) string {
	replaced := false
	return keyPattern.ReplaceAllStringFunc(bibtex, func(head string) string {
		if replaced {
			return head
		}
		replaced = true
		m := keyPattern.FindStringSubmatch(head)
		return m[1] + newKey
	})
}

var notePattern = regexp.MustCompile(`(note\s*=\s*\{)([^{}]*)(\})`)

// AddAccessDate stamps a website entry with today's access date in its
// note field. Entries already carrying an "Accessed" note pass through
// unchanged.
func AddAccessDate(bibtex string) string {
	return addAccessDate(bibtex, time.Now())
}

func addAccessDate(bibtex string, now time.Time) string {
	if strings.Contains(bibtex, "Accessed") {
		return bibtex
	}
	stamp := "Last accessed: " + now.Format("2006-01-02")

	if notePattern.MatchString(bibtex) {
		return notePattern.ReplaceAllString(bibtex, "${1}${2}, "+stamp+"${3}")
	}

	end := strings.LastIndexByte(bibtex, '}')
	if end < 0 {
		return bibtex
	}
	head := strings.TrimRight(bibtex[:end], " \t\n")
	return fmt.Sprintf("%s,\n  note = {%s}\n}", head, stamp)
}

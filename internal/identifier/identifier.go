// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identifier classifies free-form input strings into typed paper
// identifiers. Resolution is a pure function: no I/O, and it never fails;
// unrecognized input falls back to a title search identifier.
package identifier

import (
	"regexp"
	"strings"
)

// Kind classifies an input identifier.
type Kind int

const (
	KindUnknown Kind = iota
	KindDOI
	KindArxiv
	KindSemanticScholar
	KindOpenAlex
	KindPubMed
	KindPMC
	KindPDFURL
	KindTitle
)

func (k Kind) String() string {
	switch k {
	case KindDOI:
		return "doi"
	case KindArxiv:
		return "arxiv"
	case KindSemanticScholar:
		return "semantic_scholar"
	case KindOpenAlex:
		return "openalex"
	case KindPubMed:
		return "pubmed"
	case KindPMC:
		return "pmc"
	case KindPDFURL:
		return "pdf_url"
	case KindTitle:
		return "title"
	default:
		return "unknown"
	}
}

// PaperIdentifier is the typed form of one raw input string. Exactly one
// of DOI/ArxivID/URL is authoritative per kind; KindUnknown carries no
// structured fields.
type PaperIdentifier struct {
	Original string
	Kind     Kind
	Value    string
	DOI      string
	ArxivID  string
	URL      string
}

// HasDOI reports whether a DOI is available for this identifier.
func (p PaperIdentifier) HasDOI() bool { return p.DOI != "" }

func (p PaperIdentifier) String() string {
	switch p.Kind {
	case KindDOI:
		return "DOI:" + p.DOI
	case KindArxiv:
		return "arXiv:" + p.ArxivID
	default:
		return p.Kind.String() + ":" + p.Value
	}
}

var (
	pdfURLPattern = regexp.MustCompile(`(?i)^https?://\S+\.pdf(?:\?\S*)?$`)

	// arXiv forms. New-format IDs are YYMM.NNNNN with an optional version
	// suffix; old-format IDs are category/NNNNNNN.
	arxivNewPattern = regexp.MustCompile(`^(?i:arxiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)
	arxivOldPattern = regexp.MustCompile(`^(?i:arxiv:)?([a-z][a-z-]*(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?)$`)
	arxivDOIPattern = regexp.MustCompile(`(?i)^(?:https?://(?:dx\.)?doi\.org/|doi:)?10\.48550/arxiv\.(\S+)$`)
	arxivURLPattern = regexp.MustCompile(`(?i)^https?://(?:www\.)?arxiv\.org/(?:abs|pdf)/([^\s?]+?)(?:\.pdf)?(?:\?.*)?$`)

	doiPrefixPattern = regexp.MustCompile(`(?i)^(?:https?://(?:dx\.)?doi\.org/|doi:\s*)`)
	doiPattern       = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

	s2URLPattern = regexp.MustCompile(`(?i)semanticscholar\.org/paper/(?:[^/\s]+/)*([0-9a-f]{40})`)
	s2IDPattern  = regexp.MustCompile(`^[0-9a-f]{40}$`)

	openalexPattern = regexp.MustCompile(`(?i)^(?:https?://(?:www\.)?openalex\.org/)?(W\d+)$`)

	pubmedIDPattern  = regexp.MustCompile(`(?i)^pmid:?\s*(\d+)$`)
	pubmedURLPattern = regexp.MustCompile(`(?i)pubmed\.ncbi\.nlm\.nih\.gov/(\d+)`)

	pmcPattern = regexp.MustCompile(`(?i)^(pmc\d+)$`)

	versionSuffix = regexp.MustCompile(`v\d+$`)
)

// Resolve classifies raw input into a PaperIdentifier. Classification
// order is fixed; arXiv forms are checked before generic DOI matching so
// the arXiv DOI prefix 10.48550 is not misclassified, and arxiv.org PDF
// links resolve as arXiv IDs rather than opaque PDF URLs.
func Resolve(raw string) PaperIdentifier {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PaperIdentifier{Original: raw, Kind: KindUnknown}
	}

	if pdfURLPattern.MatchString(trimmed) && !strings.Contains(strings.ToLower(trimmed), "arxiv.org") {
		return PaperIdentifier{Original: raw, Kind: KindPDFURL, Value: trimmed, URL: trimmed}
	}

	if id, ok := matchArxiv(trimmed); ok {
		return PaperIdentifier{
			Original: raw,
			Kind:     KindArxiv,
			Value:    id,
			ArxivID:  id,
			DOI:      ArxivDOI(id),
		}
	}

	if doi, ok := matchDOI(trimmed); ok {
		return PaperIdentifier{Original: raw, Kind: KindDOI, Value: doi, DOI: doi}
	}

	if m := s2URLPattern.FindStringSubmatch(trimmed); m != nil {
		return PaperIdentifier{Original: raw, Kind: KindSemanticScholar, Value: strings.ToLower(m[1])}
	}
	if s2IDPattern.MatchString(strings.ToLower(trimmed)) && !strings.Contains(trimmed, " ") {
		return PaperIdentifier{Original: raw, Kind: KindSemanticScholar, Value: strings.ToLower(trimmed)}
	}

	if m := openalexPattern.FindStringSubmatch(trimmed); m != nil {
		return PaperIdentifier{Original: raw, Kind: KindOpenAlex, Value: strings.ToUpper(m[1][:1]) + m[1][1:]}
	}

	if m := pubmedIDPattern.FindStringSubmatch(trimmed); m != nil {
		return PaperIdentifier{Original: raw, Kind: KindPubMed, Value: m[1]}
	}
	if m := pubmedURLPattern.FindStringSubmatch(trimmed); m != nil {
		return PaperIdentifier{Original: raw, Kind: KindPubMed, Value: m[1]}
	}

	if m := pmcPattern.FindStringSubmatch(trimmed); m != nil {
		return PaperIdentifier{Original: raw, Kind: KindPMC, Value: "PMC" + m[1][3:]}
	}

	return PaperIdentifier{Original: raw, Kind: KindTitle, Value: trimmed}
}

// matchArxiv tries all arXiv identifier forms and returns the bare ID.
// A version suffix is kept in the ID; the derived DOI strips it.
func matchArxiv(s string) (string, bool) {
	if m := arxivNewPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := arxivOldPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := arxivDOIPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if m := arxivURLPattern.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	return "", false
}

func matchDOI(s string) (string, bool) {
	stripped := doiPrefixPattern.ReplaceAllString(s, "")
	if doiPattern.MatchString(stripped) {
		return strings.ToLower(stripped), true
	}
	return "", false
}

// NormalizeDOI strips URL and "doi:" prefixes and lower-cases the DOI.
// Input that does not look like a DOI is returned stripped but otherwise
// unchanged.
func NormalizeDOI(s string) string {
	if doi, ok := matchDOI(strings.TrimSpace(s)); ok {
		return doi
	}
	return doiPrefixPattern.ReplaceAllString(strings.TrimSpace(s), "")
}

// NormalizeArxivID strips "arXiv:" prefixes and arxiv.org URL forms,
// returning the bare ID (version suffix preserved).
func NormalizeArxivID(s string) string {
	if id, ok := matchArxiv(strings.TrimSpace(s)); ok {
		return id
	}
	return strings.TrimSpace(s)
}

// ArxivDOI returns the canonical DOI for an arXiv ID
// (10.48550/arXiv.<bare id>, version suffix removed).
func ArxivDOI(arxivID string) string {
	bare := versionSuffix.ReplaceAllString(NormalizeArxivID(arxivID), "")
	return "10.48550/arXiv." + bare
}

// ArxivIDFromDOI extracts the arXiv ID from a DOI in the arXiv registrar
// namespace, or returns "" for any other DOI.
func ArxivIDFromDOI(doi string) string {
	if m := arxivDOIPattern.FindStringSubmatch(strings.TrimSpace(doi)); m != nil {
		return m[1]
	}
	return ""
}

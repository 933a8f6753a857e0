// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Author holds one paper author.
type Author struct {
	// Name is the full display name in source order.
	Name string `json:"name" yaml:"name"`

	// Given and Family are the split name parts when the source provides them.
	Given  string `json:"given,omitempty" yaml:"given,omitempty"`
	Family string `json:"family,omitempty" yaml:"family,omitempty"`

	// ORCID is the author's ORCID identifier when known.
	ORCID string `json:"orcid,omitempty" yaml:"orcid,omitempty"`

	// Affiliations lists institutional affiliations when known.
	Affiliations []string `json:"affiliations,omitempty" yaml:"affiliations,omitempty"`
}

// LastName returns the family name, falling back to the last token of
// the full name.
func (a Author) LastName() string {
	if a.Family != "" {
		return a.Family
	}
	parts := strings.Fields(a.Name)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// PaperMetadata is the canonical merged metadata record for one paper.
// A record is never mutated after the merge that produced it; enrichment
// replaces it with a new record.
type PaperMetadata struct {
	Title     string   `json:"title" yaml:"title"`
	Authors   []Author `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year      int      `json:"year,omitempty" yaml:"year,omitempty"`
	Venue     string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	Publisher string   `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Abstract  string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Identifiers.
	DOI        string `json:"doi,omitempty" yaml:"doi,omitempty"`
	ArxivID    string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
	PMID       string `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	PMCID      string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`
	S2ID       string `json:"s2_id,omitempty" yaml:"s2_id,omitempty"`
	OpenAlexID string `json:"openalex_id,omitempty" yaml:"openalex_id,omitempty"`

	// URLs.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`

	// Citation info.
	CitationCount  int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`
	ReferenceCount int `json:"reference_count,omitempty" yaml:"reference_count,omitempty"`

	// Additional metadata.
	Keywords        []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Subjects        []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	PublicationDate string   `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	Volume          string   `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue           string   `json:"issue,omitempty" yaml:"issue,omitempty"`
	Pages           string   `json:"pages,omitempty" yaml:"pages,omitempty"`
	PublicationType string   `json:"publication_type,omitempty" yaml:"publication_type,omitempty"`

	// Source identifies which API produced this record.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// FirstAuthorLastName returns the first author's last name, or "" when
// no authors are known.
func (m *PaperMetadata) FirstAuthorLastName() string {
	if m == nil || len(m.Authors) == 0 {
		return ""
	}
	return m.Authors[0].LastName()
}

// AuthorString formats the author list for display: one name as-is, two
// joined with "and", more as "First et al."
func (m *PaperMetadata) AuthorString() string {
	if m == nil || len(m.Authors) == 0 {
		return "Unknown"
	}
	switch len(m.Authors) {
	case 1:
		return m.Authors[0].Name
	case 2:
		return m.Authors[0].Name + " and " + m.Authors[1].Name
	default:
		return m.Authors[0].Name + " et al."
	}
}

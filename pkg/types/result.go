// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RetrievalStatus is the terminal state of one retrieval.
type RetrievalStatus string

const (
	StatusSuccess  RetrievalStatus = "success"
	StatusNotFound RetrievalStatus = "not_found"
	StatusError    RetrievalStatus = "error"
	StatusSkipped  RetrievalStatus = "skipped"
)

// Attempt records one source try within a retrieval. The attempt log is
// append-only: it is the audit trail for why a paper failed everywhere.
type Attempt struct {
	Source  string `json:"source" yaml:"source"`
	Outcome string `json:"outcome" yaml:"outcome"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// RetrievalResult is the outcome of one Retrieve call.
type RetrievalResult struct {
	DOI      string          `json:"doi,omitempty" yaml:"doi,omitempty"`
	Title    string          `json:"title" yaml:"title"`
	Status   RetrievalStatus `json:"status" yaml:"status"`
	Source   string          `json:"source,omitempty" yaml:"source,omitempty"`
	PDFPath  string          `json:"pdf_path,omitempty" yaml:"pdf_path,omitempty"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
	Metadata *PaperMetadata  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Attempts []Attempt       `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

// BatchSummary counts outcomes of a batch run.
type BatchSummary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the total number of papers processed.
func (s BatchSummary) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}

// HasFailures reports whether any papers failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

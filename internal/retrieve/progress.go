// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// progressFile is the on-disk resume format.
type progressFile struct {
	Completed []string `json:"completed"`
}

// Progress tracks which papers a batch run has finished, keyed by their
// input identifier (DOI or title). The file is rewritten after every
// completion so an interrupted run resumes where it stopped. Safe for
// concurrent use.
type Progress struct {
	mu        sync.Mutex
	path      string
	completed map[string]bool
}

// LoadProgress reads the progress file, tolerating a missing or corrupt
// one: resuming with an empty set only costs re-downloading.
func LoadProgress(path string) *Progress {
	p := &Progress{path: path, completed: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	var pf progressFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return p
	}
	for _, id := range pf.Completed {
		p.completed[id] = true
	}
	return p
}

// Done reports whether the identifier already completed in a previous
// run.
func (p *Progress) Done(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed[id]
}

// Count returns the number of completed identifiers.
func (p *Progress) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.completed)
}

// MarkDone records a completion and rewrites the file. The write goes
// through a temp file and rename so a crash mid-write cannot corrupt
// the resume state.
func (p *Progress) MarkDone(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed[id] = true

	ids := make([]string, 0, len(p.completed))
	for completed := range p.completed {
		ids = append(ids, completed)
	}
	sort.Strings(ids)

	data, err := json.Marshal(progressFile{Completed: ids})
	if err != nil {
		return fmt.Errorf("marshaling progress: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(p.path), ".progress-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return fmt.Errorf("writing progress: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpFile.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), p.path); err != nil {
		os.Remove(tmpFile.Name())
		return fmt.Errorf("renaming progress file: %w", err)
	}
	return nil
}

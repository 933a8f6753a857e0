// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperfetch/pkg/types"
)

const historyDBFile = "retrievals.db"

// History persists the outcome of every retrieval in a SQLite database
// under the output directory, so past runs can be audited with the
// sources command.
type History struct {
	db *sql.DB
}

// HistoryEntry is one recorded retrieval.
type HistoryEntry struct {
	ID        int64
	DOI       string
	Title     string
	Status    types.RetrievalStatus
	Source    string
	PDFPath   string
	Error     string
	CreatedAt time.Time
}

// OpenHistory opens or creates the retrieval history database in
// outputDir.
func OpenHistory(outputDir string) (*History, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	dbPath := filepath.Join(outputDir, historyDBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	h := &History{db: db}
	if err := h.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return h, nil
}

// Close releases the database connection.
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS retrievals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			doi TEXT,
			title TEXT,
			status TEXT NOT NULL,
			source TEXT,
			pdf_path TEXT,
			error TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_retrievals_doi ON retrievals(doi)`,
		`CREATE INDEX IF NOT EXISTS idx_retrievals_status ON retrievals(status)`,
	}
	for _, stmt := range statements {
		if _, err := h.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends one retrieval outcome.
func (h *History) Record(result *types.RetrievalResult) error {
	_, err := h.db.Exec(
		`INSERT INTO retrievals (doi, title, status, source, pdf_path, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.DOI, result.Title, string(result.Status), result.Source,
		result.PDFPath, result.Error, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording retrieval: %w", err)
	}
	return nil
}

// Recent returns the most recent retrievals, newest first.
func (h *History) Recent(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.db.Query(
		`SELECT id, doi, title, status, source, pdf_path, error, created_at
		 FROM retrievals ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var status, createdAt string
		if err := rows.Scan(&e.ID, &e.DOI, &e.Title, &status, &e.Source, &e.PDFPath, &e.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Status = types.RetrievalStatus(status)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SourceCounts returns how many successful retrievals each source has
// served.
func (h *History) SourceCounts() (map[string]int, error) {
	rows, err := h.db.Query(
		`SELECT source, COUNT(*) FROM retrievals
		 WHERE status = ? GROUP BY source`, string(types.StatusSuccess))
	if err != nil {
		return nil, fmt.Errorf("querying source counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[source] = n
	}
	return counts, rows.Err()
}

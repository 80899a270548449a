// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists each run's units and verdicts in SQLite. Unit
// identity is (document, ordinal, kind), so a re-run on unchanged material
// can report how many of its units line up with the previous run even when
// the reasoning service renames or rewords them.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/coverage-engine/pkg/types"
)

const dbFile = "coverage.db"

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at historyDir/coverage.db,
// creating the schema if needed.
func Open(historyDir string) (*Store, error) {
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(historyDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			course TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS units (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			document_id TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			covered INTEGER NOT NULL,
			check_failed INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_units_run_id ON units(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_course ON runs(course)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores one run's units and verdicts and returns the run ID.
func (s *Store) RecordRun(course string, docs []types.DocumentCoverage, at time.Time) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (course, created_at) VALUES (?, ?)`,
		course, at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run ID: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO units (run_id, document_id, ordinal, kind, name, covered, check_failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, dc := range docs {
		for i, u := range dc.Units {
			v := dc.Verdicts[i]
			if _, err := stmt.Exec(runID, u.DocumentID, u.Ordinal, string(u.Kind), u.Name, v.Covered, v.CheckFailed); err != nil {
				return 0, fmt.Errorf("inserting unit %s: %w", u.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// PriorMatches counts units in docs whose (document, ordinal, kind) identity
// existed in the most recent recorded run for the course. Zero when no prior
// run exists. Call before RecordRun for the current run.
func (s *Store) PriorMatches(course string, docs []types.DocumentCoverage) (int, error) {
	var priorID int64
	err := s.db.QueryRow(
		`SELECT id FROM runs WHERE course = ? ORDER BY id DESC LIMIT 1`, course,
	).Scan(&priorID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("finding prior run: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT document_id, ordinal, kind FROM units WHERE run_id = ?`, priorID,
	)
	if err != nil {
		return 0, fmt.Errorf("loading prior units: %w", err)
	}
	defer rows.Close()

	prior := make(map[string]bool)
	for rows.Next() {
		var docID, kind string
		var ordinal int
		if err := rows.Scan(&docID, &ordinal, &kind); err != nil {
			return 0, fmt.Errorf("scanning prior unit: %w", err)
		}
		prior[identityKey(docID, ordinal, kind)] = true
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating prior units: %w", err)
	}

	matches := 0
	for _, dc := range docs {
		for _, u := range dc.Units {
			if prior[identityKey(u.DocumentID, u.Ordinal, string(u.Kind))] {
				matches++
			}
		}
	}
	return matches, nil
}

func identityKey(docID string, ordinal int, kind string) string {
	return fmt.Sprintf("%s\x00%d\x00%s", docID, ordinal, kind)
}

// Package registry records completed runs in a local SQLite database so
// bundles on disk can be located, compared, and audited later. The registry
// is bookkeeping only: it is never part of the verified artifact set, so
// its timestamps do not affect reproducibility.
package registry

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	variant         TEXT NOT NULL,
	config_json     TEXT NOT NULL,
	out_dir         TEXT NOT NULL,
	manifest_sha256 TEXT NOT NULL,
	alpha_n         INTEGER NOT NULL,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	event      TEXT NOT NULL,
	detail     TEXT,
	created_at TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region types

// RunRecord is one registered run.
type RunRecord struct {
	RunID          string
	Variant        string // "monitor" | "probe"
	ConfigJSON     string
	OutDir         string
	ManifestSHA256 string
	AlphaN         int
	CreatedAt      time.Time
}

// Event is one run_log row.
type Event struct {
	RunID     string
	Event     string
	Detail    string
	CreatedAt time.Time
}

// #endregion types

// #region store

// Store manages the run registry in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the registry database and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region record-run

// RecordRun inserts a run row. A missing RunID or CreatedAt is filled in.
func (s *Store) RecordRun(rec RunRecord) (RunRecord, error) {
	if rec.RunID == "" {
		rec.RunID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, variant, config_json, out_dir, manifest_sha256, alpha_n, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Variant, rec.ConfigJSON, rec.OutDir, rec.ManifestSHA256,
		rec.AlphaN, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}

// LogEvent appends a run_log entry for a run.
func (s *Store) LogEvent(runID, event, detail string) error {
	_, err := s.db.Exec(
		`INSERT INTO run_log (run_id, event, detail, created_at) VALUES (?, ?, ?, ?)`,
		runID, event, nullIfEmpty(detail), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// #endregion record-run

// #region queries

// GetRun retrieves a run by ID.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord
	var createdStr string
	err := s.db.QueryRow(
		`SELECT run_id, variant, config_json, out_dir, manifest_sha256, alpha_n, created_at
		 FROM runs WHERE run_id = ?`, runID,
	).Scan(&rec.RunID, &rec.Variant, &rec.ConfigJSON, &rec.OutDir, &rec.ManifestSHA256, &rec.AlphaN, &createdStr)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, variant, config_json, out_dir, manifest_sha256, alpha_n, created_at
		 FROM runs ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdStr string
		if err := rows.Scan(&rec.RunID, &rec.Variant, &rec.ConfigJSON, &rec.OutDir,
			&rec.ManifestSHA256, &rec.AlphaN, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Events returns the log entries of one run, oldest first.
func (s *Store) Events(runID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT run_id, event, detail, created_at FROM run_log
		 WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var detail sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Event, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if detail.Valid {
			e.Detail = detail.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		events = append(events, e)
	}
	return events, rows.Err()
}

// #endregion queries

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers

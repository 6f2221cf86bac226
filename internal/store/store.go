// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists consolidated analysis results in a SQLite
// database and writes the per-run JSON artifacts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

const dbFile = "medscribe.db"

// Store manages the analysis run database.
type Store struct {
	db  *sql.DB
	dir string
}

// NewStore opens or creates the run database at dir/medscribe.db,
// creating the schema if it does not exist.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
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
			id TEXT PRIMARY KEY,
			source_file TEXT,
			processed_at TEXT NOT NULL,
			source_length INTEGER,
			doctor_turns INTEGER,
			patient_turns INTEGER,
			entity_count INTEGER,
			sentiment TEXT,
			intent TEXT,
			degraded INTEGER NOT NULL DEFAULT 0,
			result_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			label TEXT,
			category TEXT,
			confidence REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_run_id ON entities(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_category ON entities(category)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores one consolidated result. The full record is kept as JSON;
// the scalar columns exist for listing and export queries.
func (s *Store) SaveRun(ctx context.Context, res *types.ConsolidatedResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	degraded := 0
	if res.Degraded() {
		degraded = 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source_file, processed_at, source_length, doctor_turns,
			patient_turns, entity_count, sentiment, intent, degraded, result_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source_file=excluded.source_file, processed_at=excluded.processed_at,
			source_length=excluded.source_length, doctor_turns=excluded.doctor_turns,
			patient_turns=excluded.patient_turns, entity_count=excluded.entity_count,
			sentiment=excluded.sentiment, intent=excluded.intent,
			degraded=excluded.degraded, result_json=excluded.result_json`,
		res.RunID, res.SourceFile, res.ProcessedAt.Format(time.RFC3339Nano),
		res.SourceLength, res.Transcript.DoctorTurns, res.Transcript.PatientTurns,
		res.Entities.Statistics.Total, res.SentimentIntent.Sentiment,
		res.SentimentIntent.Intent, degraded, string(data),
	)
	if err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE run_id = ?`, res.RunID); err != nil {
		return fmt.Errorf("deleting old entities: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entities (run_id, text, label, category, confidence) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing entity insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range res.Entities.AllEntities {
		if _, err := stmt.ExecContext(ctx, res.RunID, e.Text, e.Label, e.Category, e.Confidence); err != nil {
			return fmt.Errorf("inserting entity: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun loads one stored result by run identifier.
func (s *Store) GetRun(ctx context.Context, runID string) (*types.ConsolidatedResult, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT result_json FROM runs WHERE id = ?`, runID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	var res types.ConsolidatedResult
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, fmt.Errorf("unmarshaling result: %w", err)
	}
	return &res, nil
}

// RunInfo is one row of the run listing.
type RunInfo struct {
	RunID       string
	SourceFile  string
	ProcessedAt time.Time
	Entities    int
	Sentiment   string
	Intent      string
	Degraded    bool
}

// ListRuns returns stored runs, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_file, processed_at, entity_count, sentiment, intent, degraded
		 FROM runs ORDER BY processed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var info RunInfo
		var processedAt string
		var degraded int
		if err := rows.Scan(&info.RunID, &info.SourceFile, &processedAt,
			&info.Entities, &info.Sentiment, &info.Intent, &degraded); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		info.ProcessedAt, _ = time.Parse(time.RFC3339Nano, processedAt)
		info.Degraded = degraded != 0
		out = append(out, info)
	}
	return out, rows.Err()
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package history keeps a local ledger of scan runs and the seals of the
// reports they wrote.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"panhunt/internal/core"
	"panhunt/internal/resilience"

	_ "github.com/mattn/go-sqlite3"
)

const timeLayout = time.RFC3339Nano

// Run is one recorded scan.
type Run struct {
	ID           int64
	RunID        string
	Root         string
	Considered   int
	Searched     int
	MatchCount   int
	FailedCount  int
	Interrupted  bool
	StartedAt    time.Time
	FinishedAt   time.Time
	ReportPath   string
	ReportFormat string
	Seal         string
}

// NewRun fills the counters of a Run from a scan result.
func NewRun(runID string, result *core.ScanResult) Run {
	return Run{
		RunID:       runID,
		Root:        result.Root,
		Considered:  result.Considered,
		Searched:    result.Searched,
		MatchCount:  result.MatchCount,
		FailedCount: len(result.Failed),
		Interrupted: result.Interrupted,
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
	}
}

// Store manages the SQLite ledger.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the ledger at dbPath and applies pending
// migrations. ":memory:" opens a private in-memory ledger.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		err := resilience.Retry(ctx, resilience.DatabaseBackoff(), func(ctx context.Context) error {
			_, err := db.ExecContext(ctx, pragma)
			return err
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun stores run and sets its ID.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	query := `INSERT INTO scan_runs
		(run_id, root, considered, searched, match_count, failed_count, interrupted, started_at, finished_at, report_path, report_format, seal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := resilience.RetryValue(ctx, resilience.DatabaseBackoff(), func(ctx context.Context) (int64, error) {
		result, err := s.db.ExecContext(ctx, query,
			run.RunID,
			run.Root,
			run.Considered,
			run.Searched,
			run.MatchCount,
			run.FailedCount,
			run.Interrupted,
			run.StartedAt.UTC().Format(timeLayout),
			run.FinishedAt.UTC().Format(timeLayout),
			run.ReportPath,
			run.ReportFormat,
			run.Seal,
		)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	})
	if err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}
	run.ID = id
	return nil
}

const selectRun = `SELECT id, run_id, root, considered, searched, match_count, failed_count,
	interrupted, started_at, finished_at, report_path, report_format, seal FROM scan_runs`

// FindBySeal returns the run that wrote a report with the given seal, or
// nil when no recorded run did.
func (s *Store) FindBySeal(ctx context.Context, seal string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRun+` WHERE seal = ? ORDER BY id DESC LIMIT 1`, seal)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find run by seal: %w", err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var started, finished string
	err := row.Scan(&run.ID, &run.RunID, &run.Root, &run.Considered, &run.Searched, &run.MatchCount,
		&run.FailedCount, &run.Interrupted, &started, &finished, &run.ReportPath, &run.ReportFormat, &run.Seal)
	if err != nil {
		return nil, err
	}
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &run, nil
}

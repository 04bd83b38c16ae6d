// Package history records every monitoring run in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Run statuses stored in the runs table.
const (
	RunStatusCompleted   = "COMPLETED"
	RunStatusCancelled   = "CANCELLED"
	RunStatusStoreFailed = "STORE_FAILED"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

// DB wraps the SQL database connection holding run history.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// RunEntry is one row of the runs table.
type RunEntry struct {
	RunID            string
	StartedAt        time.Time
	FinishedAt       time.Time
	Status           string
	Total            int
	Changed          int
	Unchanged        int
	FirstObservation int
	Unreachable      int
	StoreError       sql.NullString
}

// ReportEntry is one row of the run_reports table.
type ReportEntry struct {
	RunID      string
	Position   int
	ResourceID string
	URL        string
	Status     models.Status
	Previous   sql.NullString
	Current    sql.NullString
	Error      sql.NullString
	Degraded   bool
	CheckedAt  time.Time
}

// NewDB opens (creating if needed) the history database and ensures the schema.
func NewDB(dataSourceName string, logger zerolog.Logger) (*DB, error) {
	logger = logger.With().Str("component", "HistoryDB").Logger()

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history database directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	dbInstance.SetMaxOpenConns(1)

	db := &DB{
		db:     dbInstance,
		logger: logger,
	}
	if err := db.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Debug().Str("path", dataSourceName).Msg("History database ready")
	return db, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// InitSchema creates the runs and run_reports tables if they don't already exist.
func (d *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		status TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		changed INTEGER NOT NULL DEFAULT 0,
		unchanged INTEGER NOT NULL DEFAULT 0,
		first_observation INTEGER NOT NULL DEFAULT 0,
		unreachable INTEGER NOT NULL DEFAULT 0,
		store_error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE TABLE IF NOT EXISTS run_reports (
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		resource_id TEXT NOT NULL,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		previous_fingerprint TEXT,
		current_fingerprint TEXT,
		error TEXT,
		degraded INTEGER NOT NULL DEFAULT 0,
		checked_at INTEGER NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`
	if _, err := d.db.Exec(query); err != nil {
		d.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}

// RunStatus derives the stored status of a run.
func RunStatus(result *models.RunResult) string {
	switch {
	case result.StoreError != "":
		return RunStatusStoreFailed
	case result.Cancelled:
		return RunStatusCancelled
	default:
		return RunStatusCompleted
	}
}

// RecordRun stores a run and its reports in one transaction.
func (d *DB) RecordRun(ctx context.Context, result *models.RunResult) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	counts := result.Counts()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, status, total, changed, unchanged, first_observation, unreachable, store_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.StartedAt.UnixMilli(),
		result.FinishedAt.UnixMilli(),
		RunStatus(result),
		len(result.Reports),
		counts[models.StatusChanged],
		counts[models.StatusUnchanged],
		counts[models.StatusFirstObservation],
		counts[models.StatusUnreachable],
		nullString(result.StoreError),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", result.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_reports (run_id, position, resource_id, url, status, previous_fingerprint, current_fingerprint, error, degraded, checked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare report insert: %w", err)
	}
	defer stmt.Close()

	for i, rep := range result.Reports {
		var prev, cur sql.NullString
		if rep.Previous != nil {
			prev = nullString(rep.Previous.String())
		}
		if rep.Current != nil {
			cur = nullString(rep.Current.String())
		}
		if _, err = stmt.ExecContext(ctx,
			result.RunID, i, rep.ID, rep.URL, string(rep.Status),
			prev, cur, nullString(rep.Error), rep.Degraded, rep.CheckedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("failed to insert report %s: %w", rep.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", result.RunID, err)
	}
	d.logger.Debug().Str("run_id", result.RunID).Int("reports", len(result.Reports)).Msg("Run recorded")
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, status, total, changed, unchanged, first_observation, unreachable, store_error
		 FROM runs ORDER BY started_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		var started, finished int64
		if err := rows.Scan(&e.RunID, &started, &finished, &e.Status, &e.Total, &e.Changed,
			&e.Unchanged, &e.FirstObservation, &e.Unreachable, &e.StoreError); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		e.StartedAt = time.UnixMilli(started)
		e.FinishedAt = time.UnixMilli(finished)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetRun returns one run by ID.
func (d *DB) GetRun(ctx context.Context, runID string) (*RunEntry, error) {
	var e RunEntry
	var started, finished int64
	err := d.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, finished_at, status, total, changed, unchanged, first_observation, unreachable, store_error
		 FROM runs WHERE run_id = ?`, runID).
		Scan(&e.RunID, &started, &finished, &e.Status, &e.Total, &e.Changed,
			&e.Unchanged, &e.FirstObservation, &e.Unreachable, &e.StoreError)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	e.StartedAt = time.UnixMilli(started)
	e.FinishedAt = time.UnixMilli(finished)
	return &e, nil
}

// GetRunReports returns the reports of one run in their original order.
func (d *DB) GetRunReports(ctx context.Context, runID string) ([]ReportEntry, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT run_id, position, resource_id, url, status, previous_fingerprint, current_fingerprint, error, degraded, checked_at
		 FROM run_reports WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports for run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []ReportEntry
	for rows.Next() {
		var e ReportEntry
		var status string
		var checked int64
		if err := rows.Scan(&e.RunID, &e.Position, &e.ResourceID, &e.URL, &status,
			&e.Previous, &e.Current, &e.Error, &e.Degraded, &checked); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		e.Status = models.Status(status)
		e.CheckedAt = time.UnixMilli(checked)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"soundunpack/internal/convert"
)

// Run status values stored in runs.status.
const (
	RunRunning     = "Running"
	RunDone        = "Done"
	RunInterrupted = "Interrupted"
	RunFailed      = "Failed"
)

// RunInfo describes a run being started.
type RunInfo struct {
	Mode           string
	SourceDir      string
	DestinationDir string
}

// Run is one row of the runs table.
type Run struct {
	ID             string
	Mode           string
	SourceDir      string
	DestinationDir string
	Status         string
	StartedAt      time.Time
	FinishedAt     time.Time
	Total          int
	Converted      int
	Skipped        int
	Errored        int
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// StartRun inserts a run in the Running state and returns its identifier.
// An empty id generates one.
func (s *Store) StartRun(ctx context.Context, id string, info RunInfo) (string, error) {
	if id == "" {
		id = NewRunID()
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", id, err)
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, mode, source_dir, destination_dir, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id, info.Mode, info.SourceDir, info.DestinationDir, RunRunning, s.timestamp(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// RecordResult appends one conversion outcome to the run.
func (s *Store) RecordResult(ctx context.Context, runID string, result convert.Result) error {
	var message string
	if result.Err != nil {
		message = result.Err.Error()
	}
	_, err := s.exec(ctx,
		`INSERT INTO assets (run_id, destination, source, archive, outcome, error_message, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		result.Destination,
		result.Source,
		result.Archive,
		result.Outcome.String(),
		nullableString(message),
		s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// FinishRun stores the totals and final status of a run.
func (s *Store) FinishRun(ctx context.Context, runID, status string, summary convert.Summary) error {
	res, err := s.exec(ctx,
		`UPDATE runs
         SET status = ?, finished_at = ?, total = ?, converted = ?, skipped = ?, errored = ?
         WHERE id = ?`,
		status,
		s.timestamp(),
		summary.Total,
		summary.Converted,
		summary.Skipped,
		summary.Errored,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: run %s not found", runID)
	}
	return nil
}

const runColumns = "id, mode, source_dir, destination_dir, status, started_at, finished_at, total, converted, skipped, errored"

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run         Run
		startedRaw  sql.NullString
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Mode,
		&run.SourceDir,
		&run.DestinationDir,
		&run.Status,
		&startedRaw,
		&finishedRaw,
		&run.Total,
		&run.Converted,
		&run.Skipped,
		&run.Errored,
	); err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	return run, nil
}

// GetRun fetches a run by identifier. A missing run returns nil.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// RecentRuns lists up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

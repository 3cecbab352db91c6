package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Status is the terminal state of a job run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// PlatformResult is one platform's outcome within a run.
type PlatformResult struct {
	Platform string
	Outcome  string
	RemoteID string
	Link     string
	Error    string
}

// Run is one job execution including all of its retry attempts.
type Run struct {
	ID         string
	Slot       string
	JobIndex   int
	Title      string
	Account    string
	Attempts   int
	Status     Status
	Error      string
	Artifact   string
	Retained   bool
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []PlatformResult
}

// Duration returns the wall time the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RecordRun stores run and its platform results. Recording the same run id
// again replaces the earlier row.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("record run: missing run id")
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO job_runs
			(run_id, slot, job_index, title, account, attempts, status, error, artifact, retained, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Slot, run.JobIndex, run.Title, run.Account, run.Attempts,
			string(run.Status), run.Error, run.Artifact, boolToInt(run.Retained),
			run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		); err != nil {
			return fmt.Errorf("insert job run: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM publish_results WHERE run_id = ?", run.ID); err != nil {
			return fmt.Errorf("clear publish results: %w", err)
		}
		for _, res := range run.Results {
			if _, err := tx.ExecContext(ctx, `INSERT INTO publish_results
				(run_id, platform, outcome, remote_id, link, error) VALUES (?, ?, ?, ?, ?, ?)`,
				run.ID, res.Platform, res.Outcome, res.RemoteID, res.Link, res.Error,
			); err != nil {
				return fmt.Errorf("insert publish result %s: %w", res.Platform, err)
			}
		}
		return tx.Commit()
	})
}

// Recent returns up to limit runs, newest first, with their results.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, slot, job_index, title, account, attempts,
		status, error, artifact, retained, started_at, finished_at
		FROM job_runs ORDER BY finished_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	index := make(map[string]int)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		index[run.ID] = len(runs)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}
	if err := s.attachResults(ctx, runs, index); err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) attachResults(ctx context.Context, runs []Run, index map[string]int) error {
	ids := make([]any, len(runs))
	for i, run := range runs {
		ids[i] = run.ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, platform, outcome, remote_id, link, error
		FROM publish_results WHERE run_id IN (`+placeholders+`) ORDER BY run_id, rowid`, ids...)
	if err != nil {
		return fmt.Errorf("query publish results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var runID string
		var res PlatformResult
		if err := rows.Scan(&runID, &res.Platform, &res.Outcome, &res.RemoteID, &res.Link, &res.Error); err != nil {
			return fmt.Errorf("scan publish result: %w", err)
		}
		if i, ok := index[runID]; ok {
			runs[i].Results = append(runs[i].Results, res)
		}
	}
	return rows.Err()
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run               Run
		status            string
		retained          int
		started, finished string
	)
	if err := rows.Scan(&run.ID, &run.Slot, &run.JobIndex, &run.Title, &run.Account, &run.Attempts,
		&status, &run.Error, &run.Artifact, &retained, &started, &finished); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = Status(status)
	run.Retained = retained != 0
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	return run, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

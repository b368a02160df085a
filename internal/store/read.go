package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/crowdreplay/internal/engine"
)

// Run is a stored run.
type Run struct {
	RunMeta
	Seq         int64
	Records     int
	Fingerprint string
	Status      RunStatus
}

const runColumns = `id, seq, subject, trial, time_step, tick_budget, sample_interval,
	agent_count, config, record_count, fingerprint, status`

// GetRun returns the run with the given ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// RunFilter selects runs by experiment. Nil fields match every run.
type RunFilter struct {
	Subject *int
	Trial   *int
}

// ListRuns returns the runs matching f ordered by seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no run matches.
func (s *Store) ListRuns(ctx context.Context, f RunFilter) ([]Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE 1 = 1`
	var args []any
	if f.Subject != nil {
		query += " AND subject = ?"
		args = append(args, *f.Subject)
	}
	if f.Trial != nil {
		query += " AND trial = ?"
		args = append(args, *f.Trial)
	}
	query += `
		ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRecords returns the records of a run ordered by step ASC, agent_id ASC.
//
// Returns an empty slice (not nil) if the run has no records.
func (s *Store) ReadRecords(ctx context.Context, runID string) ([]engine.TickRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, agent_id, x, y, vx, vy, speed
		FROM tick_records
		WHERE run_id = ?
		ORDER BY step ASC, agent_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	recs := []engine.TickRecord{}
	for rows.Next() {
		var (
			r            engine.TickRecord
			x, y, vx, vy float64
		)
		if err := rows.Scan(&r.Step, &r.AgentID, &x, &y, &vx, &vy, &r.Speed); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Position = mgl64.Vec2{x, y}
		r.Velocity = mgl64.Vec2{vx, vy}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return recs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run    Run
		config string
		status string
	)
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.Subject,
		&run.Trial,
		&run.TimeStep,
		&run.TickBudget,
		&run.SampleInterval,
		&run.AgentCount,
		&config,
		&run.Records,
		&run.Fingerprint,
		&status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Config = json.RawMessage(config)
	run.Status = RunStatus(status)
	return run, nil
}

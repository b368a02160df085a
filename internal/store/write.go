package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/crowdreplay/internal/engine"
)

// RunStatus is the lifecycle state of a stored run.
type RunStatus string

const (
	StatusPending  RunStatus = "pending"
	StatusComplete RunStatus = "complete"
	StatusFailed   RunStatus = "failed"
)

// RunMeta describes a run at the moment it starts.
type RunMeta struct {
	ID             string
	Subject        int
	Trial          int
	TimeStep       float64
	TickBudget     int
	SampleInterval int
	AgentCount     int

	// Config is the experiment configuration as a JSON document. It must be
	// enough to reproduce the run.
	Config json.RawMessage
}

// ErrRunClosed is returned by RunWriter methods after Commit, Fail or
// Rollback.
var ErrRunClosed = errors.New("store: run writer already closed")

// RunWriter writes the records of one run inside a single transaction.
// It implements engine.Recorder and is not safe for concurrent use.
type RunWriter struct {
	id      string
	tx      *sql.Tx
	insert  *sql.Stmt
	records int
}

var _ engine.Recorder = (*RunWriter)(nil)

// BeginRun inserts a pending run and returns a writer for its records.
// The run becomes visible to readers when the writer commits or fails.
func (s *Store) BeginRun(ctx context.Context, meta RunMeta) (*RunWriter, error) {
	if meta.ID == "" {
		return nil, fmt.Errorf("begin run: empty run id")
	}
	cfg := meta.Config
	if len(cfg) == 0 {
		cfg = json.RawMessage("{}")
	}
	if !json.Valid(cfg) {
		return nil, fmt.Errorf("begin run %s: config is not valid JSON", meta.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin run %s: %w", meta.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, subject, trial, time_step, tick_budget, sample_interval, agent_count, config, status)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		meta.ID,
		meta.Subject,
		meta.Trial,
		meta.TimeStep,
		meta.TickBudget,
		meta.SampleInterval,
		meta.AgentCount,
		string(cfg),
		string(StatusPending),
	)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("begin run %s: %w", meta.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tick_records (run_id, step, agent_id, x, y, vx, vy, speed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("prepare record insert: %w", err)
	}

	return &RunWriter{id: meta.ID, tx: tx, insert: stmt}, nil
}

// ID returns the run ID.
func (w *RunWriter) ID() string { return w.id }

// Records returns the number of records written.
func (w *RunWriter) Records() int { return w.records }

// Record inserts one tick record.
func (w *RunWriter) Record(ctx context.Context, rec engine.TickRecord) error {
	if w.tx == nil {
		return ErrRunClosed
	}
	_, err := w.insert.ExecContext(ctx,
		w.id,
		rec.Step,
		rec.AgentID,
		rec.Position.X(),
		rec.Position.Y(),
		rec.Velocity.X(),
		rec.Velocity.Y(),
		rec.Speed,
	)
	if err != nil {
		return fmt.Errorf("write record step=%d agent=%d: %w", rec.Step, rec.AgentID, err)
	}
	w.records++
	return nil
}

// Commit marks the run complete with the given fingerprint and commits.
func (w *RunWriter) Commit(ctx context.Context, fingerprint string) error {
	return w.finish(ctx, StatusComplete, fingerprint)
}

// Fail keeps the records written so far, marks the run failed and commits.
func (w *RunWriter) Fail(ctx context.Context) error {
	return w.finish(ctx, StatusFailed, "")
}

func (w *RunWriter) finish(ctx context.Context, status RunStatus, fingerprint string) error {
	if w.tx == nil {
		return ErrRunClosed
	}
	tx := w.tx
	w.tx = nil
	w.insert.Close()

	_, err := tx.ExecContext(ctx, `
		UPDATE runs SET status = ?, fingerprint = ?, record_count = ?
		WHERE id = ?
	`, string(status), fingerprint, w.records, w.id)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("finish run %s: %w", w.id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", w.id, err)
	}
	return nil
}

// Rollback discards the run. It is a no-op after Commit or Fail, so it can
// be deferred unconditionally.
func (w *RunWriter) Rollback() error {
	if w.tx == nil {
		return nil
	}
	tx := w.tx
	w.tx = nil
	w.insert.Close()
	return tx.Rollback()
}

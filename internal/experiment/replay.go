package experiment

import (
	"context"
	"fmt"

	"github.com/roach88/crowdreplay/internal/config"
	"github.com/roach88/crowdreplay/internal/store"
)

// ReplayResult compares a stored run with a fresh run of the same
// configuration.
type ReplayResult struct {
	RunID    string `json:"run_id"`
	Expected string `json:"expected_fingerprint"`
	Actual   string `json:"actual_fingerprint"`
	Records  int    `json:"records"`
	Stored   int    `json:"stored_records"`
	Match    bool   `json:"match"`
}

// Replay re-runs the stored run runID from its configuration snapshot,
// without writing any output, and compares the record fingerprints.
//
// Only complete runs can be replayed; a failed or pending run has no
// fingerprint to compare against.
func Replay(ctx context.Context, st *store.Store, runID string) (*ReplayResult, error) {
	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != store.StatusComplete {
		return nil, fmt.Errorf("run %s is %s, only complete runs can be replayed", runID, run.Status)
	}

	cfg, err := config.FromJSON(run.Config)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	sum, err := Run(ctx, cfg, Options{IDs: NewFixedGenerator(runID)})
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", runID, err)
	}

	return &ReplayResult{
		RunID:    runID,
		Expected: run.Fingerprint,
		Actual:   sum.Fingerprint,
		Records:  sum.Stats.Records,
		Stored:   run.Records,
		Match:    sum.Fingerprint == run.Fingerprint && sum.Stats.Records == run.Records,
	}, nil
}

// ReplayAll replays every complete run in st matching f, in store order. Runs that are
// not complete are skipped.
func ReplayAll(ctx context.Context, st *store.Store, f store.RunFilter) ([]ReplayResult, error) {
	runs, err := st.ListRuns(ctx, f)
	if err != nil {
		return nil, err
	}

	results := []ReplayResult{}
	for _, run := range runs {
		if run.Status != store.StatusComplete {
			continue
		}
		res, err := Replay(ctx, st, run.ID)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

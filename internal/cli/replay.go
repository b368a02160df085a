package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/crowdreplay/internal/experiment"
	"github.com/roach88/crowdreplay/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
	Subject  int
	Trial    int
}

// ReplaySummary holds the overall replay result.
type ReplaySummary struct {
	Runs             []experiment.ReplayResult `json:"runs"`
	TotalRuns        int                       `json:"total_runs"`
	AllDeterministic bool                      `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run stored runs and verify determinism",
		Long: `Re-run stored simulation runs from their configuration snapshots and
compare the fingerprint of the fresh record stream with the stored one.

Only complete runs are replayed. No output is written.

Exit codes:
  0 - All runs reproduced exactly
  1 - Determinism verification failed (fingerprint or record count differs)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  crowdreplay replay --db ./runs.db
  crowdreplay replay --db ./runs.db --run 01927c5e-...
  crowdreplay replay --db ./runs.db --subject 10
  crowdreplay replay --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")
	addRunFilterFlags(cmd, &opts.Subject, &opts.Trial)

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	var results []experiment.ReplayResult
	if opts.RunID != "" {
		res, err := experiment.Replay(ctx, st, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, "replay failed", err)
		}
		results = []experiment.ReplayResult{*res}
	} else {
		results, err = experiment.ReplayAll(ctx, st, runFilter(cmd, opts.Subject, opts.Trial))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, "replay failed", err)
		}
	}

	summary := ReplaySummary{
		Runs:             results,
		TotalRuns:        len(results),
		AllDeterministic: true,
	}
	for _, r := range results {
		formatter.VerboseLog("replayed %s: expected %s, got %s", r.RunID, r.Expected, r.Actual)
		if !r.Match {
			summary.AllDeterministic = false
		}
	}

	if formatter.IsJSON() {
		resp := CLIResponse{Status: "ok", Data: summary}
		if !summary.AllDeterministic {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeDeterminism, Message: "determinism verification failed"}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		writeReplayText(formatter.Writer, summary)
	}

	if !summary.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func writeReplayText(w io.Writer, summary ReplaySummary) {
	if summary.TotalRuns == 0 {
		fmt.Fprintln(w, "No complete runs found in database.")
		return
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", summary.TotalRuns)
	fmt.Fprintln(w)

	for _, r := range summary.Runs {
		status := "✓"
		if !r.Match {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s\n", status, r.RunID)
		fmt.Fprintf(w, "  Records: %d (stored %d)\n", r.Records, r.Stored)
		fmt.Fprintf(w, "  Fingerprint: %s (stored %s)\n", r.Actual, r.Expected)
		if !r.Match {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		fmt.Fprintln(w)
	}

	if summary.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return
	}
	fmt.Fprintln(w, "✗ Determinism verification failed")
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/crowdreplay/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	Subject  int
	Trial    int
}

// RunListing is one row of the runs command output.
type RunListing struct {
	ID          string  `json:"id"`
	Seq         int64   `json:"seq"`
	Subject     int     `json:"subject"`
	Trial       int     `json:"trial"`
	TimeStep    float64 `json:"time_step"`
	TickBudget  int     `json:"tick_budget"`
	Agents      int     `json:"agents"`
	Records     int     `json:"records"`
	Status      string  `json:"status"`
	Fingerprint string  `json:"fingerprint,omitempty"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Long: `List the runs stored in a database, oldest first.

Examples:
  crowdreplay runs --db ./runs.db
  crowdreplay runs --db ./runs.db --subject 10 --trial 76
  crowdreplay runs --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	addRunFilterFlags(cmd, &opts.Subject, &opts.Trial)

	return cmd
}

// addRunFilterFlags registers --subject and --trial.
func addRunFilterFlags(cmd *cobra.Command, subject, trial *int) {
	cmd.Flags().IntVar(subject, "subject", 0, "only runs of this subject")
	cmd.Flags().IntVar(trial, "trial", 0, "only runs of this trial")
}

// runFilter builds a store filter from the --subject and --trial flags that
// were set on the command line.
func runFilter(cmd *cobra.Command, subject, trial int) store.RunFilter {
	var f store.RunFilter
	if cmd.Flags().Changed("subject") {
		f.Subject = lo.ToPtr(subject)
	}
	if cmd.Flags().Changed("trial") {
		f.Trial = lo.ToPtr(trial)
	}
	return f
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
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

	runs, err := st.ListRuns(ctx, runFilter(cmd, opts.Subject, opts.Trial))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to list runs", err)
	}

	listing := make([]RunListing, len(runs))
	for i, r := range runs {
		listing[i] = RunListing{
			ID:          r.ID,
			Seq:         r.Seq,
			Subject:     r.Subject,
			Trial:       r.Trial,
			TimeStep:    r.TimeStep,
			TickBudget:  r.TickBudget,
			Agents:      r.AgentCount,
			Records:     r.Records,
			Status:      string(r.Status),
			Fingerprint: r.Fingerprint,
		}
	}

	return formatter.Success(listing, func(w io.Writer) {
		writeRunsText(w, listing)
	})
}

func writeRunsText(w io.Writer, runs []RunListing) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tSUBJECT\tTRIAL\tSTEPS\tAGENTS\tRECORDS\tSTATUS\tFINGERPRINT")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.Seq, r.ID, r.Subject, r.Trial, r.TickBudget, r.Agents, r.Records, r.Status, r.Fingerprint)
	}
	tw.Flush()
}

// openExistingStore opens the database at path, refusing to create a new
// one so a mistyped path is reported instead of silently listing nothing.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return store.Open(path)
}

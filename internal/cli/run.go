package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/crowdreplay/internal/config"
	"github.com/roach88/crowdreplay/internal/engine"
	"github.com/roach88/crowdreplay/internal/experiment"
	"github.com/roach88/crowdreplay/internal/store"
)

// DefaultOutputPath is the CSV file written by run unless --out says otherwise.
const DefaultOutputPath = "simulation_output.csv"

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath  string
	OutputPath  string
	Database    string
	SampleEvery int
	MaxSteps    int
	Avatars     int

	// IDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs experiment.RunIDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [data-path]",
		Short: "Run a simulation and record agent state",
		Long: `Run one experiment: register the participant, avatars and goals with the
ORCA simulator, drive it tick by tick from their trajectories, and record the
position, velocity and speed of every agent at sampled ticks.

When data-path is given, trajectories are read from <data-path>/<label>.csv;
agents without usable data fall back to synthetic trajectories with a warning.

Flags override values from --config.

Examples:
  crowdreplay run
  crowdreplay run ./recordings --config experiment.yaml --db runs.db
  crowdreplay run --avatars 1 --max-steps 500 --sample-every 10 --out out.csv
  crowdreplay run --out - > out.csv`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "experiment config file (.yaml, .yml, .cue, .json)")
	cmd.Flags().StringVarP(&opts.OutputPath, "out", "o", DefaultOutputPath, "CSV output file, - for stdout (empty to disable)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to store the run in")
	cmd.Flags().IntVar(&opts.SampleEvery, "sample-every", engine.DefaultSampleInterval, "record state every N ticks")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "trajectory length in ticks; also caps recordings (synthetic default 500)")
	cmd.Flags().IntVar(&opts.Avatars, "avatars", 0, "number of avatars")

	return cmd
}

// resolveConfig loads --config (or the defaults) and applies flag overrides.
func resolveConfig(opts *RunOptions, args []string, cmd *cobra.Command) (config.Experiment, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return config.Experiment{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("sample-every") {
		cfg.SampleInterval = opts.SampleEvery
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = lo.ToPtr(opts.MaxSteps)
	}
	if flags.Changed("avatars") {
		cfg.Avatars = opts.Avatars
	}
	if len(args) > 0 {
		cfg.DataPath = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return config.Experiment{}, err
	}
	return cfg, nil
}

func runSimulation(opts *RunOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	runOpts := experiment.Options{
		OutputPath: opts.OutputPath,
		IDs:        opts.IDs,
		Progress: func(tick, budget int) {
			formatter.VerboseLog("tick %d/%d", tick, budget)
		},
	}
	// "-" streams the CSV to stdout, so the report moves to stderr.
	if opts.OutputPath == "-" {
		runOpts.OutputPath = ""
		runOpts.Output = cmd.OutOrStdout()
		formatter.Writer = cmd.ErrOrStderr()
	}

	cfg, err := resolveConfig(opts, args, cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	if opts.Database != "" {
		slog.Info("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		runOpts.Store = st
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := experiment.Run(ctx, cfg, runOpts)
	if err != nil {
		code := ErrCodeGeneric
		if c, ok := engine.CodeOf(err); ok {
			code = string(c)
		}
		return formatter.Fail(ExitFailure, code, "simulation failed", err)
	}

	return formatter.Success(sum, func(w io.Writer) {
		writeSummary(w, sum)
	})
}

// writeSummary prints the registration report and run statistics.
func writeSummary(w io.Writer, sum *experiment.Summary) {
	cfg := sum.Config
	b := cfg.Bounds

	fmt.Fprintln(w, "Simulation Statistics")
	fmt.Fprintf(w, "  Run:          %s\n", sum.RunID)
	fmt.Fprintf(w, "  Subject:      %d\n", cfg.Subject)
	fmt.Fprintf(w, "  Trial:        %d\n", cfg.Trial)
	fmt.Fprintf(w, "  Time step:    %.6f s\n", cfg.Simulation.TimeStep)
	fmt.Fprintf(w, "  Total steps:  %d\n", sum.TickBudget)
	fmt.Fprintf(w, "  Total agents: %d\n", len(sum.Agents))
	fmt.Fprintf(w, "  Bounds:       x [%g, %g], y [%g, %g]\n", b.MinX, b.MaxX, b.MinY, b.MaxY)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Agents")
	for _, a := range sum.Agents {
		fmt.Fprintf(w, "  %-12s %-11s handle=%-3d (%.3f, %.3f)\n", a.Label, a.Role, a.Handle, a.X, a.Y)
	}
	if len(sum.Skipped) > 0 {
		fmt.Fprintf(w, "  skipped (empty trajectory): %s\n", strings.Join(sum.Skipped, ", "))
	}
	if len(sum.Degraded) > 0 {
		fmt.Fprintf(w, "  synthetic fallback: %s\n", strings.Join(sum.Degraded, ", "))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Records:      %d (%d samples, %d ticks)\n", sum.Stats.Records, sum.Stats.Samples, sum.Stats.Ticks)
	fmt.Fprintf(w, "Fingerprint:  %s\n", sum.Fingerprint)
	if sum.OutputPath != "" {
		fmt.Fprintf(w, "Output:       %s\n", sum.OutputPath)
	}
}

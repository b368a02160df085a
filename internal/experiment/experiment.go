package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/crowdreplay/internal/config"
	"github.com/roach88/crowdreplay/internal/engine"
	"github.com/roach88/crowdreplay/internal/orca"
	"github.com/roach88/crowdreplay/internal/recorder"
	"github.com/roach88/crowdreplay/internal/store"
	"github.com/roach88/crowdreplay/internal/trajectory"
)

// Options controls where a run's records go.
type Options struct {
	// OutputPath is the CSV file to write. Empty disables CSV output.
	OutputPath string

	// Output receives the CSV stream instead of OutputPath when non-nil.
	// It is flushed but not closed.
	Output io.Writer

	// Store receives the run and its records when non-nil.
	Store *store.Store

	// IDs generates the run ID. Defaults to UUIDv7Generator.
	IDs RunIDGenerator

	// Progress is called at every sampled tick.
	Progress func(tick, budget int)
}

// Summary describes a finished run.
type Summary struct {
	RunID        string                    `json:"run_id"`
	Config       config.Experiment         `json:"config"`
	Registration engine.RegistrationReport `json:"-"`
	Agents       []AgentSummary            `json:"agents"`
	Skipped      []string                  `json:"skipped,omitempty"`
	Degraded     []string                  `json:"degraded,omitempty"`
	TickBudget   int                       `json:"tick_budget"`
	Stats        engine.RunStats           `json:"stats"`
	Fingerprint  string                    `json:"fingerprint"`
	OutputPath   string                    `json:"output_path,omitempty"`
}

// AgentSummary is one registered agent.
type AgentSummary struct {
	Label  string  `json:"label"`
	Role   string  `json:"role"`
	Handle int     `json:"handle"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// NewSource returns the trajectory source for cfg: the synthetic generator,
// or, when DataPath is set, CSV files from DataPath falling back to the
// synthetic generator per agent. Recordings are truncated only when
// max_steps is set. The fallback is returned so callers can
// report degraded agents; it is nil without DataPath.
func NewSource(cfg config.Experiment) (trajectory.Source, *trajectory.Fallback) {
	dt := cfg.Simulation.TimeStep
	synth := trajectory.NewSynthetic(cfg.TrajectoryBounds(), dt, cfg.Steps())
	if cfg.DataPath == "" {
		return synth, nil
	}
	fb := trajectory.NewFallback(trajectory.NewCSVLoader(cfg.DataPath, dt, cfg.RecordingLimit()), synth)
	return fb, fb
}

// Run executes the experiment described by cfg.
//
// Errors from the driver are returned unchanged, so callers can inspect them
// with the engine.IsXxx helpers. Failing to open or close an output is an
// engine OUTPUT_WRITE_FAILURE.
func Run(ctx context.Context, cfg config.Experiment, opts Options) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment: %w", err)
	}
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}

	source, fallback := NewSource(cfg)
	sim := orca.New(orca.WithCapacity(cfg.AgentCount()))
	driver := engine.New(sim, cfg.Params(),
		engine.WithSampleInterval(cfg.SampleInterval),
		engine.WithProgress(opts.Progress),
	)

	report, err := driver.Setup(ctx, engine.Population{
		Source:  source,
		Avatars: cfg.Avatars,
		Goals:   cfg.GoalPositions(),
	})
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		RunID:        ids.Generate(),
		Config:       cfg,
		Registration: report,
		Agents:       summarizeAgents(report.Agents),
		Skipped:      report.Skipped,
		TickBudget:   report.TickBudget,
		OutputPath:   opts.OutputPath,
	}
	if fallback != nil {
		sum.Degraded = fallback.Degraded()
	}

	fp := recorder.NewFingerprint()
	sinks := []engine.Recorder{fp}

	out, err := openOutput(opts)
	if err != nil {
		return nil, engine.NewOutputWriteError(-1, err)
	}
	if out != nil {
		// Closes the output on early returns; a no-op once closed below.
		defer out.Close()
		sinks = append(sinks, out)
	}

	var writer *store.RunWriter
	if opts.Store != nil {
		snapshot, err := cfg.MarshalSnapshot()
		if err != nil {
			return nil, fmt.Errorf("snapshot config: %w", err)
		}
		writer, err = opts.Store.BeginRun(ctx, store.RunMeta{
			ID:             sum.RunID,
			Subject:        cfg.Subject,
			Trial:          cfg.Trial,
			TimeStep:       cfg.Simulation.TimeStep,
			TickBudget:     report.TickBudget,
			SampleInterval: cfg.SampleInterval,
			AgentCount:     len(report.Agents),
			Config:         snapshot,
		})
		if err != nil {
			return nil, engine.NewOutputWriteError(-1, err)
		}
		defer writer.Rollback()
		sinks = append(sinks, writer)
	}

	slog.Info("simulation starting",
		"run", sum.RunID,
		"subject", cfg.Subject,
		"trial", cfg.Trial,
		"agents", len(report.Agents),
		"tick_budget", report.TickBudget,
	)

	stats, runErr := driver.Run(ctx, report.TickBudget, recorder.Tee(sinks...))
	sum.Stats = stats
	sum.Fingerprint = fp.String()

	// The CSV must be complete before the stored run can be marked complete.
	if out != nil {
		if cerr := out.Close(); cerr != nil {
			runErr = errors.Join(runErr, engine.NewOutputWriteError(driver.CurrentTick(), cerr))
		}
	}

	if writer != nil {
		// The run's rows are kept even when the caller's context is done.
		wctx := context.WithoutCancel(ctx)
		var werr error
		if runErr != nil {
			werr = writer.Fail(wctx)
		} else {
			werr = writer.Commit(wctx, sum.Fingerprint)
		}
		if werr != nil {
			runErr = errors.Join(runErr, engine.NewOutputWriteError(driver.CurrentTick(), werr))
		}
	}

	if runErr != nil {
		slog.Error("simulation failed", "run", sum.RunID, "tick", driver.CurrentTick(), "error", runErr)
		return nil, runErr
	}

	slog.Info("simulation complete",
		"run", sum.RunID,
		"ticks", stats.Ticks,
		"simulated_seconds", sim.GlobalTime(),
		"records", stats.Records,
		"fingerprint", sum.Fingerprint,
	)
	return sum, nil
}

// openOutput opens the CSV sink selected by opts, or returns nil when CSV
// output is disabled.
func openOutput(opts Options) (*recorder.CSV, error) {
	switch {
	case opts.Output != nil:
		return recorder.NewCSV(opts.Output)
	case opts.OutputPath != "":
		return recorder.CreateCSV(opts.OutputPath)
	}
	return nil, nil
}

func summarizeAgents(agents []engine.RegisteredAgent) []AgentSummary {
	out := make([]AgentSummary, len(agents))
	for i, a := range agents {
		out[i] = AgentSummary{
			Label:  a.Label,
			Role:   a.Role.String(),
			Handle: a.Handle,
			X:      a.Position.X(),
			Y:      a.Position.Y(),
		}
	}
	return out
}

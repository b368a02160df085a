package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"

	"github.com/roach88/crowdreplay/internal/trajectory"
)

// DefaultSampleInterval is the default number of ticks between samples.
const DefaultSampleInterval = 10

// Driver is the single-threaded simulation driver.
//
// State (tick clock, tick budget, roster, oracle) is owned by one Driver and
// discarded with it; several drivers may run independently in one process.
type Driver struct {
	oracle         Oracle
	params         Params
	sampleInterval int
	progress       func(tick, budget int)

	clock      *Clock
	roster     *Roster // nil until Setup succeeds
	tickBudget int
}

// Option configures a Driver.
type Option func(*Driver)

// WithSampleInterval records agent state every n ticks.
//
// Default: 10 (DefaultSampleInterval). Values below 1 sample every tick.
func WithSampleInterval(n int) Option {
	return func(d *Driver) {
		d.sampleInterval = max(n, 1)
	}
}

// WithProgress installs a callback invoked at every sampled tick, before the
// tick's records are emitted.
func WithProgress(fn func(tick, budget int)) Option {
	return func(d *Driver) {
		d.progress = fn
	}
}

// New creates a Driver for oracle using params.
func New(oracle Oracle, params Params, opts ...Option) *Driver {
	d := &Driver{
		oracle:         oracle,
		params:         params,
		sampleInterval: DefaultSampleInterval,
		clock:          NewClock(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Population describes the agents of an experiment.
type Population struct {
	// Source yields the participant's and avatars' trajectories.
	Source trajectory.Source

	// Avatars is the number of avatars, requested as ordinals 1..Avatars.
	Avatars int

	// Goals are the fixed positions of static goal markers.
	Goals []mgl64.Vec2
}

// RegisteredAgent describes one agent registered during Setup.
type RegisteredAgent struct {
	Label    string
	Role     trajectory.Role
	Handle   int
	Position mgl64.Vec2
	Samples  int // trajectory length, 0 for goals
}

// RegistrationReport summarizes Setup.
type RegistrationReport struct {
	Agents     []RegisteredAgent // ascending handle order
	Skipped    []string          // labels whose trajectory was empty
	TickBudget int
}

// Setup configures the oracle and registers every agent.
//
// Registration order is participant, avatars 1..N, then goals. Moving agents
// start at their trajectory's tick-0 position; an agent whose trajectory is
// empty has no start position and is skipped with a warning. Goals are
// registered at their fixed position and pinned to max speed 0.
//
// Trajectory source errors and oracle rejections abort Setup, leaving the
// driver uninitialized.
func (d *Driver) Setup(ctx context.Context, pop Population) (RegistrationReport, error) {
	if d.roster != nil {
		return RegistrationReport{}, &Error{
			Code:    ErrCodeAlreadyInitialized,
			Message: "setup called twice",
			Tick:    -1,
		}
	}
	if err := ctx.Err(); err != nil {
		return RegistrationReport{}, err
	}
	if err := d.oracle.Configure(d.params); err != nil {
		return RegistrationReport{}, NewRegistrationError("", "oracle rejected configuration", err)
	}

	ids := make([]trajectory.Identity, 0, 1+pop.Avatars)
	ids = append(ids, trajectory.Participant())
	for n := 1; n <= pop.Avatars; n++ {
		ids = append(ids, trajectory.Avatar(n))
	}

	roster := newRoster()
	var report RegistrationReport

	for _, id := range ids {
		tr, err := pop.Source.Generate(id)
		if err != nil {
			return RegistrationReport{}, fmt.Errorf("trajectory for %s: %w", id.Label(), err)
		}
		start, ok := tr.Start()
		if !ok {
			slog.Warn("skipping agent with empty trajectory", "agent", id.Label())
			report.Skipped = append(report.Skipped, id.Label())
			continue
		}
		b, err := d.register(roster, id, start)
		if err != nil {
			return RegistrationReport{}, err
		}
		b.Trajectory = tr
		roster.add(b)
		slog.Debug("registered agent", "agent", b.Label(), "handle", b.Handle, "samples", tr.Len())
	}

	for i, pos := range pop.Goals {
		id := trajectory.Goal(i + 1)
		b, err := d.register(roster, id, pos)
		if err != nil {
			return RegistrationReport{}, err
		}
		if err := d.oracle.SetMaxSpeed(b.Handle, 0); err != nil {
			return RegistrationReport{}, NewRegistrationError(id.Label(), "could not pin goal max speed", err)
		}
		roster.add(b)
		slog.Debug("registered goal", "agent", b.Label(), "handle", b.Handle, "x", pos.X(), "y", pos.Y())
	}

	bindings := roster.Bindings()
	d.roster = roster
	d.tickBudget = lo.Max(lo.Map(bindings, func(b AgentBinding, _ int) int {
		return b.Trajectory.Len()
	}))

	report.TickBudget = d.tickBudget
	report.Agents = lo.Map(bindings, func(b AgentBinding, _ int) RegisteredAgent {
		return RegisteredAgent{
			Label:    b.Label(),
			Role:     b.Identity.Role,
			Handle:   b.Handle,
			Position: b.Position,
			Samples:  b.Trajectory.Len(),
		}
	})
	return report, nil
}

// register adds one agent to the oracle and checks the dense handle contract.
func (d *Driver) register(roster *Roster, id trajectory.Identity, pos mgl64.Vec2) (AgentBinding, error) {
	want := roster.Len()
	h, err := d.oracle.AddAgent(pos)
	if err != nil {
		return AgentBinding{}, NewRegistrationError(id.Label(), "oracle rejected agent", err)
	}
	if h != want {
		return AgentBinding{}, NewRegistrationError(id.Label(),
			fmt.Sprintf("oracle assigned handle %d, expected %d", h, want), nil)
	}
	return AgentBinding{Identity: id, Handle: h, Position: pos}, nil
}

// Roster returns the agents registered by Setup, or nil before Setup.
func (d *Driver) Roster() *Roster { return d.roster }

// TickBudget returns the longest trajectory length, or 0 before Setup.
func (d *Driver) TickBudget() int { return d.tickBudget }

// CurrentTick returns the index of the next tick to be processed.
func (d *Driver) CurrentTick() int { return d.clock.Current() }

// Tick sets every agent's preferred velocity for the current tick and then
// advances the oracle exactly once.
func (d *Driver) Tick(ctx context.Context) error {
	if d.roster == nil {
		return NewNotInitializedError("tick")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tick := d.clock.Current()
	for el := d.roster.byLabel.Front(); el != nil; el = el.Next() {
		b := el.Value
		var v mgl64.Vec2
		if !b.IsGoal() {
			v = trajectory.PreferredVelocity(b.Trajectory, tick, d.params.TimeStep)
		}
		if err := d.oracle.SetPreferredVelocity(b.Handle, v); err != nil {
			return NewStepError(tick, b.Label(), "oracle rejected preferred velocity", err)
		}
	}

	if err := d.oracle.Advance(); err != nil {
		return NewStepError(tick, "", "oracle advance failed", err)
	}
	d.clock.Next()
	return nil
}

// RunStats summarizes a completed run.
type RunStats struct {
	Ticks   int `json:"ticks"`   // advances performed
	Samples int `json:"samples"` // ticks at which state was recorded
	Records int `json:"records"` // records emitted
}

// Run performs exactly budget ticks. At every sampled tick it emits one record
// per oracle agent to rec, ordered by handle, before advancing.
//
// Agents whose trajectory ends before budget hold position. There is no early
// exit; the run either completes or aborts on the first error.
func (d *Driver) Run(ctx context.Context, budget int, rec Recorder) (RunStats, error) {
	if d.roster == nil {
		return RunStats{}, NewNotInitializedError("run")
	}
	if rec == nil {
		rec = Discard
	}

	var stats RunStats
	for i := 0; i < budget; i++ {
		tick := d.clock.Current()
		if tick%d.sampleInterval == 0 {
			if err := d.sample(ctx, tick, budget, rec, &stats); err != nil {
				return stats, err
			}
		}
		if err := d.Tick(ctx); err != nil {
			return stats, err
		}
		stats.Ticks++
	}
	return stats, nil
}

// sample emits the current state of every oracle agent.
func (d *Driver) sample(ctx context.Context, tick, budget int, rec Recorder, stats *RunStats) error {
	slog.Debug("step", "tick", tick, "budget", budget)
	if d.progress != nil {
		d.progress(tick, budget)
	}

	n := d.oracle.AgentCount()
	for h := 0; h < n; h++ {
		vel := d.oracle.Velocity(h)
		r := TickRecord{
			Step:     tick,
			AgentID:  h,
			Position: d.oracle.Position(h),
			Velocity: vel,
			Speed:    vel.Len(),
		}
		if err := rec.Record(ctx, r); err != nil {
			return NewOutputWriteError(tick, err)
		}
		stats.Records++
	}
	stats.Samples++
	return nil
}

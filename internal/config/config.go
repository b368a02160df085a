package config

import (
	"encoding/json"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/crowdreplay/internal/engine"
	"github.com/roach88/crowdreplay/internal/trajectory"
)

// Experiment is the full description of one simulation run.
type Experiment struct {
	Subject        int    `yaml:"subject" json:"subject"`
	Trial          int    `yaml:"trial" json:"trial"`
	MaxSteps       *int   `yaml:"max_steps,omitempty" json:"max_steps,omitempty"`
	Avatars        int    `yaml:"avatars" json:"avatars"`
	SampleInterval int    `yaml:"sample_interval" json:"sample_interval"`
	DataPath       string `yaml:"data_path,omitempty" json:"data_path,omitempty"`

	Simulation Simulation `yaml:"simulation" json:"simulation"`
	Bounds     Bounds     `yaml:"bounds" json:"bounds"`
	Goals      []Point    `yaml:"goals" json:"goals"`
}

// Simulation holds the avoidance parameters.
type Simulation struct {
	TimeStep            float64 `yaml:"time_step" json:"time_step"`
	NeighborDistance    float64 `yaml:"neighbor_distance" json:"neighbor_distance"`
	MaxNeighbors        int     `yaml:"max_neighbors" json:"max_neighbors"`
	TimeHorizon         float64 `yaml:"time_horizon" json:"time_horizon"`
	TimeHorizonObstacle float64 `yaml:"time_horizon_obstacle" json:"time_horizon_obstacle"`
	Radius              float64 `yaml:"radius" json:"radius"`
	MaxSpeed            float64 `yaml:"max_speed" json:"max_speed"`
}

// Bounds is the walking area in metres.
type Bounds struct {
	MinX float64 `yaml:"min_x" json:"min_x"`
	MinY float64 `yaml:"min_y" json:"min_y"`
	MaxX float64 `yaml:"max_x" json:"max_x"`
	MaxY float64 `yaml:"max_y" json:"max_y"`
}

// Point is a position in metres.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// DefaultMaxSteps is the synthetic trajectory length when max_steps is unset.
const DefaultMaxSteps = 500

// Default returns the configuration of subject 10, trial 76.
func Default() Experiment {
	p := engine.DefaultParams()
	return Experiment{
		Subject:        10,
		Trial:          76,
		Avatars:        10,
		SampleInterval: engine.DefaultSampleInterval,
		Simulation: Simulation{
			TimeStep:            p.TimeStep,
			NeighborDistance:    p.NeighborDistance,
			MaxNeighbors:        p.MaxNeighbors,
			TimeHorizon:         p.TimeHorizon,
			TimeHorizonObstacle: p.TimeHorizonObstacle,
			Radius:              p.Radius,
			MaxSpeed:            p.MaxSpeed,
		},
		Bounds: Bounds{MinX: 10, MinY: 10, MaxX: 100, MaxY: 100},
	}
}

// DefaultGoal returns the goal used when none is configured: straight ahead
// of the participant's start, at the diagonal of a 9 m by 11 m room.
func DefaultGoal(b Bounds) Point {
	return Point{X: b.MinX, Y: math.Hypot(9, 11) + b.MinY}
}

// Steps returns the synthetic trajectory length: max_steps, or
// DefaultMaxSteps when unset.
func (e Experiment) Steps() int {
	if e.MaxSteps == nil {
		return DefaultMaxSteps
	}
	return *e.MaxSteps
}

// RecordingLimit returns the cap on loaded recordings: max_steps, or
// trajectory.NoStepLimit when unset so full recordings are replayed.
func (e Experiment) RecordingLimit() int {
	if e.MaxSteps == nil {
		return trajectory.NoStepLimit
	}
	return *e.MaxSteps
}

// Params returns the avoidance parameters in the driver's terms.
func (e Experiment) Params() engine.Params {
	s := e.Simulation
	return engine.Params{
		TimeStep:            s.TimeStep,
		NeighborDistance:    s.NeighborDistance,
		MaxNeighbors:        s.MaxNeighbors,
		TimeHorizon:         s.TimeHorizon,
		TimeHorizonObstacle: s.TimeHorizonObstacle,
		Radius:              s.Radius,
		MaxSpeed:            s.MaxSpeed,
	}
}

// TrajectoryBounds returns the bounds in the trajectory package's terms.
func (e Experiment) TrajectoryBounds() trajectory.Bounds {
	return trajectory.Bounds{
		MinX: e.Bounds.MinX,
		MinY: e.Bounds.MinY,
		MaxX: e.Bounds.MaxX,
		MaxY: e.Bounds.MaxY,
	}
}

// GoalPositions returns the configured goals, or the default goal when the
// list was never set.
func (e Experiment) GoalPositions() []mgl64.Vec2 {
	goals := e.Goals
	if goals == nil {
		goals = []Point{DefaultGoal(e.Bounds)}
	}
	out := make([]mgl64.Vec2, len(goals))
	for i, g := range goals {
		out[i] = mgl64.Vec2{g.X, g.Y}
	}
	return out
}

// AgentCount is the number of agents the experiment registers when every
// trajectory is non-empty.
func (e Experiment) AgentCount() int {
	return 1 + e.Avatars + len(e.GoalPositions())
}

// MarshalSnapshot encodes e as JSON for storage alongside a run.
// FromJSON reverses it.
func (e Experiment) MarshalSnapshot() (json.RawMessage, error) {
	return json.Marshal(e)
}

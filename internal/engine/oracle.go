package engine

import "github.com/go-gl/mathgl/mgl64"

// Oracle is the collision-avoidance simulator driven by the engine.
//
// The oracle owns the authoritative position and velocity of every agent. It
// accepts one preferred velocity per agent per tick and advances all agents
// together, resolving local collisions.
//
// Handles returned by AddAgent are expected to be dense and assigned in call
// order starting at 0.
type Oracle interface {
	// Configure sets simulation-wide agent defaults. Must precede AddAgent.
	Configure(p Params) error

	// AddAgent registers an agent at pos using the configured defaults.
	AddAgent(pos mgl64.Vec2) (int, error)

	// SetMaxSpeed overrides one agent's maximum speed.
	SetMaxSpeed(handle int, speed float64) error

	// SetPreferredVelocity sets the velocity the agent wants this tick.
	SetPreferredVelocity(handle int, v mgl64.Vec2) error

	// Advance moves every agent by one time step.
	Advance() error

	Position(handle int) mgl64.Vec2
	Velocity(handle int) mgl64.Vec2
	AgentCount() int
}

// Params are the simulation-wide oracle defaults.
type Params struct {
	TimeStep            float64 // seconds per tick
	NeighborDistance    float64 // metres
	MaxNeighbors        int
	TimeHorizon         float64 // seconds
	TimeHorizonObstacle float64 // seconds
	Radius              float64 // metres
	MaxSpeed            float64 // m/s
}

// DefaultParams returns the parameters of the crowd-navigation experiment:
// 90 Hz ticks, 15 m neighbourhood of up to 10 agents, 10 s horizons,
// 0.5 m radius and 2 m/s top speed.
func DefaultParams() Params {
	return Params{
		TimeStep:            1.0 / 90.0,
		NeighborDistance:    15,
		MaxNeighbors:        10,
		TimeHorizon:         10,
		TimeHorizonObstacle: 10,
		Radius:              0.5,
		MaxSpeed:            2,
	}
}

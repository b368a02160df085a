package orca

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/crowdreplay/internal/engine"
)

var (
	// ErrNotConfigured is returned when agents are added or advanced before
	// Configure.
	ErrNotConfigured = errors.New("orca: simulator not configured")

	// ErrCapacity is returned by AddAgent when the simulator is full.
	ErrCapacity = errors.New("orca: agent capacity exhausted")

	// ErrUnknownAgent is returned for handles that were never assigned.
	ErrUnknownAgent = errors.New("orca: unknown agent handle")
)

type agent struct {
	position     mgl64.Vec2
	velocity     mgl64.Vec2
	prefVelocity mgl64.Vec2
	maxSpeed     float64
	radius       float64

	neighbors []neighbor
	lines     []halfPlane
}

type neighbor struct {
	index  int
	distSq float64
}

// Simulator is an ORCA crowd simulator. It is not safe for concurrent use.
type Simulator struct {
	params     engine.Params
	configured bool
	capacity   int // 0 means unbounded
	agents     []*agent
	globalTime float64
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithCapacity limits the number of agents; AddAgent fails with ErrCapacity
// once n agents are registered.
func WithCapacity(n int) Option {
	return func(s *Simulator) {
		s.capacity = n
	}
}

// New creates an unconfigured simulator.
func New(opts ...Option) *Simulator {
	s := &Simulator{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ engine.Oracle = (*Simulator)(nil)

// Configure implements engine.Oracle. Parameters apply to agents added later.
func (s *Simulator) Configure(p engine.Params) error {
	switch {
	case !(p.TimeStep > 0):
		return fmt.Errorf("orca: time step must be positive, got %v", p.TimeStep)
	case !(p.TimeHorizon > 0):
		return fmt.Errorf("orca: time horizon must be positive, got %v", p.TimeHorizon)
	case p.NeighborDistance < 0, p.MaxNeighbors < 0, p.Radius < 0, p.MaxSpeed < 0:
		return fmt.Errorf("orca: negative agent defaults %+v", p)
	}
	s.params = p
	s.configured = true
	return nil
}

// AddAgent implements engine.Oracle. Handles are dense and assigned in call
// order from 0.
func (s *Simulator) AddAgent(pos mgl64.Vec2) (int, error) {
	if !s.configured {
		return 0, ErrNotConfigured
	}
	if s.capacity > 0 && len(s.agents) >= s.capacity {
		return 0, fmt.Errorf("%w (%d agents)", ErrCapacity, s.capacity)
	}
	s.agents = append(s.agents, &agent{
		position: pos,
		maxSpeed: s.params.MaxSpeed,
		radius:   s.params.Radius,
	})
	return len(s.agents) - 1, nil
}

func (s *Simulator) agent(h int) (*agent, error) {
	if h < 0 || h >= len(s.agents) {
		return nil, fmt.Errorf("%w %d", ErrUnknownAgent, h)
	}
	return s.agents[h], nil
}

// SetMaxSpeed implements engine.Oracle.
func (s *Simulator) SetMaxSpeed(h int, speed float64) error {
	a, err := s.agent(h)
	if err != nil {
		return err
	}
	if speed < 0 || math.IsNaN(speed) {
		return fmt.Errorf("orca: invalid max speed %v for agent %d", speed, h)
	}
	a.maxSpeed = speed
	return nil
}

// SetPreferredVelocity implements engine.Oracle.
func (s *Simulator) SetPreferredVelocity(h int, v mgl64.Vec2) error {
	a, err := s.agent(h)
	if err != nil {
		return err
	}
	if math.IsNaN(v.X()) || math.IsNaN(v.Y()) || math.IsInf(v.X(), 0) || math.IsInf(v.Y(), 0) {
		return fmt.Errorf("orca: non-finite preferred velocity %v for agent %d", v, h)
	}
	a.prefVelocity = v
	return nil
}

// Position implements engine.Oracle. Unknown handles yield the zero vector.
func (s *Simulator) Position(h int) mgl64.Vec2 {
	if a, err := s.agent(h); err == nil {
		return a.position
	}
	return mgl64.Vec2{}
}

// Velocity implements engine.Oracle. Unknown handles yield the zero vector.
func (s *Simulator) Velocity(h int) mgl64.Vec2 {
	if a, err := s.agent(h); err == nil {
		return a.velocity
	}
	return mgl64.Vec2{}
}

// AgentCount implements engine.Oracle.
func (s *Simulator) AgentCount() int { return len(s.agents) }

// GlobalTime returns the simulated time in seconds.
func (s *Simulator) GlobalTime() float64 { return s.globalTime }

// Advance implements engine.Oracle.
func (s *Simulator) Advance() error {
	if !s.configured {
		return ErrNotConfigured
	}

	newVelocities := make([]mgl64.Vec2, len(s.agents))
	for i := range s.agents {
		s.computeNeighbors(i)
		newVelocities[i] = s.computeNewVelocity(i)
	}

	dt := s.params.TimeStep
	for i, a := range s.agents {
		a.velocity = newVelocities[i]
		a.position = a.position.Add(a.velocity.Mul(dt))
	}
	s.globalTime += dt
	return nil
}

// computeNeighbors collects the MaxNeighbors nearest agents strictly within
// NeighborDistance of agent i. Equidistant agents keep handle order.
func (s *Simulator) computeNeighbors(i int) {
	a := s.agents[i]
	a.neighbors = a.neighbors[:0]
	if s.params.MaxNeighbors == 0 {
		return
	}

	rangeSq := s.params.NeighborDistance * s.params.NeighborDistance
	for j, other := range s.agents {
		if j == i {
			continue
		}
		if d := absSq(a.position.Sub(other.position)); d < rangeSq {
			a.neighbors = append(a.neighbors, neighbor{index: j, distSq: d})
		}
	}

	slices.SortStableFunc(a.neighbors, func(x, y neighbor) int {
		return cmp.Compare(x.distSq, y.distSq)
	})
	if len(a.neighbors) > s.params.MaxNeighbors {
		a.neighbors = a.neighbors[:s.params.MaxNeighbors]
	}
}

// computeNewVelocity builds the ORCA half-planes of agent i and solves for the
// velocity closest to its preferred velocity.
func (s *Simulator) computeNewVelocity(i int) mgl64.Vec2 {
	a := s.agents[i]
	if a.maxSpeed == 0 {
		return mgl64.Vec2{}
	}

	a.lines = a.lines[:0]
	invTimeHorizon := 1 / s.params.TimeHorizon

	for _, nb := range a.neighbors {
		other := s.agents[nb.index]
		relativePosition := other.position.Sub(a.position)
		relativeVelocity := a.velocity.Sub(other.velocity)
		distSq := absSq(relativePosition)
		combinedRadius := a.radius + other.radius
		combinedRadiusSq := combinedRadius * combinedRadius

		var line halfPlane
		var u mgl64.Vec2

		if distSq > combinedRadiusSq {
			// No collision.
			w := relativeVelocity.Sub(relativePosition.Mul(invTimeHorizon))
			wLengthSq := absSq(w)
			dotProduct1 := w.Dot(relativePosition)

			if dotProduct1 < 0 && dotProduct1*dotProduct1 > combinedRadiusSq*wLengthSq {
				// Project on cut-off circle.
				wLength := math.Sqrt(wLengthSq)
				unitW := w.Mul(1 / wLength)
				line.direction = mgl64.Vec2{unitW.Y(), -unitW.X()}
				u = unitW.Mul(combinedRadius*invTimeHorizon - wLength)
			} else {
				// Project on legs.
				leg := math.Sqrt(distSq - combinedRadiusSq)
				if det(relativePosition, w) > 0 {
					// Left leg.
					line.direction = mgl64.Vec2{
						relativePosition.X()*leg - relativePosition.Y()*combinedRadius,
						relativePosition.X()*combinedRadius + relativePosition.Y()*leg,
					}.Mul(1 / distSq)
				} else {
					// Right leg.
					line.direction = mgl64.Vec2{
						relativePosition.X()*leg + relativePosition.Y()*combinedRadius,
						-relativePosition.X()*combinedRadius + relativePosition.Y()*leg,
					}.Mul(-1 / distSq)
				}
				dotProduct2 := relativeVelocity.Dot(line.direction)
				u = line.direction.Mul(dotProduct2).Sub(relativeVelocity)
			}
		} else {
			// Collision. Project on cut-off circle of time timeStep.
			invTimeStep := 1 / s.params.TimeStep
			w := relativeVelocity.Sub(relativePosition.Mul(invTimeStep))
			wLength := w.Len()
			if wLength == 0 {
				// Coincident agents with equal velocity; no separating direction.
				continue
			}
			unitW := w.Mul(1 / wLength)
			line.direction = mgl64.Vec2{unitW.Y(), -unitW.X()}
			u = unitW.Mul(combinedRadius*invTimeStep - wLength)
		}

		line.point = a.velocity.Add(u.Mul(0.5))
		a.lines = append(a.lines, line)
	}

	var result mgl64.Vec2
	lineFail := linearProgram2(a.lines, a.maxSpeed, a.prefVelocity, false, &result)
	if lineFail < len(a.lines) {
		linearProgram3(a.lines, lineFail, a.maxSpeed, &result)
	}
	return result
}

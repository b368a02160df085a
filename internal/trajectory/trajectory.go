package trajectory

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Sample is the recorded state of an agent at a single tick.
type Sample struct {
	Position mgl64.Vec2
	Speed    float64 // m/s
	Heading  float64 // radians, 0 = +X, pi/2 = +Y
}

// Trajectory is an immutable, tick-indexed sequence of samples.
// The zero value and a nil *Trajectory are both empty.
type Trajectory struct {
	samples []Sample
}

// New returns a Trajectory holding a copy of samples.
func New(samples []Sample) *Trajectory {
	s := make([]Sample, len(samples))
	copy(s, samples)
	return &Trajectory{samples: s}
}

// wrap takes ownership of samples without copying.
// Only for builders in this package that never touch the slice again.
func wrap(samples []Sample) *Trajectory {
	return &Trajectory{samples: samples}
}

// Len returns the number of samples.
func (t *Trajectory) Len() int {
	if t == nil {
		return 0
	}
	return len(t.samples)
}

// At returns the sample at tick i. Panics if i is out of range.
func (t *Trajectory) At(i int) Sample {
	return t.samples[i]
}

// Start returns the tick-0 position. ok is false for an empty trajectory.
func (t *Trajectory) Start() (pos mgl64.Vec2, ok bool) {
	if t.Len() == 0 {
		return mgl64.Vec2{}, false
	}
	return t.samples[0].Position, true
}

// Role distinguishes the categories of agents in an experiment.
type Role int

const (
	// RoleParticipant is the single human subject.
	RoleParticipant Role = iota
	// RoleAvatar is a virtual walker identified by its ordinal (1..N).
	RoleAvatar
	// RoleGoal is a static, non-moving target marker.
	RoleGoal
)

func (r Role) String() string {
	switch r {
	case RoleParticipant:
		return "participant"
	case RoleAvatar:
		return "avatar"
	case RoleGoal:
		return "goal"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Identity names one agent of an experiment.
type Identity struct {
	Role    Role
	Ordinal int // 1-based for avatars and goals, 0 for the participant
}

// Participant returns the identity of the experiment's participant.
func Participant() Identity { return Identity{Role: RoleParticipant} }

// Avatar returns the identity of avatar n (1-based).
func Avatar(n int) Identity { return Identity{Role: RoleAvatar, Ordinal: n} }

// Goal returns the identity of goal n (1-based).
func Goal(n int) Identity { return Identity{Role: RoleGoal, Ordinal: n} }

// Label is the stable, human-readable name of the identity.
// Avatars use the experiment's "A<n>P" convention.
func (id Identity) Label() string {
	switch id.Role {
	case RoleParticipant:
		return "participant"
	case RoleAvatar:
		return fmt.Sprintf("A%dP", id.Ordinal)
	case RoleGoal:
		return fmt.Sprintf("goal%d", id.Ordinal)
	default:
		return fmt.Sprintf("%s%d", id.Role, id.Ordinal)
	}
}

func (id Identity) String() string { return id.Label() }

// Source yields the trajectory of a requested agent.
type Source interface {
	Generate(id Identity) (*Trajectory, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(id Identity) (*Trajectory, error)

// Generate calls f(id).
func (f SourceFunc) Generate(id Identity) (*Trajectory, error) { return f(id) }

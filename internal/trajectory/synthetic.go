package trajectory

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Bounds is the rectangular experiment area.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Synthetic generates deterministic placeholder trajectories shaped like the
// crowd-navigation experiment: the participant walks from the bottom of the
// area toward +Y while avatars descend toward -Y in parallel lanes.
//
// Every trajectory has exactly MaxSteps samples and depends only on the
// identity and the generator's fields.
type Synthetic struct {
	Bounds   Bounds
	TimeStep float64
	MaxSteps int
}

// NewSynthetic returns a generator for the given area, time step and length.
func NewSynthetic(b Bounds, dt float64, maxSteps int) *Synthetic {
	return &Synthetic{Bounds: b, TimeStep: dt, MaxSteps: maxSteps}
}

// Generate implements Source. Goals have no trajectory and avatars are
// numbered from 1; other identities are rejected.
func (s *Synthetic) Generate(id Identity) (*Trajectory, error) {
	switch id.Role {
	case RoleParticipant:
		return s.participant(), nil
	case RoleAvatar:
		if id.Ordinal < 1 {
			return nil, fmt.Errorf("synthetic: invalid avatar ordinal %d", id.Ordinal)
		}
		return s.avatar(id.Ordinal), nil
	default:
		return nil, fmt.Errorf("synthetic: no trajectory for %s", id.Role)
	}
}

func (s *Synthetic) participant() *Trajectory {
	b := s.Bounds
	n := max(s.MaxSteps, 0)
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) * s.TimeStep
		frac := float64(i) / float64(n)
		samples = append(samples, Sample{
			Position: mgl64.Vec2{
				b.MinX + 5 + 2*math.Sin(0.5*t),
				b.MinY + (b.MaxY-b.MinY)*frac,
			},
			Speed:   1.2 + 0.3*math.Sin(t),
			Heading: math.Pi/2 + 0.2*math.Sin(0.3*t),
		})
	}
	return wrap(samples)
}

func (s *Synthetic) avatar(k int) *Trajectory {
	b := s.Bounds
	n := max(s.MaxSteps, 0)
	phase := float64(k)
	offsetX := (phase - 5.5) * 2
	startY := b.MaxY - 10

	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) * s.TimeStep
		frac := float64(i) / float64(n)
		samples = append(samples, Sample{
			Position: mgl64.Vec2{
				b.MinX + 30 + offsetX + math.Sin(0.3*t+phase),
				startY - (b.MaxY-b.MinY)*0.8*frac,
			},
			Speed:   1 + 0.2*math.Sin(t+phase),
			Heading: -math.Pi/2 + 0.1*math.Sin(0.4*t+phase),
		})
	}
	return wrap(samples)
}

package engine

import (
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/crowdreplay/internal/trajectory"
)

// AgentBinding associates an agent identity with its oracle handle and, for
// moving agents, the trajectory that drives it.
//
// INVARIANTS:
//   - Moving agents (participant, avatars) have a non-empty Trajectory
//   - Goals have a nil Trajectory, a fixed Position and max speed 0, and only
//     ever receive the zero preferred velocity
type AgentBinding struct {
	Identity   trajectory.Identity
	Handle     int
	Trajectory *trajectory.Trajectory
	Position   mgl64.Vec2 // registration position (tick-0 sample or goal position)
}

// Label returns the identity's label.
func (b AgentBinding) Label() string { return b.Identity.Label() }

// IsGoal reports whether the agent is a static goal marker.
func (b AgentBinding) IsGoal() bool { return b.Identity.Role == trajectory.RoleGoal }

// Roster is the explicit role -> handle mapping built during Setup.
//
// Bindings are kept in registration order, which is also ascending handle
// order. The roster is never restructured after Setup completes.
type Roster struct {
	byLabel *orderedmap.OrderedMap[string, AgentBinding]
}

func newRoster() *Roster {
	return &Roster{byLabel: orderedmap.NewOrderedMap[string, AgentBinding]()}
}

func (r *Roster) add(b AgentBinding) {
	r.byLabel.Set(b.Label(), b)
}

// Len returns the number of registered agents.
func (r *Roster) Len() int { return r.byLabel.Len() }

// Bindings returns all bindings in registration order.
func (r *Roster) Bindings() []AgentBinding {
	out := make([]AgentBinding, 0, r.byLabel.Len())
	for el := r.byLabel.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Lookup returns the binding registered under label.
func (r *Roster) Lookup(label string) (AgentBinding, bool) {
	return r.byLabel.Get(label)
}

// Handle returns the oracle handle of id.
func (r *Roster) Handle(id trajectory.Identity) (int, bool) {
	b, ok := r.byLabel.Get(id.Label())
	if !ok {
		return 0, false
	}
	return b.Handle, true
}

// ByRole returns the bindings with the given role, in registration order.
func (r *Roster) ByRole(role trajectory.Role) []AgentBinding {
	var out []AgentBinding
	for el := r.byLabel.Front(); el != nil; el = el.Next() {
		if el.Value.Identity.Role == role {
			out = append(out, el.Value)
		}
	}
	return out
}

package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crowdreplay/internal/trajectory"
)

func TestRoster_PreservesRegistrationOrder(t *testing.T) {
	r := newRoster()
	r.add(AgentBinding{Identity: trajectory.Participant(), Handle: 0})
	r.add(AgentBinding{Identity: trajectory.Avatar(2), Handle: 1})
	r.add(AgentBinding{Identity: trajectory.Avatar(1), Handle: 2})
	r.add(AgentBinding{Identity: trajectory.Goal(1), Handle: 3, Position: mgl64.Vec2{1, 2}})

	require.Equal(t, 4, r.Len())
	labels := make([]string, 0, r.Len())
	for i, b := range r.Bindings() {
		assert.Equal(t, i, b.Handle)
		labels = append(labels, b.Label())
	}
	assert.Equal(t, []string{"participant", "A2P", "A1P", "goal1"}, labels)
}

func TestRoster_Queries(t *testing.T) {
	r := newRoster()
	r.add(AgentBinding{Identity: trajectory.Participant(), Handle: 0})
	r.add(AgentBinding{Identity: trajectory.Avatar(1), Handle: 1})
	r.add(AgentBinding{Identity: trajectory.Goal(1), Handle: 2})

	h, ok := r.Handle(trajectory.Avatar(1))
	assert.True(t, ok)
	assert.Equal(t, 1, h)

	_, ok = r.Handle(trajectory.Avatar(9))
	assert.False(t, ok)

	g, ok := r.Lookup("goal1")
	require.True(t, ok)
	assert.True(t, g.IsGoal())

	assert.Len(t, r.ByRole(trajectory.RoleAvatar), 1)
	assert.Len(t, r.ByRole(trajectory.RoleParticipant), 1)
	assert.Empty(t, r.ByRole(trajectory.Role(42)))
}

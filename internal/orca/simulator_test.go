package orca

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crowdreplay/internal/engine"
)

func newConfigured(t *testing.T, p engine.Params, opts ...Option) *Simulator {
	t.Helper()
	s := New(opts...)
	require.NoError(t, s.Configure(p))
	return s
}

func TestSimulator_LoneAgentFollowsPreferredVelocity(t *testing.T) {
	s := newConfigured(t, engine.DefaultParams())
	h, err := s.AddAgent(mgl64.Vec2{10, 10})
	require.NoError(t, err)
	require.Equal(t, 0, h)

	pref := mgl64.Vec2{0.9, 0.3}
	require.NoError(t, s.SetPreferredVelocity(h, pref))
	require.NoError(t, s.Advance())

	assert.Equal(t, pref, s.Velocity(h))
	want := mgl64.Vec2{10, 10}.Add(pref.Mul(1.0 / 90.0))
	assert.True(t, s.Position(h).ApproxEqualThreshold(want, 1e-12))
	assert.InDelta(t, 1.0/90.0, s.GlobalTime(), 1e-15)
}

func TestSimulator_ClampsToMaxSpeed(t *testing.T) {
	s := newConfigured(t, engine.DefaultParams())
	h, err := s.AddAgent(mgl64.Vec2{})
	require.NoError(t, err)

	require.NoError(t, s.SetPreferredVelocity(h, mgl64.Vec2{30, 40}))
	require.NoError(t, s.Advance())

	v := s.Velocity(h)
	assert.InDelta(t, 2.0, v.Len(), 1e-12)
	assert.InDelta(t, 0.6, v.Normalize().X(), 1e-12)
}

func TestSimulator_ZeroMaxSpeedNeverMoves(t *testing.T) {
	s := newConfigured(t, engine.DefaultParams())
	goal, err := s.AddAgent(mgl64.Vec2{10, 24})
	require.NoError(t, err)
	walker, err := s.AddAgent(mgl64.Vec2{10, 22})
	require.NoError(t, err)
	require.NoError(t, s.SetMaxSpeed(goal, 0))

	for i := 0; i < 300; i++ {
		require.NoError(t, s.SetPreferredVelocity(goal, mgl64.Vec2{1, 1}))
		require.NoError(t, s.SetPreferredVelocity(walker, mgl64.Vec2{0, 1.5}))
		require.NoError(t, s.Advance())

		assert.Equal(t, mgl64.Vec2{}, s.Velocity(goal))
		assert.Equal(t, mgl64.Vec2{10, 24}, s.Position(goal))
	}
}

func TestSimulator_HeadOnAgentsDoNotCollide(t *testing.T) {
	p := engine.DefaultParams()
	p.TimeStep = 0.1
	s := newConfigured(t, p)

	a, err := s.AddAgent(mgl64.Vec2{-5, 0.05})
	require.NoError(t, err)
	b, err := s.AddAgent(mgl64.Vec2{5, -0.05})
	require.NoError(t, err)

	minDist := 1e9
	for i := 0; i < 200; i++ {
		require.NoError(t, s.SetPreferredVelocity(a, mgl64.Vec2{1, 0}))
		require.NoError(t, s.SetPreferredVelocity(b, mgl64.Vec2{-1, 0}))
		require.NoError(t, s.Advance())

		d := s.Position(a).Sub(s.Position(b)).Len()
		if d < minDist {
			minDist = d
		}
	}

	combinedRadius := 2 * p.Radius
	assert.GreaterOrEqual(t, minDist, combinedRadius-1e-2, "agents overlapped")
	assert.Greater(t, s.Position(a).X(), 5.0, "agent a should have passed agent b")
	assert.Less(t, s.Position(b).X(), -5.0, "agent b should have passed agent a")
}

func TestSimulator_NoNeighborsMeansNoAvoidance(t *testing.T) {
	p := engine.DefaultParams()
	p.MaxNeighbors = 0
	s := newConfigured(t, p)

	a, _ := s.AddAgent(mgl64.Vec2{0, 0})
	b, _ := s.AddAgent(mgl64.Vec2{0.5, 0})

	for i := 0; i < 10; i++ {
		require.NoError(t, s.SetPreferredVelocity(a, mgl64.Vec2{1, 0}))
		require.NoError(t, s.SetPreferredVelocity(b, mgl64.Vec2{-1, 0}))
		require.NoError(t, s.Advance())
		assert.Equal(t, mgl64.Vec2{1, 0}, s.Velocity(a))
		assert.Equal(t, mgl64.Vec2{-1, 0}, s.Velocity(b))
	}
}

func TestSimulator_KeepsNearestNeighbors(t *testing.T) {
	p := engine.DefaultParams()
	p.MaxNeighbors = 3
	p.NeighborDistance = 5
	s := newConfigured(t, p)

	for _, pos := range []mgl64.Vec2{{0, 0}, {3, 0}, {0, 1}, {-2, 0}, {1, 0}, {0, -4}, {6, 0}} {
		_, err := s.AddAgent(pos)
		require.NoError(t, err)
	}

	s.computeNeighbors(0)
	var got []int
	for _, nb := range s.agents[0].neighbors {
		got = append(got, nb.index)
	}
	// Agents 2 and 4 tie at distance 1 and keep handle order.
	assert.Equal(t, []int{2, 4, 3}, got)
	assert.InDelta(t, 4.0, s.agents[0].neighbors[2].distSq, 1e-12)
}

func TestSimulator_Deterministic(t *testing.T) {
	run := func() []mgl64.Vec2 {
		s := newConfigured(t, engine.DefaultParams())
		starts := []mgl64.Vec2{{0, 0}, {3, 0.2}, {1.5, 2}, {1.4, -2}}
		prefs := []mgl64.Vec2{{1, 0}, {-1, 0}, {0, -1}, {0, 1}}
		for _, p := range starts {
			_, err := s.AddAgent(p)
			require.NoError(t, err)
		}
		for i := 0; i < 400; i++ {
			for h, v := range prefs {
				require.NoError(t, s.SetPreferredVelocity(h, v))
			}
			require.NoError(t, s.Advance())
		}
		out := make([]mgl64.Vec2, s.AgentCount())
		for h := range out {
			out[h] = s.Position(h)
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestSimulator_Errors(t *testing.T) {
	s := New(WithCapacity(1))

	_, err := s.AddAgent(mgl64.Vec2{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, s.Advance(), ErrNotConfigured)

	assert.Error(t, s.Configure(engine.Params{}))
	require.NoError(t, s.Configure(engine.DefaultParams()))

	_, err = s.AddAgent(mgl64.Vec2{})
	require.NoError(t, err)
	_, err = s.AddAgent(mgl64.Vec2{})
	assert.ErrorIs(t, err, ErrCapacity)

	assert.ErrorIs(t, s.SetMaxSpeed(5, 0), ErrUnknownAgent)
	assert.ErrorIs(t, s.SetPreferredVelocity(-1, mgl64.Vec2{}), ErrUnknownAgent)
	assert.Error(t, s.SetMaxSpeed(0, -1))
	assert.Equal(t, mgl64.Vec2{}, s.Position(9))
	assert.Equal(t, 1, s.AgentCount())
}

func TestSimulator_DrivesEngine(t *testing.T) {
	s := New(WithCapacity(2))
	d := engine.New(s, engine.DefaultParams())

	pop := engine.Population{
		Source:  constantSource{},
		Avatars: 1,
		Goals:   []mgl64.Vec2{{0, 0}},
	}
	_, err := d.Setup(t.Context(), pop)
	require.Error(t, err)
	assert.True(t, engine.IsRegistrationFailure(err))
	assert.ErrorIs(t, err, ErrCapacity)
}

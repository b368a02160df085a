package trajectory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_UsesPrimaryWhenAvailable(t *testing.T) {
	want := line()
	primary := SourceFunc(func(Identity) (*Trajectory, error) { return want, nil })
	secondary := SourceFunc(func(Identity) (*Trajectory, error) {
		t.Fatal("secondary must not be consulted")
		return nil, nil
	})

	f := NewFallback(primary, secondary)
	got, err := f.Generate(Participant())
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Empty(t, f.Degraded())
}

func TestFallback_DegradesOnDataUnavailable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "participant.csv", "tick,x,y\n0,1,2\n1,1,3\n")

	f := NewFallback(
		NewCSVLoader(dir, testDT, NoStepLimit),
		NewSynthetic(testBounds, testDT, 50),
	)

	p, err := f.Generate(Participant())
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	a, err := f.Generate(Avatar(4))
	require.NoError(t, err)
	assert.Equal(t, 50, a.Len())

	assert.Equal(t, []string{"A4P"}, f.Degraded())
}

func TestFallback_PropagatesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	primary := SourceFunc(func(Identity) (*Trajectory, error) { return nil, boom })
	f := NewFallback(primary, NewSynthetic(testBounds, testDT, 5))

	_, err := f.Generate(Participant())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, f.Degraded())
}

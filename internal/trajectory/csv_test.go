package trajectory

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestCSVLoader_FullColumns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "participant.csv", "tick,x,y,speed,heading\n0,15,10,1.2,1.5\n1,15.5,11,1.3,1.6\n")

	tr, err := NewCSVLoader(dir, testDT, NoStepLimit).Generate(Participant())
	require.NoError(t, err)
	require.Equal(t, 2, tr.Len())

	assert.Equal(t, mgl64.Vec2{15, 10}, tr.At(0).Position)
	assert.Equal(t, mgl64.Vec2{15.5, 11}, tr.At(1).Position)
	assert.Equal(t, 1.3, tr.At(1).Speed)
	assert.Equal(t, 1.6, tr.At(1).Heading)
}

func TestCSVLoader_DerivesSpeedAndHeading(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "A2P.csv", "tick,x,y\n0,0,0\n1,0,-1\n2,0,-2\n")

	tr, err := NewCSVLoader(dir, 0.5, NoStepLimit).Generate(Avatar(2))
	require.NoError(t, err)
	require.Equal(t, 3, tr.Len())

	for i := 0; i < 3; i++ {
		assert.InDelta(t, 2.0, tr.At(i).Speed, 1e-12)
		assert.InDelta(t, -math.Pi/2, tr.At(i).Heading, 1e-12)
	}
}

// captureLog routes the default logger to a buffer for the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return buf
}

func TestCSVLoader_TruncatesWithWarning(t *testing.T) {
	logs := captureLog(t)
	dir := t.TempDir()
	writeFile(t, dir, "A1P.csv", "step,x,y\n0,0,0\n1,1,0\n2,2,0\n3,3,0\n")

	tr, err := NewCSVLoader(dir, 1, 2).Generate(Avatar(1))
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, mgl64.Vec2{1, 0}, tr.At(1).Position)

	assert.Contains(t, logs.String(), "recording truncated to max steps")
	assert.Contains(t, logs.String(), "agent=A1P")
	assert.Contains(t, logs.String(), "kept=2")
	assert.Contains(t, logs.String(), "dropped=2")
}

func TestCSVLoader_NoStepLimitKeepsLongRecordings(t *testing.T) {
	logs := captureLog(t)
	dir := t.TempDir()

	var sb strings.Builder
	sb.WriteString("tick,x,y\n")
	for i := 0; i < 600; i++ {
		fmt.Fprintf(&sb, "%d,15,%d\n", i, i)
	}
	writeFile(t, dir, "participant.csv", sb.String())

	tr, err := NewCSVLoader(dir, testDT, NoStepLimit).Generate(Participant())
	require.NoError(t, err)
	assert.Equal(t, 600, tr.Len())
	assert.NotContains(t, logs.String(), "truncated")
}

func TestCSVLoader_ZeroStepsIsEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "participant.csv", "tick,x,y\n0,15,10\n1,15,11\n2,15,12\n")

	tr, err := NewCSVLoader(dir, testDT, 0).Generate(Participant())
	require.NoError(t, err)
	assert.Equal(t, 0, tr.Len())
	_, ok := tr.Start()
	assert.False(t, ok)
}

func TestCSVLoader_DataUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		content string // empty means no file
	}{
		{"missing file", ""},
		{"empty file", " "},
		{"missing columns", "tick,x\n0,1\n"},
		{"bad number", "tick,x,y\n0,abc,1\n"},
		{"non-finite", "tick,x,y\n0,NaN,1\n"},
		{"gap in ticks", "tick,x,y\n0,0,0\n2,1,1\n"},
		{"header only", "tick,x,y\n"},
		{"ragged row", "tick,x,y\n0,0,0\n1,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != "" {
				writeFile(t, dir, "participant.csv", tt.content)
			}

			_, err := NewCSVLoader(dir, testDT, NoStepLimit).Generate(Participant())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDataUnavailable)

			var due *DataUnavailableError
			require.True(t, errors.As(err, &due))
			assert.Equal(t, "participant", due.Label)
			assert.Equal(t, filepath.Join(dir, "participant.csv"), due.Path)
		})
	}
}

func TestCSVLoader_RejectsGoals(t *testing.T) {
	_, err := NewCSVLoader(t.TempDir(), testDT, NoStepLimit).Generate(Goal(1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDataUnavailable)
}

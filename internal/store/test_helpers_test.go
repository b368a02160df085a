package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/roach88/crowdreplay/internal/engine"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestMeta creates run metadata with minimal required fields.
func createTestMeta(id string) RunMeta {
	return RunMeta{
		ID:             id,
		Subject:        10,
		Trial:          76,
		TimeStep:       1.0 / 90.0,
		TickBudget:     500,
		SampleInterval: 10,
		AgentCount:     3,
		Config:         json.RawMessage(`{"subject":10,"trial":76}`),
	}
}

// createTestRecords returns one sampled tick's worth of records per step.
func createTestRecords(steps []int, agents int) []engine.TickRecord {
	var recs []engine.TickRecord
	for _, step := range steps {
		for a := 0; a < agents; a++ {
			recs = append(recs, engine.TickRecord{
				Step:     step,
				AgentID:  a,
				Position: mgl64.Vec2{float64(step) + 0.25, float64(a) - 0.5},
				Velocity: mgl64.Vec2{0.3, -0.4},
				Speed:    0.5,
			})
		}
	}
	return recs
}

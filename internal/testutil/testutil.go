// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/crowdreplay/internal/store"
)

// OpenStore opens a fresh store in a temporary directory and closes it when
// the test ends. It returns the store and its path.
func OpenStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, path
}

// WriteFile writes content to dir/name, creating dir if needed, and returns
// the file's path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ParticipantCSV is a five-tick participant recording walking up the y axis
// at 0.9 m per tick.
const ParticipantCSV = `tick,x,y
0,15,10
1,15,10.9
2,15,11.8
3,15,12.7
4,15,13.6
`

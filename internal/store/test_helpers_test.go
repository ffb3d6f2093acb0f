package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new file-backed store with a fixed clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s, err := Open(path, WithNow(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedDatasets inserts n datasets named ds-001..ds-n.
func seedDatasets(t *testing.T, s *Store, n int) {
	t.Helper()
	batch := make([]NewDataset, n)
	for i := range batch {
		batch[i] = NewDataset{
			Name:        fmt.Sprintf("ds-%03d", i+1),
			Description: fmt.Sprintf("dataset number %d", i+1),
			Metadata:    map[string]any{"rank": i + 1},
		}
	}
	if err := s.InsertDatasets(context.Background(), batch); err != nil {
		t.Fatalf("InsertDatasets() failed: %v", err)
	}
}

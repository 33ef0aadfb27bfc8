package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"stepChallengeAPI/internal/types/steps"
)

type entryKey struct {
	userID uuid.UUID
	date   string
}

// MemStore is an in-memory EntryStore. A single mutex keeps the
// conditional primitives atomic; contention is per whole store, which
// is fine for tests and DB-free use.
type MemStore struct {
	mu      sync.Mutex
	entries map[entryKey]steps.StepEntry
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[entryKey]steps.StepEntry)}
}

func (m *MemStore) Get(ctx context.Context, userID uuid.UUID, date string) (*steps.StepEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryKey{userID, date}]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *MemStore) InsertIfAbsent(ctx context.Context, entry steps.StepEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := entryKey{entry.UserID, entry.Date}
	if _, exists := m.entries[k]; exists {
		return false, nil
	}
	m.entries[k] = entry
	return true, nil
}

func (m *MemStore) CompareAndUpdate(ctx context.Context, entry steps.StepEntry, expectedCount int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := entryKey{entry.UserID, entry.Date}
	current, exists := m.entries[k]
	if !exists || current.Count != expectedCount {
		return false, nil
	}
	m.entries[k] = entry
	return true, nil
}

// All returns a snapshot of every stored entry.
func (m *MemStore) All() []steps.StepEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]steps.StepEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

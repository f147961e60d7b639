package storage

import (
	"context"
	"sync"

	"github.com/gridrival/podium/internal/domain"
	"github.com/gridrival/podium/internal/ports"
)

// Compile-time verification that MemoryStore implements StateStore.
var _ ports.StateStore = (*MemoryStore)(nil)

// MemoryStore keeps the snapshot in process memory. It backs tests and
// ephemeral hosts that do not need durability; saves and loads exchange
// deep copies so the stored snapshot is never aliased.
type MemoryStore struct {
	mu    sync.Mutex
	state domain.EngineState
	saved bool

	// SaveCount tracks how many times Save completed, which lets tests
	// assert the one-save-per-mutation contract.
	SaveCount int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a deep copy of the last saved snapshot, or the empty
// default state when nothing has been saved.
func (m *MemoryStore) Load(ctx context.Context) (domain.EngineState, error) {
	if err := ctx.Err(); err != nil {
		return domain.EngineState{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return domain.NewEngineState(), nil
	}
	return m.state.Clone(), nil
}

// Save stores a deep copy of the snapshot.
func (m *MemoryStore) Save(ctx context.Context, state domain.EngineState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state.Clone()
	m.saved = true
	m.SaveCount++
	return nil
}

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridrival/podium/internal/domain"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	want := sampleState()
	require.NoError(t, store.Save(ctx, want))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)
	assert.Equal(t, 1, store.SaveCount)
}

func TestMemoryStoreEmptyLoad(t *testing.T) {
	state, err := NewMemoryStore().Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, state.Rounds)
	assert.NotNil(t, state.Standings)
}

// TestMemoryStoreIsolation verifies the stored snapshot shares no memory
// with what callers save or load.
func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	saved := sampleState()
	require.NoError(t, store.Save(ctx, saved))

	// Mutating the caller's copy after save must not leak in.
	saved.Rounds["miami"].Submissions["p1"].Picks[0] = "tampered"
	saved.ActiveRound = "tampered"

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "imola", loaded.ActiveRound)
	assert.Equal(t, "Norris", loaded.Rounds["miami"].Submissions["p1"].Picks[0])

	// Mutating a loaded copy must not leak back either.
	loaded.Standings.Apply("p9", "Mallory", 99)
	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, again.Standings, "p9")
}

func TestMemoryStoreHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	require.Error(t, store.Save(ctx, domain.NewEngineState()))
	_, err := store.Load(ctx)
	require.Error(t, err)
	assert.Zero(t, store.SaveCount)
}

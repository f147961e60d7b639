package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridrival/podium/internal/domain"
	"github.com/gridrival/podium/internal/ports"
)

// sampleState builds a state with two closed rounds, one open round with
// a submission, and a populated standings table.
func sampleState() domain.EngineState {
	closedAt := time.Date(2026, 5, 3, 16, 0, 0, 0, time.UTC)
	jeddahClosedAt := closedAt.Add(-7 * 24 * time.Hour)
	state := domain.NewEngineState()
	state.ActiveRound = "imola"
	state.Rounds["jeddah"] = domain.Round{
		Name:         "jeddah",
		CreatedAt:    jeddahClosedAt.Add(-3 * time.Hour),
		Closed:       true,
		ClosedAt:     &jeddahClosedAt,
		ActualResult: []string{"Leclerc", "Hamilton", "Verstappen", "Norris", "Russell"},
		Submissions: map[string]domain.Submission{
			"p2": {
				ParticipantID: "p2",
				DisplayName:   "Bob",
				Picks:         []string{"Verstappen", "Norris", "Leclerc", "Hamilton", "Russell"},
				SubmittedAt:   jeddahClosedAt.Add(-time.Hour),
			},
		},
	}
	state.Rounds["miami"] = domain.Round{
		Name:         "miami",
		CreatedAt:    closedAt.Add(-2 * time.Hour),
		Closed:       true,
		ClosedAt:     &closedAt,
		ActualResult: []string{"Verstappen", "Norris", "Leclerc", "Hamilton", "Russell"},
		Submissions: map[string]domain.Submission{
			"p1": {
				ParticipantID: "p1",
				DisplayName:   "Alice",
				Picks:         []string{"Norris", "Verstappen", "Leclerc", "Hamilton", "Russell"},
				SubmittedAt:   closedAt.Add(-time.Hour),
			},
		},
	}
	state.Rounds["imola"] = domain.Round{
		Name:      "imola",
		CreatedAt: closedAt.Add(time.Hour),
		Submissions: map[string]domain.Submission{
			"p2": {
				ParticipantID: "p2",
				DisplayName:   "Bob",
				Picks:         []string{"Leclerc", "Verstappen", "Norris", "Russell", "Hamilton"},
				SubmittedAt:   closedAt.Add(90 * time.Minute),
			},
		},
	}
	state.Standings.Apply("p2", "Bob", 30)
	state.Standings.Apply("p1", "Alice", 44)
	return state
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		state domain.EngineState
	}{
		{name: "empty state", state: domain.NewEngineState()},
		{name: "populated state", state: sampleState()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
			require.NoError(t, err)

			require.NoError(t, store.Save(ctx, tt.state))
			loaded, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.state, loaded)
		})
	}
}

func TestFileStoreMissingFileYieldsEmptyState(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.ActiveRound)
	assert.NotNil(t, state.Rounds)
	assert.NotNil(t, state.Standings)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrCorruptSnapshot)
}

func TestFileStoreSaveReplacesAtomically(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "state.json"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, domain.NewEngineState()))
	require.NoError(t, store.Save(ctx, sampleState()))

	// Only the destination file remains, no stray temp files.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "imola", loaded.ActiveRound)
}

func TestFileStoreEmptyPath(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}

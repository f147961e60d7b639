package roster

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridrival/podium/internal/ports"
)

const gridYAML = `entities:
  - id: 1
    name: Verstappen
  - id: 4
    name: Norris
  - id: 16
    name: Leclerc
  - id: 44
    name: Hamilton
  - id: 63
    name: Russell
`

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileRosterLoad(t *testing.T) {
	r, err := NewFileRoster(writeRoster(t, gridYAML))
	require.NoError(t, err)

	assert.Equal(t, 5, r.Len())

	name, ok := r.Resolve(44)
	require.True(t, ok)
	assert.Equal(t, "Hamilton", name)

	_, ok = r.Resolve(99)
	assert.False(t, ok)
}

func TestFileRosterMissingFileCreatedEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")

	r, err := NewFileRoster(path)
	require.NoError(t, err)
	assert.Zero(t, r.Len())

	// The file now exists and loads cleanly.
	_, err = os.Stat(path)
	require.NoError(t, err)
	again, err := NewFileRoster(path)
	require.NoError(t, err)
	assert.Zero(t, again.Len())
}

func TestFileRosterResolveNameFoldsCase(t *testing.T) {
	r, err := NewFileRoster(writeRoster(t, gridYAML))
	require.NoError(t, err)

	for _, name := range []string{"Verstappen", "verstappen", "VERSTAPPEN", "  verstappen  "} {
		id, ok := r.ResolveName(name)
		require.True(t, ok, "name %q", name)
		assert.Equal(t, 1, id)
	}

	_, ok := r.ResolveName("Schumacher")
	assert.False(t, ok)
}

func TestFileRosterSuggestName(t *testing.T) {
	r, err := NewFileRoster(writeRoster(t, gridYAML))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		n     int
		want  []string
	}{
		{name: "close misspelling", input: "Hamilten", n: 3, want: []string{"Hamilton"}},
		{name: "case folded", input: "leclerk", n: 1, want: []string{"Leclerc"}},
		{name: "nothing similar", input: "zzzzzzzzzzzz", n: 3, want: nil},
		{name: "zero n", input: "Hamilton", n: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.SuggestName(tt.input, tt.n)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want[0], got[0])
			assert.LessOrEqual(t, len(got), tt.n)
		})
	}
}

func TestFileRosterAddRemove(t *testing.T) {
	path := writeRoster(t, gridYAML)
	r, err := NewFileRoster(path)
	require.NoError(t, err)

	require.NoError(t, r.Add(81, "Piastri"))
	name, ok := r.Resolve(81)
	require.True(t, ok)
	assert.Equal(t, "Piastri", name)

	// Replacing an id drops the old name from the name index.
	require.NoError(t, r.Add(81, "Bearman"))
	_, ok = r.ResolveName("Piastri")
	assert.False(t, ok)
	id, ok := r.ResolveName("bearman")
	require.True(t, ok)
	assert.Equal(t, 81, id)

	removed, err := r.Remove(81)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = r.Remove(81)
	require.NoError(t, err)
	assert.False(t, removed)

	// Changes persisted: a fresh load sees the same roster.
	reloaded, err := NewFileRoster(path)
	require.NoError(t, err)
	assert.Equal(t, r.All(), reloaded.All())
}

// TestFileRosterSaveFailureKeepsMemoryAndDiskAligned verifies a failed
// persist leaves the in-memory roster exactly as it was, so it never
// diverges from the file.
func TestFileRosterSaveFailureKeepsMemoryAndDiskAligned(t *testing.T) {
	path := writeRoster(t, gridYAML)
	r, err := NewFileRoster(path)
	require.NoError(t, err)

	// A directory at the temp-file location makes the save fail before
	// anything reaches the roster file.
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	require.Error(t, r.Add(81, "Piastri"))
	_, ok := r.Resolve(81)
	assert.False(t, ok)
	_, ok = r.ResolveName("Piastri")
	assert.False(t, ok)

	removed, err := r.Remove(1)
	require.Error(t, err)
	assert.False(t, removed)
	name, ok := r.Resolve(1)
	require.True(t, ok)
	assert.Equal(t, "Verstappen", name)

	// Once the obstruction is gone, the same operations succeed.
	require.NoError(t, os.Remove(path+".tmp"))
	require.NoError(t, r.Add(81, "Piastri"))
	removed, err = r.Remove(1)
	require.NoError(t, err)
	assert.True(t, removed)

	reloaded, err := NewFileRoster(path)
	require.NoError(t, err)
	assert.Equal(t, r.All(), reloaded.All())
}

func TestFileRosterAddValidation(t *testing.T) {
	r, err := NewFileRoster(writeRoster(t, gridYAML))
	require.NoError(t, err)

	assert.Error(t, r.Add(0, "Nobody"))
	assert.Error(t, r.Add(7, ""))
	assert.Error(t, r.Add(7, "   "))
}

func TestFileRosterRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "duplicate id",
			yaml: "entities:\n  - id: 1\n    name: Verstappen\n  - id: 1\n    name: Norris\n",
		},
		{
			name: "duplicate name case folded",
			yaml: "entities:\n  - id: 1\n    name: Verstappen\n  - id: 2\n    name: VERSTAPPEN\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileRoster(writeRoster(t, tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrRosterUnavailable)
		})
	}
}

func TestFileRosterWatchReloads(t *testing.T) {
	path := writeRoster(t, gridYAML)
	r, err := NewFileRoster(path)
	require.NoError(t, err)

	require.NoError(t, r.Watch())
	defer r.Stop()

	updated := gridYAML + "  - id: 81\n    name: Piastri\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		_, ok := r.Resolve(81)
		return ok
	}, 5*time.Second, 50*time.Millisecond)
}

// TestFileRosterWatchKeepsLastGood verifies a broken on-disk roster does
// not wipe the in-memory one.
func TestFileRosterWatchKeepsLastGood(t *testing.T) {
	path := writeRoster(t, gridYAML)
	r, err := NewFileRoster(path)
	require.NoError(t, err)

	require.NoError(t, r.Watch())
	defer r.Stop()

	require.NoError(t, os.WriteFile(path, []byte("entities: [broken"), 0o644))

	// Give the debounce a chance to fire, then confirm nothing was lost.
	time.Sleep(time.Second)
	assert.Equal(t, 5, r.Len())
	_, ok := r.Resolve(1)
	assert.True(t, ok)
}

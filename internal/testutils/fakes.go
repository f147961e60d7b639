// Package testutils provides shared fakes for engine and storage tests:
// a deterministic roster and a store whose save failures can be injected.
package testutils

import (
	"context"

	"github.com/gridrival/podium/internal/domain"
	"github.com/gridrival/podium/internal/ports"
)

// StaticRoster implements the EntityRoster port over a fixed map.
type StaticRoster map[int]string

// Resolve maps an entity id to its canonical name.
func (r StaticRoster) Resolve(id int) (string, bool) {
	name, ok := r[id]
	return name, ok
}

// GridRoster returns a roster of ten drivers with stable ids, enough for
// two disjoint top-five orderings.
func GridRoster() StaticRoster {
	return StaticRoster{
		1:  "Verstappen",
		4:  "Norris",
		16: "Leclerc",
		44: "Hamilton",
		63: "Russell",
		81: "Piastri",
		14: "Alonso",
		55: "Sainz",
		23: "Albon",
		10: "Gasly",
	}
}

// FailingStore wraps a StateStore and fails Save with the configured
// error while FailNext is set. Load always delegates.
type FailingStore struct {
	Next ports.StateStore

	// FailNext makes subsequent saves fail with Err until cleared.
	FailNext bool

	// Err is the error injected into failing saves.
	Err error
}

// Load delegates to the wrapped store.
func (f *FailingStore) Load(ctx context.Context) (domain.EngineState, error) {
	return f.Next.Load(ctx)
}

// Save fails with the injected error when FailNext is set, otherwise
// delegates.
func (f *FailingStore) Save(ctx context.Context, state domain.EngineState) error {
	if f.FailNext {
		return f.Err
	}
	return f.Next.Save(ctx, state)
}

// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"
	"time"

	"github.com/gridrival/podium/internal/domain"
)

// EntityRoster is the engine's read-only view of the authoritative
// id-to-name mapping for valid entities. The roster is owned by an
// external collaborator; the engine only resolves ids at submission and
// close time and never mutates roster data.
type EntityRoster interface {
	// Resolve maps an entity id to its canonical name.
	// It returns the name and true when the id is known, or "" and false
	// otherwise. Implementations must be safe for concurrent use.
	Resolve(id int) (string, bool)
}

// RosterSuggester is an optional extension of EntityRoster for rosters
// that can propose close matches for a misspelled name. The dispatch
// layer can render suggestions alongside unknown-entity failures.
type RosterSuggester interface {
	// SuggestName returns up to n roster names closest to the given name,
	// best match first. An empty slice means nothing was close enough.
	SuggestName(name string, n int) []string
}

// StateStore is the persistence gateway for the full engine state.
// Implementations persist the snapshot as one atomic unit: a crash during
// Save must never leave data that fails to Load.
type StateStore interface {
	// Load reads the last persisted snapshot. When no prior data exists
	// it returns a well-defined empty state, not an error.
	Load(ctx context.Context) (domain.EngineState, error)

	// Save durably records the snapshot, replacing any previous one.
	// The engine calls Save exactly once per mutating operation, after
	// all in-memory mutation completes and before reporting success.
	Save(ctx context.Context, state domain.EngineState) error
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations should integrate with observability platforms
// like Prometheus or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an engine operation.
	RecordLatency(operation string, duration time.Duration)

	// RecordOperation counts a completed operation with its outcome
	// status ("success" or an error kind).
	RecordOperation(operation, status string)

	// RecordGauge sets the current value of a named gauge, such as the
	// number of submissions in the active round or the standings size.
	RecordGauge(metric string, value float64)
}

// NopMetrics is a MetricsCollector that discards everything. It is the
// default when no collector is configured.
type NopMetrics struct{}

// RecordLatency implements MetricsCollector.
func (NopMetrics) RecordLatency(string, time.Duration) {}

// RecordOperation implements MetricsCollector.
func (NopMetrics) RecordOperation(string, string) {}

// RecordGauge implements MetricsCollector.
func (NopMetrics) RecordGauge(string, float64) {}

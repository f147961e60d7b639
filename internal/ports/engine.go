package ports

import (
	"context"

	"github.com/gridrival/podium/internal/domain"
)

// ContestEngine is the synchronous API consumed by the dispatch layer.
// Operations are request/response pairs with no long-running work; the
// only suspension point is persistence I/O. Implementations serialize
// mutating operations and allow read-only queries to run concurrently.
type ContestEngine interface {
	// OpenRound creates a new round and makes it active. It fails with
	// domain.ErrRoundAlreadyActive while another round is open. Opening a
	// name that maps to a closed historical round replaces that round's
	// data.
	OpenRound(ctx context.Context, name string) error

	// Submit records a participant's ordered top-five prediction for the
	// active round. The entity ids are resolved to canonical names before
	// storage; every unresolvable id is reported at once.
	Submit(ctx context.Context, roundName, participantID, displayName string, entityIDs []int) (domain.Submission, error)

	// Close records the actual result for the active round, scores every
	// submission, folds the results into the standings, and clears the
	// active slot. It returns the per-participant breakdown for display.
	Close(ctx context.Context, roundName string, entityIDs []int) (domain.RoundResults, error)

	// ClearActive deletes the active round outright with no scoring and
	// no standings effect, returning the cleared round's name. This is a
	// destructive administrative escape hatch.
	ClearActive(ctx context.Context) (string, error)

	// Status reports the active round and who has submitted.
	Status(ctx context.Context) (domain.RoundStatus, error)

	// MyPrediction returns the caller's accepted submission for the
	// active round.
	MyPrediction(ctx context.Context, roundName, participantID string) (domain.Submission, error)

	// Leaderboard returns the standings sorted by points descending.
	// It is empty, never nil, when no round has been scored.
	Leaderboard(ctx context.Context) []domain.StandingsEntry

	// RaceHistory returns the names of closed rounds in close order.
	RaceHistory(ctx context.Context) []string

	// RaceHistoryDetails returns the recorded results of a closed round.
	RaceHistoryDetails(ctx context.Context, roundName string) (domain.RoundResults, error)
}

package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/gridrival/podium/internal/domain"
	"github.com/gridrival/podium/internal/ports"
)

// Compile-time verification that throttledEngine implements ContestEngine.
var _ ports.ContestEngine = (*throttledEngine)(nil)

// throttledEngine enforces a token-bucket rate limit on mutating
// operations. Read-only queries pass through unthrottled since they never
// touch the persistence gateway.
type throttledEngine struct {
	next    ports.ContestEngine
	limiter *rate.Limiter
}

// Throttle wraps a ContestEngine so mutating operations wait for token
// bucket permission before proceeding. The limit parameter sets
// operations per second, while burst allows temporary spikes above the
// sustained rate.
func Throttle(next ports.ContestEngine, limit rate.Limit, burst int) ports.ContestEngine {
	return &throttledEngine{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (t *throttledEngine) wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// OpenRound waits for rate limit permission before forwarding.
func (t *throttledEngine) OpenRound(ctx context.Context, name string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.OpenRound(ctx, name)
}

// Submit waits for rate limit permission before forwarding.
func (t *throttledEngine) Submit(ctx context.Context, roundName, participantID, displayName string, entityIDs []int) (domain.Submission, error) {
	if err := t.wait(ctx); err != nil {
		return domain.Submission{}, err
	}
	return t.next.Submit(ctx, roundName, participantID, displayName, entityIDs)
}

// Close waits for rate limit permission before forwarding.
func (t *throttledEngine) Close(ctx context.Context, roundName string, entityIDs []int) (domain.RoundResults, error) {
	if err := t.wait(ctx); err != nil {
		return domain.RoundResults{}, err
	}
	return t.next.Close(ctx, roundName, entityIDs)
}

// ClearActive waits for rate limit permission before forwarding.
func (t *throttledEngine) ClearActive(ctx context.Context) (string, error) {
	if err := t.wait(ctx); err != nil {
		return "", err
	}
	return t.next.ClearActive(ctx)
}

// Status forwards without throttling.
func (t *throttledEngine) Status(ctx context.Context) (domain.RoundStatus, error) {
	return t.next.Status(ctx)
}

// MyPrediction forwards without throttling.
func (t *throttledEngine) MyPrediction(ctx context.Context, roundName, participantID string) (domain.Submission, error) {
	return t.next.MyPrediction(ctx, roundName, participantID)
}

// Leaderboard forwards without throttling.
func (t *throttledEngine) Leaderboard(ctx context.Context) []domain.StandingsEntry {
	return t.next.Leaderboard(ctx)
}

// RaceHistory forwards without throttling.
func (t *throttledEngine) RaceHistory(ctx context.Context) []string {
	return t.next.RaceHistory(ctx)
}

// RaceHistoryDetails forwards without throttling.
func (t *throttledEngine) RaceHistoryDetails(ctx context.Context, roundName string) (domain.RoundResults, error) {
	return t.next.RaceHistoryDetails(ctx, roundName)
}

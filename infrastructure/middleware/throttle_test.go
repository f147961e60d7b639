package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/gridrival/podium/internal/domain"
	"github.com/gridrival/podium/internal/ports"
)

// countingEngine records per-operation call counts and returns zero values.
type countingEngine struct {
	calls map[string]int
}

func newCountingEngine() *countingEngine {
	return &countingEngine{calls: make(map[string]int)}
}

func (c *countingEngine) OpenRound(ctx context.Context, name string) error {
	c.calls["open"]++
	return nil
}

func (c *countingEngine) Submit(ctx context.Context, roundName, participantID, displayName string, entityIDs []int) (domain.Submission, error) {
	c.calls["submit"]++
	return domain.Submission{ParticipantID: participantID}, nil
}

func (c *countingEngine) Close(ctx context.Context, roundName string, entityIDs []int) (domain.RoundResults, error) {
	c.calls["close"]++
	return domain.RoundResults{RoundName: roundName}, nil
}

func (c *countingEngine) ClearActive(ctx context.Context) (string, error) {
	c.calls["clear"]++
	return "cleared", nil
}

func (c *countingEngine) Status(ctx context.Context) (domain.RoundStatus, error) {
	c.calls["status"]++
	return domain.RoundStatus{}, nil
}

func (c *countingEngine) MyPrediction(ctx context.Context, roundName, participantID string) (domain.Submission, error) {
	c.calls["prediction"]++
	return domain.Submission{}, nil
}

func (c *countingEngine) Leaderboard(ctx context.Context) []domain.StandingsEntry {
	c.calls["leaderboard"]++
	return nil
}

func (c *countingEngine) RaceHistory(ctx context.Context) []string {
	c.calls["history"]++
	return nil
}

func (c *countingEngine) RaceHistoryDetails(ctx context.Context, roundName string) (domain.RoundResults, error) {
	c.calls["details"]++
	return domain.RoundResults{}, nil
}

var _ ports.ContestEngine = (*countingEngine)(nil)

func TestThrottleForwardsAllOperations(t *testing.T) {
	ctx := context.Background()
	inner := newCountingEngine()
	throttled := Throttle(inner, rate.Inf, 1)

	require.NoError(t, throttled.OpenRound(ctx, "monza"))
	sub, err := throttled.Submit(ctx, "monza", "p1", "Alice", []int{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, "p1", sub.ParticipantID)
	_, err = throttled.Close(ctx, "monza", []int{1, 2, 3, 4, 5})
	require.NoError(t, err)
	name, err := throttled.ClearActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cleared", name)

	_, err = throttled.Status(ctx)
	require.NoError(t, err)
	_, err = throttled.MyPrediction(ctx, "monza", "p1")
	require.NoError(t, err)
	throttled.Leaderboard(ctx)
	throttled.RaceHistory(ctx)
	_, err = throttled.RaceHistoryDetails(ctx, "monza")
	require.NoError(t, err)

	for _, op := range []string{"open", "submit", "close", "clear", "status", "prediction", "leaderboard", "history", "details"} {
		assert.Equal(t, 1, inner.calls[op], "operation %s", op)
	}
}

// TestThrottleDelaysMutations verifies mutating calls beyond the burst
// wait for the token bucket to refill.
func TestThrottleDelaysMutations(t *testing.T) {
	ctx := context.Background()
	throttled := Throttle(newCountingEngine(), rate.Limit(20), 1)

	start := time.Now()
	require.NoError(t, throttled.OpenRound(ctx, "r1"))
	require.NoError(t, throttled.OpenRound(ctx, "r2"))
	elapsed := time.Since(start)

	// The second call needs a fresh token at 20/s, so roughly 50ms.
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}

// TestThrottleQueriesBypassLimiter verifies queries never consume tokens
// or wait, even when the bucket is exhausted.
func TestThrottleQueriesBypassLimiter(t *testing.T) {
	ctx := context.Background()
	inner := newCountingEngine()
	throttled := Throttle(inner, rate.Limit(0.001), 1)

	// Drain the single burst token.
	require.NoError(t, throttled.OpenRound(ctx, "r1"))

	start := time.Now()
	for range 10 {
		throttled.Leaderboard(ctx)
		throttled.RaceHistory(ctx)
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 10, inner.calls["leaderboard"])
}

func TestThrottleCancelledContext(t *testing.T) {
	throttled := Throttle(newCountingEngine(), rate.Limit(0.001), 1)

	ctx := context.Background()
	require.NoError(t, throttled.OpenRound(ctx, "r1"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := throttled.OpenRound(cancelled, "r2")
	require.Error(t, err)
}

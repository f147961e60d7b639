// Package application wires the domain model to its ports: it hosts the
// contest engine that owns the round store and standings ledger, and the
// configuration loader for hosts embedding it.
package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/gridrival/podium/internal/domain"
	"github.com/gridrival/podium/internal/ports"
)

// Compile-time verification that Engine implements ContestEngine.
var _ ports.ContestEngine = (*Engine)(nil)

// Engine owns the single EngineState and implements the round lifecycle:
// open, collect submissions, close and score, plus the read-only queries.
// All mutating operations are serialized through an exclusive lock and
// persist the full state before reporting success; queries take a shared
// lock and never persist.
type Engine struct {
	mu sync.RWMutex
	// state is the one shared mutable resource. It is never handed out
	// directly; queries return deep copies.
	state domain.EngineState

	store   ports.StateStore
	roster  ports.EntityRoster
	metrics ports.MetricsCollector
	logger  *zap.Logger
	tracer  trace.Tracer
	// now is swappable for tests.
	now func() time.Time
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards all output.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics collector. The default discards all metrics.
func WithMetrics(m ports.MetricsCollector) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine loads the last persisted snapshot from the store and returns
// an engine ready to serve operations. The store and roster are required;
// loading a missing snapshot yields an empty state, not an error.
func NewEngine(ctx context.Context, store ports.StateStore, roster ports.EntityRoster, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if roster == nil {
		return nil, fmt.Errorf("entity roster is required")
	}

	e := &Engine{
		store:   store,
		roster:  roster,
		metrics: ports.NopMetrics{},
		logger:  zap.NewNop(),
		tracer:  otel.Tracer("contest-engine"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load engine state: %w", err)
	}
	state.Normalize()
	e.state = state

	e.logger.Info("engine state loaded",
		zap.String("active_round", state.ActiveRound),
		zap.Int("rounds", len(state.Rounds)),
		zap.Int("standings", len(state.Standings)))
	return e, nil
}

// OpenRound creates a new round under the given name and makes it active.
// It fails with domain.ErrRoundAlreadyActive while another round is open.
// Re-opening a name that maps to a closed round replaces that round's
// prior data.
func (e *Engine) OpenRound(ctx context.Context, name string) error {
	ctx, span, done := e.begin(ctx, "open_round", attribute.String("round.name", name))
	defer span.End()

	if name == "" {
		return done(fmt.Errorf("round name must not be empty"))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.ActiveRound != "" {
		return done(domain.ErrRoundAlreadyActive)
	}

	snapshot := e.state.Clone()
	e.state.ActiveRound = name
	e.state.Rounds[name] = domain.Round{
		Name:        name,
		CreatedAt:   e.now().UTC(),
		Submissions: make(map[string]domain.Submission),
	}

	if err := e.persist(ctx, "open_round", snapshot); err != nil {
		return done(err)
	}

	e.logger.Info("round opened", zap.String("round", name))
	return done(nil)
}

// Submit validates and records a participant's prediction for the active
// round. Validation happens in full before any mutation: the round must be
// active and match roundName, the participant must not have submitted yet,
// the id list must be exactly five distinct ids, and every id must resolve
// against the roster, with all unresolvable ids reported at once.
func (e *Engine) Submit(ctx context.Context, roundName, participantID, displayName string, entityIDs []int) (domain.Submission, error) {
	ctx, span, done := e.begin(ctx, "submit",
		attribute.String("round.name", roundName),
		attribute.String("participant.id", participantID))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkActive(roundName); err != nil {
		return domain.Submission{}, done(err)
	}
	round := e.state.Rounds[e.state.ActiveRound]
	if _, exists := round.Submissions[participantID]; exists {
		return domain.Submission{}, done(domain.ErrDuplicateSubmission)
	}

	picks, err := e.resolveEntities(entityIDs)
	if err != nil {
		return domain.Submission{}, done(err)
	}

	snapshot := e.state.Clone()
	sub := domain.Submission{
		ParticipantID: participantID,
		DisplayName:   displayName,
		Picks:         picks,
		SubmittedAt:   e.now().UTC(),
	}
	round.Submissions[participantID] = sub
	e.state.Rounds[e.state.ActiveRound] = round

	if err := e.persist(ctx, "submit", snapshot); err != nil {
		return domain.Submission{}, done(err)
	}

	e.metrics.RecordGauge("active_round_submissions", float64(len(round.Submissions)))
	e.logger.Info("submission accepted",
		zap.String("round", round.Name),
		zap.String("participant", participantID),
		zap.Strings("picks", picks))
	return sub.Clone(), done(nil)
}

// Close records the actual top five for the active round, scores every
// submission against it, folds each result into the standings, clears the
// active slot, and returns the per-participant breakdown. Scoring order is
// irrelevant since per-participant scores are independent.
func (e *Engine) Close(ctx context.Context, roundName string, entityIDs []int) (domain.RoundResults, error) {
	ctx, span, done := e.begin(ctx, "close_round", attribute.String("round.name", roundName))
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	// The original validates the result ids before checking for an active
	// round; keep that order so id mistakes surface even when no round is
	// open.
	actual, err := e.resolveEntities(entityIDs)
	if err != nil {
		return domain.RoundResults{}, done(err)
	}
	if err := e.checkActive(roundName); err != nil {
		return domain.RoundResults{}, done(err)
	}

	snapshot := e.state.Clone()
	round := e.state.Rounds[e.state.ActiveRound]
	closedAt := e.now().UTC()
	round.ActualResult = actual
	round.Closed = true
	round.ClosedAt = &closedAt

	// The returned results must not alias the stored round's slice.
	results := domain.RoundResults{
		RoundName:    round.Name,
		ActualResult: append([]string(nil), actual...),
		ClosedAt:     closedAt,
		Scores:       make([]domain.ParticipantScore, 0, len(round.Submissions)),
	}
	for id, sub := range round.Submissions {
		points := domain.Score(sub.Picks, actual)
		e.state.Standings.Apply(id, sub.DisplayName, points)
		results.Scores = append(results.Scores, domain.ParticipantScore{
			ParticipantID: id,
			DisplayName:   sub.DisplayName,
			Picks:         sub.Clone().Picks,
			Points:        points,
		})
	}
	sortScores(results.Scores)

	e.state.Rounds[round.Name] = round
	e.state.ActiveRound = ""

	if err := e.persist(ctx, "close_round", snapshot); err != nil {
		return domain.RoundResults{}, done(err)
	}

	e.metrics.RecordGauge("standings_size", float64(len(e.state.Standings)))
	e.metrics.RecordGauge("active_round_submissions", 0)
	e.logger.Info("round closed",
		zap.String("round", round.Name),
		zap.Int("scored", len(results.Scores)))
	span.SetAttributes(attribute.Int("round.scored", len(results.Scores)))
	return results, done(nil)
}

// ClearActive deletes the active round record entirely, as if it never
// existed: no scoring, no standings effect. It returns the cleared round's
// name.
func (e *Engine) ClearActive(ctx context.Context) (string, error) {
	ctx, span, done := e.begin(ctx, "clear_active")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.ActiveRound == "" {
		return "", done(domain.ErrNoActiveRound)
	}

	snapshot := e.state.Clone()
	name := e.state.ActiveRound
	delete(e.state.Rounds, name)
	e.state.ActiveRound = ""

	if err := e.persist(ctx, "clear_active", snapshot); err != nil {
		return "", done(err)
	}

	e.metrics.RecordGauge("active_round_submissions", 0)
	e.logger.Warn("active round cleared", zap.String("round", name))
	return name, done(nil)
}

// Status reports the active round's name, creation time, and the display
// names of participants who have submitted. It never mutates state.
func (e *Engine) Status(ctx context.Context) (domain.RoundStatus, error) {
	_, span, done := e.begin(ctx, "status")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.state.ActiveRound == "" {
		return domain.RoundStatus{}, done(domain.ErrNoActiveRound)
	}
	round := e.state.Rounds[e.state.ActiveRound]

	submitted := make([]string, 0, len(round.Submissions))
	for _, sub := range round.Submissions {
		submitted = append(submitted, sub.DisplayName)
	}
	sort.Strings(submitted)

	return domain.RoundStatus{
		RoundName: round.Name,
		CreatedAt: round.CreatedAt,
		Submitted: submitted,
	}, done(nil)
}

// MyPrediction returns the participant's accepted submission for the
// active round.
func (e *Engine) MyPrediction(ctx context.Context, roundName, participantID string) (domain.Submission, error) {
	_, span, done := e.begin(ctx, "my_prediction",
		attribute.String("participant.id", participantID))
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.checkActive(roundName); err != nil {
		return domain.Submission{}, done(err)
	}
	sub, ok := e.state.Rounds[e.state.ActiveRound].Submissions[participantID]
	if !ok {
		return domain.Submission{}, done(domain.ErrNoSubmission)
	}
	return sub.Clone(), done(nil)
}

// Leaderboard returns the standings sorted by total points descending,
// ties broken by participant id. The result is empty, never nil, when no
// round has been scored, and identical across calls absent a mutation.
func (e *Engine) Leaderboard(ctx context.Context) []domain.StandingsEntry {
	_, span, done := e.begin(ctx, "leaderboard")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	entries := make([]domain.StandingsEntry, 0, len(e.state.Standings))
	for entry := range e.state.Standings.Ranked() {
		entries = append(entries, entry)
	}
	done(nil)
	return entries
}

// RaceHistory returns the names of closed rounds ordered by close time,
// oldest first.
func (e *Engine) RaceHistory(ctx context.Context) []string {
	_, span, done := e.begin(ctx, "race_history")
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	type closed struct {
		name string
		at   time.Time
	}
	rounds := make([]closed, 0, len(e.state.Rounds))
	for name, r := range e.state.Rounds {
		if r.Closed && r.ClosedAt != nil {
			rounds = append(rounds, closed{name, *r.ClosedAt})
		}
	}
	sort.Slice(rounds, func(i, j int) bool {
		if !rounds[i].at.Equal(rounds[j].at) {
			return rounds[i].at.Before(rounds[j].at)
		}
		return rounds[i].name < rounds[j].name
	})

	names := make([]string, len(rounds))
	for i, r := range rounds {
		names[i] = r.name
	}
	done(nil)
	return names
}

// RaceHistoryDetails recomputes and returns the full breakdown for a
// closed round. Scoring is deterministic, so recomputing from the stored
// submissions and actual result reproduces the close-time values exactly.
func (e *Engine) RaceHistoryDetails(ctx context.Context, roundName string) (domain.RoundResults, error) {
	_, span, done := e.begin(ctx, "race_history_details",
		attribute.String("round.name", roundName))
	defer span.End()

	e.mu.RLock()
	defer e.mu.RUnlock()

	round, ok := e.state.Rounds[roundName]
	if !ok || !round.Closed || round.ClosedAt == nil {
		return domain.RoundResults{}, done(domain.ErrRoundNotFound)
	}

	results := domain.RoundResults{
		RoundName:    round.Name,
		ActualResult: round.Clone().ActualResult,
		ClosedAt:     *round.ClosedAt,
		Scores:       make([]domain.ParticipantScore, 0, len(round.Submissions)),
	}
	for id, sub := range round.Submissions {
		results.Scores = append(results.Scores, domain.ParticipantScore{
			ParticipantID: id,
			DisplayName:   sub.DisplayName,
			Picks:         sub.Clone().Picks,
			Points:        domain.Score(sub.Picks, round.ActualResult),
		})
	}
	sortScores(results.Scores)
	return results, done(nil)
}

// checkActive verifies an active round exists and matches roundName.
// Callers must hold at least the read lock.
func (e *Engine) checkActive(roundName string) error {
	if e.state.ActiveRound == "" {
		return domain.ErrNoActiveRound
	}
	if roundName != e.state.ActiveRound {
		return domain.ErrRoundNameMismatch
	}
	return nil
}

// resolveEntities validates the id list shape and resolves every id to its
// canonical name. All unresolvable ids are collected and reported in a
// single error.
func (e *Engine) resolveEntities(ids []int) ([]string, error) {
	if len(ids) != domain.PodiumSize {
		return nil, domain.ErrEntityListInvalid
	}
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, domain.ErrEntityListInvalid
		}
		seen[id] = struct{}{}
	}

	names := make([]string, 0, len(ids))
	var unknown []int
	for _, id := range ids {
		name, ok := e.roster.Resolve(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		names = append(names, name)
	}
	if len(unknown) > 0 {
		return nil, domain.NewUnknownEntityError(unknown)
	}
	return names, nil
}

// persist saves the full state, restoring the pre-operation snapshot on
// failure so memory and disk never diverge. Callers must hold the write
// lock.
func (e *Engine) persist(ctx context.Context, operation string, snapshot domain.EngineState) error {
	if err := e.store.Save(ctx, e.state); err != nil {
		e.state = snapshot
		e.logger.Error("state save failed, rolled back",
			zap.String("operation", operation),
			zap.Error(err))
		return ports.NewStoreError(operation, err)
	}
	return nil
}

// begin starts a span for an operation and returns a completion func that
// records latency, outcome metrics, and span errors.
func (e *Engine) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span, func(error) error) {
	ctx, span := e.tracer.Start(ctx, "Engine."+operation,
		trace.WithAttributes(append(attrs, attribute.String("engine.operation", operation))...))
	start := time.Now()

	done := func(err error) error {
		e.metrics.RecordLatency(operation, time.Since(start))
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
		}
		e.metrics.RecordOperation(operation, status)
		return err
	}
	return ctx, span, done
}

func sortScores(scores []domain.ParticipantScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Points != scores[j].Points {
			return scores[i].Points > scores[j].Points
		}
		return scores[i].ParticipantID < scores[j].ParticipantID
	})
}

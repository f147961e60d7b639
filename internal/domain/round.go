// Package domain contains pure, dependency-free domain models and types
// for the prediction contest engine.
package domain

import (
	"time"
)

// PodiumSize is the fixed length of every predicted and actual ordering.
// Submissions with any other length are rejected before validation of
// individual entries.
const PodiumSize = 5

// Round represents one contest cycle tied to a named event. A round is
// created open, collects at most one submission per participant, and is
// closed exactly once by recording the actual result.
type Round struct {
	// Name identifies the round. Names are unique among rounds currently
	// held in the store; re-opening a name that maps to a closed round
	// replaces that round's data.
	Name string `json:"name"`

	// CreatedAt records when the round was opened.
	CreatedAt time.Time `json:"created_at"`

	// Closed reports whether the actual result has been recorded.
	Closed bool `json:"closed"`

	// ActualResult is the true ordered top five, nil until the round
	// closes. Once set it is never modified.
	ActualResult []string `json:"actual_result,omitempty"`

	// ClosedAt records when the round closed, nil while open.
	ClosedAt *time.Time `json:"closed_at,omitempty"`

	// Submissions maps participant id to that participant's accepted
	// submission.
	Submissions map[string]Submission `json:"submissions"`
}

// Clone returns a deep copy of the round. The engine hands copies across
// its API boundary so callers can never alias internal state.
func (r Round) Clone() Round {
	out := r
	out.ActualResult = cloneStrings(r.ActualResult)
	if r.ClosedAt != nil {
		t := *r.ClosedAt
		out.ClosedAt = &t
	}
	out.Submissions = make(map[string]Submission, len(r.Submissions))
	for id, sub := range r.Submissions {
		out.Submissions[id] = sub.Clone()
	}
	return out
}

// Submission is a participant's ordered top-five prediction for a round.
// It is immutable once accepted; a second submission from the same
// participant in the same round is rejected, not overwritten.
type Submission struct {
	// ParticipantID is the stable identity of the submitter, assigned by
	// the host platform.
	ParticipantID string `json:"participant_id"`

	// DisplayName is the submitter's name at submission time.
	DisplayName string `json:"display_name"`

	// Picks holds exactly PodiumSize pairwise-distinct canonical entity
	// names in predicted finishing order.
	Picks []string `json:"picks"`

	// SubmittedAt records when the submission was accepted.
	SubmittedAt time.Time `json:"submitted_at"`
}

// Clone returns a deep copy of the submission.
func (s Submission) Clone() Submission {
	out := s
	out.Picks = cloneStrings(s.Picks)
	return out
}

// ParticipantScore is one participant's scored result for a closed round.
type ParticipantScore struct {
	// ParticipantID identifies the participant.
	ParticipantID string `json:"participant_id"`

	// DisplayName is the name recorded on the submission.
	DisplayName string `json:"display_name"`

	// Picks is the participant's predicted ordering.
	Picks []string `json:"picks"`

	// Points is the position-deviation score for this round.
	Points int `json:"points"`
}

// RoundResults is the outcome of a closed round: the actual ordering and
// the per-participant score breakdown, sorted by points descending with
// ties broken by participant id.
type RoundResults struct {
	// RoundName identifies the round these results belong to.
	RoundName string `json:"round_name"`

	// ActualResult is the true ordered top five.
	ActualResult []string `json:"actual_result"`

	// ClosedAt records when the round closed.
	ClosedAt time.Time `json:"closed_at"`

	// Scores lists each scored submission.
	Scores []ParticipantScore `json:"scores"`
}

// RoundStatus is a read-only view of the active round for display by the
// dispatch layer.
type RoundStatus struct {
	// RoundName identifies the active round.
	RoundName string `json:"round_name"`

	// CreatedAt records when the round was opened.
	CreatedAt time.Time `json:"created_at"`

	// Submitted lists the display names of participants with an accepted
	// submission, sorted for stable output.
	Submitted []string `json:"submitted"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

package domain

import (
	"iter"
	"sort"
)

// StandingsEntry is one participant's cumulative record across all rounds
// scored so far. Entries are created lazily the first time a participant's
// submission is scored and are updated by addition only.
type StandingsEntry struct {
	// ParticipantID is the stable identity the entry is keyed by.
	ParticipantID string `json:"participant_id"`

	// DisplayName is the most recent name seen for this participant.
	DisplayName string `json:"display_name"`

	// TotalPoints is the sum of per-round scores at each close.
	TotalPoints int `json:"total_points"`

	// RoundsScored counts the closed rounds this participant submitted to.
	RoundsScored int `json:"rounds_scored"`
}

// Standings accumulates per-participant lifetime totals, keyed by
// participant id. It is mutated only when a round closes.
type Standings map[string]StandingsEntry

// Apply folds one scored round result into the standings. A missing entry
// is created first; the display name is refreshed to the latest value seen
// so the table always shows the most recent known name.
func (s Standings) Apply(participantID, displayName string, points int) {
	entry, ok := s[participantID]
	if !ok {
		entry = StandingsEntry{ParticipantID: participantID}
	}
	entry.DisplayName = displayName
	entry.TotalPoints += points
	entry.RoundsScored++
	s[participantID] = entry
}

// Ranked returns a restartable sequence of entries sorted by total points
// descending. Ties are broken by participant id ascending, which keeps the
// ordering deterministic across runs.
func (s Standings) Ranked() iter.Seq[StandingsEntry] {
	return func(yield func(StandingsEntry) bool) {
		entries := make([]StandingsEntry, 0, len(s))
		for _, e := range s {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].TotalPoints != entries[j].TotalPoints {
				return entries[i].TotalPoints > entries[j].TotalPoints
			}
			return entries[i].ParticipantID < entries[j].ParticipantID
		})
		for _, e := range entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the standings table.
func (s Standings) Clone() Standings {
	out := make(Standings, len(s))
	for id, e := range s {
		out[id] = e
	}
	return out
}

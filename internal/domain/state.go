package domain

// EngineState is the full persisted snapshot of the contest engine: the
// round store and the standings ledger as one atomic unit. The engine owns
// exactly one EngineState; it is never aliased by callers, and every
// mutating operation persists it before reporting success.
type EngineState struct {
	// ActiveRound names the single open round, or is empty when no round
	// is open. When non-empty it always keys an open round in Rounds.
	ActiveRound string `json:"active_round,omitempty"`

	// Rounds maps round name to round data, active or historical.
	Rounds map[string]Round `json:"rounds"`

	// Standings is the cross-round cumulative score table.
	Standings Standings `json:"standings"`
}

// NewEngineState returns a well-defined empty state, ready for first use.
// Stores return it when no prior data exists.
func NewEngineState() EngineState {
	return EngineState{
		Rounds:    make(map[string]Round),
		Standings: make(Standings),
	}
}

// Clone returns a deep copy of the state. Mutating operations snapshot the
// state before applying changes so a failed persist can roll back to the
// pre-operation value, keeping memory and disk in agreement.
func (s EngineState) Clone() EngineState {
	out := EngineState{
		ActiveRound: s.ActiveRound,
		Rounds:      make(map[string]Round, len(s.Rounds)),
		Standings:   s.Standings.Clone(),
	}
	for name, r := range s.Rounds {
		out.Rounds[name] = r.Clone()
	}
	return out
}

// Normalize replaces nil collections with empty ones. Stores call it after
// decoding so a snapshot written by an older process shape still satisfies
// the engine's invariants.
func (s *EngineState) Normalize() {
	if s.Rounds == nil {
		s.Rounds = make(map[string]Round)
	}
	if s.Standings == nil {
		s.Standings = make(Standings)
	}
	for name, r := range s.Rounds {
		if r.Submissions == nil {
			r.Submissions = make(map[string]Submission)
			s.Rounds[name] = r
		}
	}
}

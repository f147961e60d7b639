package domain

// deviationPoints is the fixed award schedule keyed on the absolute
// difference between a pick's predicted and actual position. These
// breakpoints define the contest's fairness contract and must not change.
var deviationPoints = [PodiumSize]int{10, 7, 5, 3, 1}

// MaxRoundScore is the highest score a single submission can earn: every
// pick in exactly its actual position.
const MaxRoundScore = 50

// Score computes the position-deviation score of a predicted ordering
// against the actual ordering. For each predicted position i, a pick that
// appears at actual position j earns deviationPoints[|i-j|]; a pick absent
// from the actual ordering earns nothing. The result is the sum across all
// predicted positions.
//
// Score is a pure function with no side effects and is safe for concurrent
// use. Both slices are expected to be PodiumSize long and pairwise
// distinct; the engine validates this before scoring.
func Score(predicted, actual []string) int {
	total := 0
	for i, pick := range predicted {
		j := indexOf(actual, pick)
		if j < 0 {
			continue
		}
		d := i - j
		if d < 0 {
			d = -d
		}
		if d < len(deviationPoints) {
			total += deviationPoints[d]
		}
	}
	return total
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

package mcts

import (
	"math/bits"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
)

// Center squares of the board (ranks 3 and 4, central files).
const centerMask uint32 = 1<<13 | 1<<14 | 1<<17 | 1<<18

// moveHeuristic is a pure static estimate of the quality of mv played
// from parent, computed once per node at creation and consumed by
// progressive bias. child is the resulting position; it is only used
// for the recapture query, which costs one extra move generation and
// is skipped when the Threat weight is zero.
func moveHeuristic(parent dama.Position, mv dama.Move, child dama.Position, w *HeuristicWeights) float64 {
	score := w.Capture * float64(bits.OnesCount32(mv.Captured))
	if mv.Promote {
		score += w.Promote
	}

	wasKing := parent.Kings&(1<<uint(mv.From)) != 0
	fromRank := int(mv.From) / 4
	toRank := int(mv.To) / 4

	if !wasKing {
		advance := toRank - fromRank
		backRank := 0
		if parent.Side == dama.Black {
			advance = -advance
			backRank = 7
		}
		score += w.Advance * float64(advance)
		if fromRank == backRank {
			score -= w.BackRank
		}
	}

	if centerMask&(1<<uint(mv.To)) != 0 {
		score += w.Center
	}

	// One rules-engine query: is the destination square immediately
	// recapturable by the opponent?
	if w.Threat != 0 && child.Threatened(mv.To) {
		score -= w.Threat
	}
	return score
}

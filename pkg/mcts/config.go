package mcts

import "math/bits"

// HeuristicWeights parameterize the static move evaluation used for
// progressive bias. A zero weight disables its feature; in particular
// a zero Threat weight skips the extra rules-engine query per
// expansion.
type HeuristicWeights struct {
	Capture  float64 // per captured piece
	Promote  float64 // move promotes a man
	Advance  float64 // per rank of forward progress (men only)
	Center   float64 // destination in the four center squares
	BackRank float64 // penalty for evacuating the own back rank
	Threat   float64 // penalty when the destination is immediately recapturable
}

func DefaultHeuristicWeights() HeuristicWeights {
	return HeuristicWeights{
		Capture:  2.0,
		Promote:  1.5,
		Advance:  0.25,
		Center:   0.5,
		BackRank: 0.75,
		Threat:   1.0,
	}
}

// Config is the flat set of search options. The scoring formula is
// selected once per search from the enable flags and then hot-looped;
// there is no dynamic dispatch in the selection path.
type Config struct {
	// Base exploration formula. PUCT takes precedence when enabled and
	// an Inferencer is attached; UCB1Tuned otherwise upgrades UCB1.
	PUCT      bool
	UCB1Tuned bool

	// Optional layers on top of the base formula.
	ProgressiveBias  bool
	FirstPlayUrgency bool
	DecayingReward   bool

	ExplorationParam float64 // C for UCB1 / UCB1-Tuned
	CPuct            float64 // C_puct for PUCT
	BiasConstant     float64 // progressive bias multiplier
	FPUValue         float64 // mean substitute for unvisited children
	DecayFactor      float64 // per-ply reward attenuation, (0, 1]

	Weights HeuristicWeights

	// TreeReuse keeps the subtree of the played move alive across real
	// moves. While a promoted subtree is alive the arena is never
	// reset.
	TreeReuse bool

	// ArenaBytes is the capacity of the per-search (or per-game) node
	// arena. TableSize is the transposition bucket count, rounded up
	// to a power of two; zero disables the table.
	ArenaBytes int
	TableSize  int
}

func DefaultConfig() Config {
	return Config{
		ExplorationParam: 0.75,
		CPuct:            1.4,
		BiasConstant:     1.0,
		FPUValue:         0.45,
		DecayFactor:      0.99,
		Weights:          DefaultHeuristicWeights(),
		TreeReuse:        true,
		ArenaBytes:       64 << 20,
		TableSize:        1 << 16,
	}
}

func ceilPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

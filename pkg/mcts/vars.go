package mcts

import "time"

// Main worker id, which has some privileges, like calling the listener
// during the search.
const mainWorkerId = 0

// Virtual loss value, used in multithreaded search to keep concurrent
// workers from piling onto the same path.
const VirtualLoss int32 = 2

// Temperatures below this threshold collapse the policy to one-hot on
// the most-visited move.
const lowTemperature = 1e-2

// Heuristic penalty given to a move that repeats an ancestor position.
// Large enough that progressive bias steers selection away from the
// cycle for the whole life of the node.
const loopPenalty = -1000.0

// mctsDebug enables invariant assertions (solver contradictions).
// In production builds contradictions degrade to unsolved instead.
const mctsDebug = false

// Maximum number of plies a random playout runs before it is scored as
// a draw.
const maxPlayoutPlies = 250

type SeedGeneratorFnType func() int64

var SeedGeneratorFn SeedGeneratorFnType = func() int64 {
	return time.Now().UnixNano()
}

// SetSeedGeneratorFn installs a custom seed source for the per-worker
// random streams, by default the current time in nanoseconds. Tests
// install a constant here.
func SetSeedGeneratorFn(f SeedGeneratorFnType) {
	if f != nil {
		SeedGeneratorFn = f
	}
}

package mcts

import (
	"fmt"
	"sync/atomic"
)

// NodeStats holds the per-node counters mutated without the node lock.
// Rewards are accumulated as scaled integers with 10^-3 precision so a
// single atomic add suffices; visits and virtual loss are independent
// atomics read with a small CAS-style loop to keep the pair consistent.
type NodeStats struct {
	q   atomic.Uint64 // compounded outcomes, 10^-3 precision
	qsq atomic.Uint64 // compounded squared outcomes, 10^-3 precision

	// Visit counter. Read it through N() or GetVvl, never raw.
	n atomic.Int32

	// Virtual loss currently applied to visits. Always satisfies
	// virtualLoss <= visits as observed through GetVvl.
	virtualLoss atomic.Int32
}

// N returns the visit count, virtual losses included.
func (stats *NodeStats) N() int32 {
	return stats.n.Load()
}

func (stats *NodeStats) VirtualLoss() int32 {
	return stats.virtualLoss.Load()
}

// Q returns the accumulated reward for this node.
func (stats *NodeStats) Q() Result {
	return Result(stats.q.Load()) / 1e3
}

// QSquared returns the accumulated squared reward, used by the
// UCB1-Tuned variance term.
func (stats *NodeStats) QSquared() Result {
	return Result(stats.qsq.Load()) / 1e3
}

// AvgQ returns the mean reward over all visits.
func (stats *NodeStats) AvgQ() Result {
	return stats.Q() / Result(stats.N())
}

// AddOutcome accumulates one backed-up reward and its square.
func (stats *NodeStats) AddOutcome(result Result) {
	stats.q.Add(uint64(result * 1e3))
	stats.qsq.Add(uint64(result * result * 1e3))
}

// GetVvl reads visits and virtual loss as a consistent pair
// (visits >= virtualLoss), returns (visits, virtualLoss).
func (stats *NodeStats) GetVvl() (int32, int32) {
	for {
		visits := stats.n.Load()
		virtualLoss := stats.virtualLoss.Load()
		if virtualLoss <= visits {
			return visits, virtualLoss
		}
	}
}

// RealVisits returns visits minus virtual loss.
func (stats *NodeStats) RealVisits() int32 {
	visits, virtualLoss := stats.GetVvl()
	return visits - virtualLoss
}

// AddVvl adds to both the visit and virtual loss counters.
func (stats *NodeStats) AddVvl(visits, virtualLoss int32) {
	stats.virtualLoss.Add(virtualLoss)
	stats.n.Add(visits)
}

// SetVvl overwrites both counters, used by transposition warm-starts.
func (stats *NodeStats) SetVvl(visits, virtualLoss int32) {
	if virtualLoss > visits {
		panic(fmt.Sprintf("virtual loss (%d) cannot exceed visits (%d)", virtualLoss, visits))
	}
	stats.virtualLoss.Store(virtualLoss)
	stats.n.Store(visits)
}

// setQ overwrites the reward accumulators, used by warm-starts only.
func (stats *NodeStats) setQ(q, qsq Result) {
	stats.q.Store(uint64(q * 1e3))
	stats.qsq.Store(uint64(qsq * 1e3))
}

package mcts

import (
	"math/rand"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
)

// Search runs the configured number of workers against the root and
// blocks until a limit trips or StopSearch is called from elsewhere.
func (t *Tree) Search() {
	t.SearchAsync()
	t.Synchronize()
}

// SearchAsync starts the workers and returns immediately. Call
// Synchronize to wait for them.
func (t *Tree) SearchAsync() {
	t.setupSearch()
	workers := max(1, t.Limiter.Limits().NThreads)
	for id := 0; id < workers; id++ {
		t.wg.Add(1)
		go t.worker(id)
	}
}

// Synchronize blocks until all search workers have exited.
func (t *Tree) Synchronize() {
	t.wg.Wait()
}

// setupSearch resets the counters and the limiter timer. It does not
// touch the tree itself, so repeated searches on the same root keep
// accumulating statistics.
func (t *Tree) setupSearch() {
	t.Limiter.Reset()
	t.cps.Store(0)
	t.cycles.Store(0)
	t.maxdepth.Store(0)
}

// worker is one search thread: select, expand, evaluate, backprop,
// until the shared limiter says stop. Worker 0 has the bookkeeping
// privileges: it freezes the stop reason and drives the listener.
func (t *Tree) worker(workerId int) {
	defer t.wg.Done()
	rng := rand.New(rand.NewSource(SeedGeneratorFn() + int64(workerId)))

	if t.Root.Terminal() {
		if workerId == mainWorkerId {
			t.Limiter.NotifySolved()
			t.Limiter.EvaluateStopReason(t.Size(), uint32(t.MaxDepth()), uint32(t.Cycles()))
			t.Limiter.SetStop(true)
			t.invokeListener(t.listener.onStop)
		}
		return
	}

	for t.Limiter.Ok(t.Size(), uint32(t.MaxDepth()), uint32(t.Cycles())) {
		if err := t.iterate(rng); err != nil {
			// Out of node memory. The tree built so far stays valid,
			// so stop searching and let the caller pick a move.
			t.Limiter.NotifyArenaFull()
			break
		}

		t.cycles.Add(1)
		t.cps.Store(uint32(t.Cycles()) * 1000 / t.Limiter.Elapsed())

		if workerId == mainWorkerId {
			t.listener.invokeCycle(t)
		}
		if t.Root.Status() != Unsolved {
			// Root proven, further iterations cannot change the move.
			t.Limiter.NotifySolved()
			break
		}
	}

	if workerId == mainWorkerId {
		t.Limiter.EvaluateStopReason(t.Size(), uint32(t.MaxDepth()), uint32(t.Cycles()))
	}
	t.Limiter.SetStop(true)

	if workerId == mainWorkerId {
		t.invokeListener(t.listener.onStop)
	}
}

// iterate runs one full cycle. Every path either ends in backprop,
// which settles the virtual loss applied on the way down, or reverts
// the path when the arena fills before a child could be built.
func (t *Tree) iterate(rng *rand.Rand) error {
	node, _ := t.selectLeaf()

	if s := node.Status(); s != Unsolved {
		t.propagateSolved(node)
		t.backprop(node, s.result())
		return nil
	}

	child, err := t.expand(node)
	if err != nil {
		revertPath(node)
		return err
	}

	if s := child.Status(); s != Unsolved {
		t.propagateSolved(child)
		t.backprop(child, s.result())
		return nil
	}

	t.backprop(child, t.evaluate(child, rng))
	return nil
}

// evaluate produces the leaf reward, from the perspective of the side
// to move at node. Under PUCT the value head of the parent's inference
// stands in for a playout; everything else gets a light random
// playout.
func (t *Tree) evaluate(node *Node, rng *rand.Rand) Result {
	if t.usePUCT() {
		if parent := node.Parent; parent != nil && parent.hasValue {
			// The head scores the parent's mover in [-1, 1]; fold to
			// [0, 1] and flip to this node's perspective.
			return Result(1-parent.cachedValue) / 2
		}
	}
	return rollout(node.State, rng)
}

// rollout plays uniformly random moves from state until the game ends
// or the ply cap is hit, scored from the perspective of the side to
// move at state.
func rollout(state dama.Position, rng *rand.Rand) Result {
	mover := state.Side
	for ply := 0; ply < maxPlayoutPlies; ply++ {
		moves := state.LegalMoves()
		if len(moves) == 0 {
			if state.IsNoCaptureDraw() {
				return 0.5
			}
			if state.Side == mover {
				return 0
			}
			return 1
		}
		state = state.Apply(moves[rng.Intn(len(moves))])
	}
	return 0.5
}

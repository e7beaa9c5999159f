package mcts

import (
	"sync"
	"sync/atomic"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/arena"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
)

// Node is one (position, path-from-parent) pair in the search tree.
// All node memory comes from the tree's arena; nodes are never freed
// individually. Structural fields (children count, untried moves, the
// policy cache) are guarded by mu; the counters in NodeStats are
// lock-free atomics read without synchronization during selection.
type Node struct {
	NodeStats

	State dama.Position
	Move  dama.Move // move that produced this position
	hash  uint64

	// Non-owning back-reference; nil for the root and after a
	// promotion during tree reuse.
	Parent *Node

	// children is sized to the branching factor of State at creation,
	// so appending a child never reallocates and the slice header can
	// be read without the lock. nChildren is the number of populated
	// slots: the slot is fully initialized before the count is
	// published, and concurrent readers must load the count before
	// touching slots.
	children  []Node
	nChildren atomic.Int32

	// Remaining unexpanded moves, consumed from the end. Guarded by mu.
	untried []dama.Move

	heuristic float64 // static move quality, set once at creation
	prior     float32 // parent-policy probability of Move, set once

	// Lazily populated policy over the legal moves of this node,
	// normalized to sum 1 and aligned with the initial untried order
	// (moves are only ever popped from the tail, so position i keeps
	// meaning the i-th legal move). Guarded by mu until set.
	// cachedValue is the value head of the same inference, from this
	// node's side-to-move perspective.
	cachedPolicy []float32
	cachedValue  float32
	hasValue     bool

	status   atomic.Int32
	terminal bool // no legal moves, or a forced anti-cycling draw

	mu sync.Mutex
}

// Terminal reports whether the node has no expandable continuations.
// Set during creation; immutable afterwards.
func (n *Node) Terminal() bool {
	return n.terminal
}

func (n *Node) Status() Status {
	return Status(n.status.Load())
}

// setStatus records a solver verdict. Verdicts are permanent: a second
// differing verdict is a solver contradiction, asserted in debug
// builds and ignored in production.
func (n *Node) setStatus(s Status) {
	if n.status.CompareAndSwap(int32(Unsolved), int32(s)) {
		return
	}
	if prev := n.Status(); prev != s && mctsDebug {
		panic("mcts: solver contradiction: " + prev.String() + " -> " + s.String())
	}
}

// NumChildren returns the number of populated child slots.
func (n *Node) NumChildren() int {
	return int(n.nChildren.Load())
}

// ChildAt returns the i-th populated child. The caller must have read
// i < NumChildren().
func (n *Node) ChildAt(i int) *Node {
	return &n.children[i]
}

// Hash returns the cached position hash.
func (n *Node) Hash() uint64 {
	return n.hash
}

// Prior returns the policy probability assigned at creation.
func (n *Node) Prior() float32 {
	return n.prior
}

// UntriedCount returns the number of not-yet-expanded moves.
func (n *Node) UntriedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.untried)
}

// initNode fills a zeroed node in place. It generates the legal moves
// of state, marks terminal nodes with their exact verdict (no moves is
// a loss for the side to move, the no-capture rule a draw) and runs
// the ancestor loop scan. Child arrays and the untried stack are
// allocated from the arena; an exhausted arena is reported to the
// caller, never fatal to the process.
func (t *Tree) initNode(n *Node, parent *Node, mv dama.Move, state dama.Position) error {
	n.State = state
	n.Move = mv
	n.Parent = parent
	n.hash = state.Hash()

	moves := state.LegalMoves()
	if len(moves) == 0 {
		n.terminal = true
		if state.IsNoCaptureDraw() {
			n.setStatus(SolvedDraw)
		} else {
			n.setStatus(SolvedLoss)
		}
		return nil
	}

	// Anti-cycling rule: a position repeating any ancestor's layout is
	// forced into a terminal draw and penalized hard, so the search
	// does not burn iterations re-entering cycles. The comparison
	// ignores the no-capture clock, which strictly increases along any
	// capture-free path back to the ancestor. This is deliberately not
	// a strict repetition-draw adjudication.
	for a := parent; a != nil; a = a.Parent {
		if a.State.SameSquares(state) {
			n.terminal = true
			n.setStatus(SolvedDraw)
			n.heuristic = loopPenalty
			return nil
		}
	}

	n.untried = arena.NewSlice[dama.Move](t.arena, len(moves))
	if n.untried == nil {
		return arena.ErrArenaFull
	}
	copy(n.untried, moves)

	n.children = arena.NewSlice[Node](t.arena, len(moves))
	if n.children == nil {
		return arena.ErrArenaFull
	}

	if parent != nil && t.cfg.ProgressiveBias {
		n.heuristic = moveHeuristic(parent.State, mv, state, &t.cfg.Weights)
	}
	return nil
}

package mcts

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/arena"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
)

// Inferencer is the neural network seen from the search: one call per
// expanded parent under PUCT, with up to two plies of history. Its
// accuracy affects playing strength, never search correctness.
type Inferencer interface {
	Infer(state dama.Position, history []dama.Position) (policy []float32, value float32, err error)
}

// TreeStats are the aggregate counters exposed to the telemetry layer.
type TreeStats struct {
	maxdepth atomic.Int32
	cps      atomic.Uint32
	cycles   atomic.Uint32
}

// Tree is the search engine for one game: it owns the arena every node
// is allocated from, the transposition table, and the current root.
// Multiple workers may run the search loop against it concurrently.
type Tree struct {
	TreeStats
	listener *StatsListener
	Limiter  LimiterLike
	Root     *Node

	cfg   Config
	arena *arena.Arena
	table *Table
	infer Inferencer

	size atomic.Uint32
	wg   sync.WaitGroup
}


// NewTree builds a tree rooted at pos. The arena is created here and
// owns all node memory until Release.
func NewTree(pos dama.Position, cfg Config, infer Inferencer) (*Tree, error) {
	a, err := arena.New(cfg.ArenaBytes)
	if err != nil {
		return nil, err
	}

	listener := NewStatsListener()
	t := &Tree{
		listener: &listener,
		Limiter:  NewLimiter(),
		cfg:      cfg,
		arena:    a,
		table:    NewTable(cfg.TableSize),
		infer:    infer,
	}
	if err := t.newRoot(pos); err != nil {
		a.Release()
		return nil, err
	}
	return t, nil
}

func (t *Tree) newRoot(pos dama.Position) error {
	root := arena.NewObject[Node](t.arena)
	if root == nil {
		return arena.ErrArenaFull
	}
	if err := t.initNode(root, nil, dama.Move{}, pos); err != nil {
		return err
	}
	t.Root = root
	t.size.Store(1)
	t.table.Insert(root)
	return nil
}

func (t *Tree) usePUCT() bool {
	return t.cfg.PUCT && t.infer != nil
}

// Config returns the active search configuration.
func (t *Tree) Config() Config {
	return t.cfg
}

// Release frees the arena. Every node, including the root, becomes
// invalid.
func (t *Tree) Release() {
	t.table.Clear()
	t.Root = nil
	t.arena.Release()
}

// Size returns the number of nodes in the tree (transposition hits are
// separate nodes; the table only shares statistics).
func (t *Tree) Size() uint32 {
	return t.size.Load()
}

// MaxDepth is the maximum depth reached during the search.
func (t *Tree) MaxDepth() int {
	return int(t.maxdepth.Load())
}

// Cycles is the total number of completed iterations.
func (t *Tree) Cycles() int {
	return int(t.cycles.Load())
}

// Cps returns the cycles-per-second rate of the last search.
func (t *Tree) Cps() uint32 {
	return t.cps.Load()
}

func (t *Tree) SetLimits(limits *Limits) {
	t.Limiter.SetLimits(limits)
}

func (t *Tree) SetContext(ctx context.Context) {
	t.Limiter.SetContext(ctx)
}

func (t *Tree) StatsListener() *StatsListener {
	return t.listener
}

func (t *Tree) SetListener(listener StatsListener) {
	*t.listener = listener
}

func (t *Tree) IsSearching() bool {
	return !t.Limiter.Stop()
}

// StopSearch asks running workers to wind down.
func (t *Tree) StopSearch() {
	t.Limiter.SetStop(true)
}

func (t *Tree) String() string {
	return fmt.Sprintf("Tree{Size=%d, MaxDepth=%d, Cycles=%d, Root=%v}",
		t.Size(), t.MaxDepth(), t.Cycles(), t.Root.Move)
}

// BestChild returns the most-visited child of node, ties broken by the
// lowest child index so the choice is deterministic. Proven wins are
// preferred outright; proven losses are avoided while any other child
// exists.
func (t *Tree) BestChild(node *Node) *Node {
	var best, losing *Node
	maxVisits := int32(-1)
	losingVisits := int32(-1)

	n := node.NumChildren()
	for i := 0; i < n; i++ {
		child := node.ChildAt(i)
		switch child.Status() {
		case SolvedLoss:
			// Proven loss for its own mover, a proven win here.
			return child
		case SolvedWin:
			if v := child.RealVisits(); v > losingVisits {
				losingVisits = v
				losing = child
			}
			continue
		}
		if v := child.RealVisits(); v > maxVisits {
			maxVisits = v
			best = child
		}
	}
	if best == nil {
		return losing
	}
	return best
}

// BestMove returns the chosen move at the root.
func (t *Tree) BestMove() (dama.Move, bool) {
	if best := t.BestChild(t.Root); best != nil {
		return best.Move, true
	}
	return dama.Move{}, false
}

// Pv returns the principal variation from the root: the most-visited
// line, cut at terminal nodes.
func (t *Tree) Pv() []dama.Move {
	pv := make([]dama.Move, 0, t.MaxDepth()+1)
	node := t.Root
	for node != nil && node.NumChildren() > 0 {
		node = t.BestChild(node)
		if node == nil {
			break
		}
		pv = append(pv, node.Move)
		if node.Terminal() {
			break
		}
	}
	return pv
}

// RootScore is the mean reward of the chosen child, from the
// perspective of the side to move at the root.
func (t *Tree) RootScore() float64 {
	if best := t.BestChild(t.Root); best != nil && best.N() > 0 {
		return float64(best.AvgQ())
	}
	return 0.5
}

// MakeMove advances the root after mv was played in the real game.
// With tree reuse enabled the matching child is promoted, keeping its
// whole subtree and statistics; the stored child state must equal the
// applied state exactly, otherwise the cache is declared stale and the
// tree rebuilt from scratch. Without reuse the arena is rewound and a
// fresh root is created. The returned flag reports whether the subtree
// survived.
func (t *Tree) MakeMove(mv dama.Move) (reused bool, err error) {
	if t.IsSearching() {
		t.StopSearch()
		t.Synchronize()
	}

	next := t.Root.State.Apply(mv)

	if t.cfg.TreeReuse {
		n := t.Root.NumChildren()
		for i := 0; i < n; i++ {
			child := t.Root.ChildAt(i)
			if child.Move != mv {
				continue
			}
			if child.State != next {
				// Stale cache: never trust a mismatched child.
				break
			}
			child.Parent = nil
			t.Root = child
			t.size.Store(uint32(countTreeNodes(child)))
			t.maxdepth.Store(max(0, t.maxdepth.Load()-1))
			return true, nil
		}
	}

	// Discard and rebuild. All nodes belong to the arena, so a reset
	// reclaims the whole tree at once; the table would dangle.
	t.table.Clear()
	t.arena.Reset()
	if err := t.newRoot(next); err != nil {
		return false, err
	}
	t.maxdepth.Store(0)
	return false, nil
}

// Reset discards the tree and restarts from pos.
func (t *Tree) Reset(pos dama.Position) error {
	if t.IsSearching() {
		t.StopSearch()
		t.Synchronize()
	}
	t.table.Clear()
	t.arena.Reset()
	t.maxdepth.Store(0)
	return t.newRoot(pos)
}

func countTreeNodes(node *Node) int {
	nodes := 1
	n := node.NumChildren()
	for i := 0; i < n; i++ {
		nodes += countTreeNodes(node.ChildAt(i))
	}
	return nodes
}

package mcts

import (
	"fmt"
	"math"
	"os"
	"testing"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
)

func TestMain(m *testing.M) {
	SetSeedGeneratorFn(func() int64 {
		return 42
	})
	fmt.Printf("Using seed %d\n", SeedGeneratorFn())

	os.Exit(m.Run())
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ArenaBytes = 8 << 20
	return cfg
}

func searchCycles(t *testing.T, pos dama.Position, cfg Config, cycles uint32, threads int) *Tree {
	t.Helper()
	tree, err := NewTree(pos, cfg, nil)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	tree.SetLimits(DefaultLimits().SetCycles(cycles).SetThreads(threads))
	tree.Search()
	return tree
}

// One real visit lands on the root per completed iteration, and every
// virtual loss applied on the way down is settled on the way up.
func TestVisitConservationSingleThread(t *testing.T) {
	cfg := testConfig()
	cfg.TableSize = 0 // no warm starts, visits flow through the root only
	tree := searchCycles(t, dama.Initial(), cfg, 2000, 1)
	defer tree.Release()

	root := tree.Root
	if got, want := root.RealVisits(), int32(tree.Cycles()); got != want {
		t.Errorf("root visits = %d, cycles = %d", got, want)
	}
	if vl := root.VirtualLoss(); vl != 0 {
		t.Errorf("root virtual loss = %d after search", vl)
	}

	var children int32
	for i := 0; i < root.NumChildren(); i++ {
		child := root.ChildAt(i)
		children += child.RealVisits()
		if vl := child.VirtualLoss(); vl != 0 {
			t.Errorf("child %v virtual loss = %d after search", child.Move, vl)
		}
	}
	if children != root.RealVisits() {
		t.Errorf("children visits = %d, root visits = %d", children, root.RealVisits())
	}

	if _, ok := tree.BestMove(); !ok {
		t.Error("no best move after search")
	}
	t.Logf("size %d depth %d cps %d eval %.2f pv %v",
		tree.Size(), tree.MaxDepth(), tree.Cps(), tree.RootScore(), tree.Pv())
}

func TestVisitConservationMultiThreaded(t *testing.T) {
	cfg := testConfig()
	cfg.TableSize = 0
	tree := searchCycles(t, dama.Initial(), cfg, 8000, 4)
	defer tree.Release()

	root := tree.Root
	if got, want := root.RealVisits(), int32(tree.Cycles()); got != want {
		t.Errorf("root visits = %d, cycles = %d", got, want)
	}
	if vl := root.VirtualLoss(); vl != 0 {
		t.Errorf("root virtual loss = %d after search", vl)
	}
	if tree.Size() <= 1 {
		t.Error("tree did not grow")
	}
}

func TestTerminalRoot(t *testing.T) {
	// White to move with no pieces: an immediate loss.
	pos := dama.Position{Black: 1 << 28, Side: dama.White}
	tree, err := NewTree(pos, testConfig(), nil)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	defer tree.Release()

	if !tree.Root.Terminal() {
		t.Fatal("root not terminal")
	}
	if s := tree.Root.Status(); s != SolvedLoss {
		t.Fatalf("root status = %v, want loss", s)
	}

	tree.SetLimits(DefaultLimits().SetCycles(100).SetThreads(2))
	tree.Search()
	if _, ok := tree.BestMove(); ok {
		t.Error("best move on a terminal root")
	}
	if r := tree.Limiter.StopReason(); r&StopSolved == 0 {
		t.Errorf("stop reason = %v, want solved", r)
	}

	// At the no-capture threshold the same "no expandable moves" state
	// is an exact draw instead.
	drawn := dama.Initial()
	drawn.NoCapture = dama.NoCaptureLimit
	drawTree, err := NewTree(drawn, testConfig(), nil)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	defer drawTree.Release()
	if !drawTree.Root.Terminal() || drawTree.Root.Status() != SolvedDraw {
		t.Errorf("no-capture root: terminal=%v status=%v, want terminal draw",
			drawTree.Root.Terminal(), drawTree.Root.Status())
	}
}

// White man on 13, lone black man on 17: the mandatory capture wins on
// the spot, and the solver must prove it all the way to the root.
func TestSolverProvesWin(t *testing.T) {
	pos := dama.Position{White: 1 << 13, Black: 1 << 17, Side: dama.White}
	tree := searchCycles(t, pos, testConfig(), 1000, 1)
	defer tree.Release()

	if s := tree.Root.Status(); s != SolvedWin {
		t.Fatalf("root status = %v, want win", s)
	}
	mv, ok := tree.BestMove()
	if !ok {
		t.Fatal("no best move")
	}
	if !mv.IsCapture() || mv.From != 13 || mv.To != 20 {
		t.Errorf("best move = %v, want 13x20", mv)
	}
	if tree.Cycles() >= 1000 {
		t.Error("search did not stop early on a proven root")
	}
	if r := tree.Limiter.StopReason(); r != StopSolved {
		t.Errorf("stop reason = %v, want solved", r)
	}
}

// expandChild fully expands node and returns the child reached by the
// given move, in 1-based draughts notation.
func expandChild(t *testing.T, tree *Tree, node *Node, notation string) *Node {
	t.Helper()
	mv, ok := node.State.FindMove(notation)
	if !ok {
		t.Fatalf("no move %s in\n%v", notation, node.State)
	}
	for node.UntriedCount() > 0 {
		if _, err := tree.expand(node); err != nil {
			t.Fatalf("expand: %v", err)
		}
	}
	for i := 0; i < node.NumChildren(); i++ {
		if c := node.ChildAt(i); c.Move == mv {
			return c
		}
	}
	t.Fatalf("child %s not expanded", notation)
	return nil
}

// Two lone kings shuffling out and back reproduce the root layout
// after four plies. Only the no-capture clock distinguishes the two
// visits, so the repetition scan must ignore it and force the
// repeating node into a penalized terminal draw.
func TestRepetitionForcedDraw(t *testing.T) {
	pos := dama.Position{
		White: 1 << 0,
		Black: 1 << 31,
		Kings: 1<<0 | 1<<31,
		Side:  dama.White,
	}
	tree, err := NewTree(pos, testConfig(), nil)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	defer tree.Release()

	node := tree.Root
	for _, notation := range []string{"1-5", "32-28", "5-1", "28-32"} {
		node = expandChild(t, tree, node, notation)
	}

	if !node.State.SameSquares(pos) {
		t.Fatalf("shuffle did not return to the root layout:\n%v", node.State)
	}
	if node.State == pos {
		t.Fatal("no-capture clock did not advance along the cycle")
	}
	if !node.Terminal() {
		t.Error("repeating node not terminal")
	}
	if s := node.Status(); s != SolvedDraw {
		t.Errorf("repeating node status = %v, want draw", s)
	}
	if node.heuristic != loopPenalty {
		t.Errorf("repeating node heuristic = %v, want %v", node.heuristic, loopPenalty)
	}

	// The sibling continuations do not repeat and stay expandable.
	for i := 0; i < node.Parent.NumChildren(); i++ {
		if c := node.Parent.ChildAt(i); c != node && c.Terminal() {
			t.Errorf("non-repeating child %v marked terminal", c.Move)
		}
	}
}

func TestPolicyNormalization(t *testing.T) {
	tree := searchCycles(t, dama.Initial(), testConfig(), 3000, 1)
	defer tree.Release()

	policy := tree.Policy(1.0)
	if len(policy) != dama.ActionSpace {
		t.Fatalf("policy length = %d", len(policy))
	}
	var sum float64
	for _, p := range policy {
		if p < 0 {
			t.Fatalf("negative probability %f", p)
		}
		sum += float64(p)
	}
	if math.Abs(sum-1) > 1e-4 {
		t.Errorf("policy sums to %f", sum)
	}
}

func TestPolicyLowTemperatureOneHot(t *testing.T) {
	tree := searchCycles(t, dama.Initial(), testConfig(), 3000, 1)
	defer tree.Release()

	mv, ok := tree.BestMove()
	if !ok {
		t.Fatal("no best move")
	}

	policy := tree.Policy(1e-3)
	for idx, p := range policy {
		want := float32(0)
		if idx == mv.Index() {
			want = 1
		}
		if p != want {
			t.Errorf("policy[%d] = %f, want %f", idx, p, want)
		}
	}
}

func TestTransposedChildWarmStart(t *testing.T) {
	pos := dama.Initial()
	tree, err := NewTree(pos, testConfig(), nil)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	defer tree.Release()

	// Seed the table with a well-explored entry for one of the root's
	// children, as if it had been reached through another move order.
	moves := pos.LegalMoves()
	target := pos.Apply(moves[0])
	entry := &Node{State: target, hash: target.Hash()}
	entry.SetVvl(37, 0)
	entry.setQ(20, 14)
	entry.setStatus(SolvedDraw)
	tree.table.Insert(entry)

	for tree.Root.UntriedCount() > 0 {
		if _, err := tree.expand(tree.Root); err != nil {
			t.Fatalf("expand: %v", err)
		}
	}

	var child *Node
	for i := 0; i < tree.Root.NumChildren(); i++ {
		if c := tree.Root.ChildAt(i); c.State == target {
			child = c
			break
		}
	}
	if child == nil {
		t.Fatal("target child not expanded")
	}
	if got := child.RealVisits(); got < 37 {
		t.Errorf("warm-started visits = %d, want >= 37", got)
	}
	if got := child.Q(); got != 20 {
		t.Errorf("warm-started reward = %v, want 20", got)
	}
	if s := child.Status(); s != SolvedDraw {
		t.Errorf("warm-started status = %v, want draw", s)
	}
}

func TestTableQualityReplacement(t *testing.T) {
	table := NewTable(8)
	pos := dama.Initial()

	strong := &Node{State: pos, hash: pos.Hash()}
	strong.SetVvl(10, 0)
	table.Insert(strong)

	weak := &Node{State: pos, hash: pos.Hash()}
	weak.SetVvl(3, 0)
	table.Insert(weak)
	if got := table.Lookup(pos.Hash(), pos); got != strong {
		t.Error("weaker node replaced a stronger incumbent")
	}

	stronger := &Node{State: pos, hash: pos.Hash()}
	stronger.SetVvl(25, 0)
	table.Insert(stronger)
	if got := table.Lookup(pos.Hash(), pos); got != stronger {
		t.Error("stronger node did not replace the incumbent")
	}

	// Hash match alone is not enough, the full state must agree.
	other := pos.Apply(pos.LegalMoves()[0])
	if got := table.Lookup(pos.Hash(), other); got != nil {
		t.Error("lookup matched a different state")
	}
}

func TestTreeReuseKeepsSubtree(t *testing.T) {
	tree := searchCycles(t, dama.Initial(), testConfig(), 4000, 1)
	defer tree.Release()

	mv, ok := tree.BestMove()
	if !ok {
		t.Fatal("no best move")
	}
	kept := tree.BestChild(tree.Root).RealVisits()

	reused, err := tree.MakeMove(mv)
	if err != nil {
		t.Fatalf("MakeMove: %v", err)
	}
	if !reused {
		t.Fatal("subtree not reused")
	}
	if tree.Root.Parent != nil {
		t.Error("promoted root keeps a parent")
	}
	if got := tree.Root.RealVisits(); got != kept {
		t.Errorf("promoted root visits = %d, want %d", got, kept)
	}
	if tree.Root.Move != mv {
		t.Errorf("promoted root move = %v, want %v", tree.Root.Move, mv)
	}
}

func TestMakeMoveWithoutReuseRebuilds(t *testing.T) {
	cfg := testConfig()
	cfg.TreeReuse = false
	tree := searchCycles(t, dama.Initial(), cfg, 1000, 1)
	defer tree.Release()

	mv, _ := tree.BestMove()
	reused, err := tree.MakeMove(mv)
	if err != nil {
		t.Fatalf("MakeMove: %v", err)
	}
	if reused {
		t.Fatal("reuse disabled but subtree survived")
	}
	if tree.Size() != 1 {
		t.Errorf("rebuilt tree size = %d, want 1", tree.Size())
	}
	if tree.Root.State != dama.Initial().Apply(mv) {
		t.Error("rebuilt root holds the wrong position")
	}
}

// An arena too small for the search must stop it gracefully with a
// memory stop reason, leaving a usable partial tree.
func TestArenaExhaustionStopsSearch(t *testing.T) {
	cfg := testConfig()
	cfg.ArenaBytes = 16 << 10
	tree := searchCycles(t, dama.Initial(), cfg, 1_000_000, 2)
	defer tree.Release()

	if reason := tree.Limiter.StopReason(); reason&StopMemory == 0 {
		t.Errorf("stop reason = %v, want memory", reason)
	}
	if _, ok := tree.BestMove(); !ok {
		t.Error("no best move from the partial tree")
	}
	if vl := tree.Root.VirtualLoss(); vl != 0 {
		t.Errorf("root virtual loss = %d after aborted iteration", vl)
	}
}

// Every optional scoring layer enabled at once still conserves visits.
func TestAllFormulaLayers(t *testing.T) {
	cfg := testConfig()
	cfg.UCB1Tuned = true
	cfg.ProgressiveBias = true
	cfg.FirstPlayUrgency = true
	cfg.DecayingReward = true
	tree := searchCycles(t, dama.Initial(), cfg, 3000, 4)
	defer tree.Release()

	if got, want := tree.Root.RealVisits(), int32(tree.Cycles()); got != want {
		t.Errorf("root visits = %d, cycles = %d", got, want)
	}
	if _, ok := tree.BestMove(); !ok {
		t.Error("no best move")
	}
}

// uniformInfer is a network stand-in: equal mass on every action and a
// neutral value.
type uniformInfer struct{ calls int }

func (u *uniformInfer) Infer(state dama.Position, history []dama.Position) ([]float32, float32, error) {
	u.calls++
	policy := make([]float32, dama.ActionSpace)
	for i := range policy {
		policy[i] = 1
	}
	return policy, 0, nil
}

func TestPUCTPriorsOverLegalMoves(t *testing.T) {
	cfg := testConfig()
	cfg.PUCT = true
	infer := &uniformInfer{}

	tree, err := NewTree(dama.Initial(), cfg, infer)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	defer tree.Release()
	tree.SetLimits(DefaultLimits().SetCycles(2000).SetThreads(1))
	tree.Search()

	root := tree.Root
	if root.UntriedCount() != 0 {
		t.Fatal("root not fully expanded")
	}

	var sum float32
	for i := 0; i < root.NumChildren(); i++ {
		p := root.ChildAt(i).Prior()
		if p <= 0 {
			t.Errorf("child %d prior = %f", i, p)
		}
		sum += p
	}
	if math.Abs(float64(sum)-1) > 1e-4 {
		t.Errorf("priors sum to %f", sum)
	}

	// One inference per expanded parent, never one per child.
	expanded := countExpandedParents(root)
	if infer.calls > expanded {
		t.Errorf("%d inferences for %d expanded parents", infer.calls, expanded)
	}
}

func countExpandedParents(node *Node) int {
	count := 0
	if node.NumChildren() > 0 {
		count = 1
	}
	for i := 0; i < node.NumChildren(); i++ {
		count += countExpandedParents(node.ChildAt(i))
	}
	return count
}

func TestListenerCallbacks(t *testing.T) {
	tree, err := NewTree(dama.Initial(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	defer tree.Release()

	var depths, stops int
	tree.StatsListener().
		OnDepth(func(stats ListenerStats) { depths++ }).
		OnStop(func(stats ListenerStats) {
			stops++
			if stats.StopReason&StopCycles == 0 {
				t.Errorf("stop reason = %v, want cycles", stats.StopReason)
			}
		})

	tree.SetLimits(DefaultLimits().SetCycles(500).SetThreads(1))
	tree.Search()

	if depths == 0 {
		t.Error("depth callback never fired")
	}
	if stops != 1 {
		t.Errorf("stop callback fired %d times, want 1", stops)
	}
}

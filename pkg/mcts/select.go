package mcts

import "math"

// selectLeaf descends from the root by repeatedly taking the child
// maximizing the configured score until it reaches a node that still
// has untried moves, a terminal node, or a solved one. Virtual loss is
// applied to every node descended into so concurrent workers spread
// out; backpropagation reverts it. Returns the stopping node and its
// depth.
func (t *Tree) selectLeaf() (*Node, int32) {
	node := t.Root
	depth := int32(0)

	for {
		if node.Terminal() || node.Status() != Unsolved {
			break
		}
		node.mu.Lock()
		hasUntried := len(node.untried) > 0
		node.mu.Unlock()
		if hasUntried {
			break
		}
		if node.NumChildren() == 0 {
			// Cannot happen for a non-terminal node with an empty
			// untried stack, but a fresh race can show it briefly.
			break
		}

		next := t.selectChild(node)
		next.AddVvl(VirtualLoss, VirtualLoss)
		node = next
		depth++
	}

	if t.maxdepth.Load() < depth {
		t.maxdepth.Store(depth)
		t.invokeListener(t.listener.onDepth)
	}
	return node, depth
}

// selectChild picks the highest-scoring child of parent. Solver
// verdicts short-circuit the formula: a child that is a proven loss
// for its own mover is a proven win here and is taken deterministically;
// a child that is a proven win for its mover is a proven loss here and
// is never preferred while an unproven or drawn sibling exists.
func (t *Tree) selectChild(parent *Node) *Node {
	n := parent.NumChildren()

	var best, fallback *Node
	bestScore := math.Inf(-1)

	parentVisits := float64(parent.N())
	lnParent := math.Log(math.Max(parentVisits, 1))
	sqrtParent := math.Sqrt(math.Max(parentVisits, 1))

	for i := 0; i < n; i++ {
		child := parent.ChildAt(i)

		switch child.Status() {
		case SolvedLoss:
			return child
		case SolvedWin:
			// Losing move; keep only as a last resort.
			if fallback == nil {
				fallback = child
			}
			continue
		}

		score := t.scoreChild(child, lnParent, sqrtParent)
		if score > bestScore {
			bestScore = score
			best = child
		}
	}

	if best == nil {
		return fallback
	}
	return best
}

// scoreChild composes the configured exploration formula. Counters are
// read without locks; an eventually-consistent score is part of the
// algorithm, not a defect.
func (t *Tree) scoreChild(child *Node, lnParent, sqrtParent float64) float64 {
	visits, _ := child.GetVvl()
	fvisits := float64(visits)

	// Exploitation term. Virtual losses stay in the denominator, which
	// is exactly the pessimism that diversifies concurrent workers.
	var mean float64
	switch {
	case child.Status() == SolvedDraw:
		mean = 0.5
	case visits > 0:
		mean = float64(child.Q()) / fvisits
	case t.cfg.FirstPlayUrgency:
		mean = t.cfg.FPUValue
	default:
		// Unvisited children first, in slot order.
		return math.Inf(1)
	}

	var exploration float64
	switch {
	case t.usePUCT():
		exploration = t.cfg.CPuct * float64(child.prior) * sqrtParent / (1 + fvisits)
	case t.cfg.UCB1Tuned && visits > 0:
		meanSq := float64(child.QSquared()) / fvisits
		variance := meanSq - mean*mean + math.Sqrt(2*lnParent/fvisits)
		exploration = t.cfg.ExplorationParam * math.Sqrt(lnParent/fvisits*math.Min(0.25, variance))
	case visits > 0:
		exploration = t.cfg.ExplorationParam * math.Sqrt(lnParent/fvisits)
	default:
		// FPU with zero visits: exploration from the prior-free
		// formulas is undefined, leave the urgency value alone.
	}

	score := mean + exploration
	if t.cfg.ProgressiveBias {
		score += t.cfg.BiasConstant * child.heuristic / (1 + fvisits)
	}
	return score
}

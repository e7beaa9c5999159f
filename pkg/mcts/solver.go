package mcts

// propagateSolved pushes an exact verdict from node toward the root.
// One losing reply proves the parent won. A parent with every move
// proven takes the best of them: a loss when all replies win for the
// opponent, a draw when at least one reply holds the balance. The walk
// stops at the first parent that stays unproven.
func (t *Tree) propagateSolved(node *Node) {
	n := node
	for n.Status() != Unsolved {
		parent := n.Parent
		if parent == nil {
			return
		}

		if n.Status() == SolvedLoss {
			parent.setStatus(SolvedWin)
		} else {
			verdict, proven := allProvenVerdict(parent)
			if !proven {
				return
			}
			parent.setStatus(verdict)
		}
		n = parent
	}
}

// allProvenVerdict computes the parent verdict once every continuation
// is proven. Unexpanded moves count as unproven.
func allProvenVerdict(parent *Node) (Status, bool) {
	parent.mu.Lock()
	remaining := len(parent.untried)
	parent.mu.Unlock()
	if remaining > 0 {
		return Unsolved, false
	}

	n := parent.NumChildren()
	if n == 0 {
		return Unsolved, false
	}

	verdict := SolvedLoss
	for i := 0; i < n; i++ {
		switch parent.ChildAt(i).Status() {
		case Unsolved:
			return Unsolved, false
		case SolvedLoss:
			return SolvedWin, true
		case SolvedDraw:
			verdict = SolvedDraw
		}
	}
	return verdict, true
}

package mcts

// backprop carries result up to the root. result enters from the
// perspective of the side to move at node and is flipped once per
// level, so every node on the path accumulates reward from the
// perspective of the player who moved into it. With decaying rewards
// the deviation from a draw shrinks each level, making distant
// evaluations count for less than near ones.
//
// Visit bookkeeping reverses the virtual loss applied on the way down:
// each non-root node traded VirtualLoss visits for VirtualLoss losses
// during descent, so the net effect of one iteration is exactly one
// real visit everywhere on the path.
func (t *Tree) backprop(node *Node, result Result) {
	result = 1 - result
	for n := node; n != nil; n = n.Parent {
		n.AddOutcome(result)
		if n.Parent == nil {
			n.AddVvl(1, 0)
		} else {
			n.AddVvl(1-VirtualLoss, -VirtualLoss)
		}

		result = 1 - result
		if t.cfg.DecayingReward {
			result = 0.5 + (result-0.5)*Result(t.cfg.DecayFactor)
		}
	}
}

// revertPath removes the virtual loss applied during a descent that
// could not complete, typically because the arena filled up before a
// child was built. node is the deepest node that received the loss.
func revertPath(node *Node) {
	for n := node; n != nil && n.Parent != nil; n = n.Parent {
		n.AddVvl(-VirtualLoss, -VirtualLoss)
	}
}

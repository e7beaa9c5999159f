package mcts

import (
	"math"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/arena"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
)

// expand pops one untried move from node and builds the child in the
// next free slot. The slot is fully initialized, warm-started from the
// transposition table and only then published through the child count,
// so lock-free readers never observe a half-built node. Returns node
// itself when another worker drained the untried stack first.
func (t *Tree) expand(node *Node) (*Node, error) {
	node.mu.Lock()

	if len(node.untried) == 0 {
		node.mu.Unlock()
		return node, nil
	}

	// First expansion of this parent: the untried stack still holds
	// the full legal move list, so this is the one moment the network
	// policy can be normalized over exactly the legal moves.
	if t.usePUCT() && node.cachedPolicy == nil {
		if err := t.cachePolicyLocked(node); err != nil {
			node.mu.Unlock()
			return nil, err
		}
	}

	last := len(node.untried) - 1
	mv := node.untried[last]
	node.untried = node.untried[:last]

	idx := node.nChildren.Load()
	child := &node.children[idx]

	if err := t.initNode(child, node, mv, node.State.Apply(mv)); err != nil {
		node.untried = node.untried[:last+1]
		node.mu.Unlock()
		return nil, err
	}
	if node.cachedPolicy != nil {
		child.prior = node.cachedPolicy[last]
	}

	// Warm start: a node already reached through a different move
	// order seeds the statistics of this one. Terminal nodes carry an
	// exact verdict and skip it; a repetition child would otherwise
	// inherit the stats of the very ancestor it repeats.
	if entry := t.table.Lookup(child.hash, child.State); !child.terminal && entry != nil && entry != child {
		if visits := entry.RealVisits(); visits > 0 {
			child.SetVvl(visits, 0)
			child.setQ(entry.Q(), entry.QSquared())
		}
		if s := entry.Status(); s != Unsolved {
			child.setStatus(s)
		}
	}

	node.nChildren.Store(idx + 1)
	node.mu.Unlock()

	// Terminal verdicts are re-derived exactly on every expansion, and
	// a repetition draw only holds relative to this path, so terminal
	// nodes stay out of the table.
	if !child.terminal {
		t.table.Insert(child)
	}
	t.size.Add(1)

	child.AddVvl(VirtualLoss, VirtualLoss)
	return child, nil
}

// cachePolicyLocked runs one inference for node and stores its policy
// renormalized over the legal moves plus the value head. Called with
// node.mu held, before the first child is popped. An inference failure
// degrades to a uniform policy so the search keeps going.
func (t *Tree) cachePolicyLocked(node *Node) error {
	legal := node.untried

	policy := arena.NewSlice[float32](t.arena, len(legal))
	if policy == nil {
		return arena.ErrArenaFull
	}

	raw, value, err := t.infer.Infer(node.State, t.historyFor(node))
	if err != nil {
		uniformPolicy(policy)
		node.cachedPolicy = policy
		return nil
	}

	// Max-shifted softmax over the legal logits only; illegal actions
	// never receive mass.
	maxLogit := float32(math.Inf(-1))
	for _, mv := range legal {
		if l := raw[mv.Index()]; l > maxLogit {
			maxLogit = l
		}
	}
	var sum float32
	for i, mv := range legal {
		p := float32(math.Exp(float64(raw[mv.Index()] - maxLogit)))
		policy[i] = p
		sum += p
	}
	if sum > 0 {
		for i := range policy {
			policy[i] /= sum
		}
	} else {
		uniformPolicy(policy)
	}

	node.cachedPolicy = policy
	node.cachedValue = value
	node.hasValue = true
	return nil
}

func uniformPolicy(policy []float32) {
	p := 1 / float32(len(policy))
	for i := range policy {
		policy[i] = p
	}
}

// historyFor returns up to two predecessor positions of node, oldest
// first, for the network input planes.
func (t *Tree) historyFor(node *Node) []dama.Position {
	history := make([]dama.Position, 0, 2)
	if node.Parent != nil {
		if gp := node.Parent.Parent; gp != nil {
			history = append(history, gp.State)
		}
		history = append(history, node.Parent.State)
	}
	return history
}

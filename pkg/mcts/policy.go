package mcts

import (
	"math"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
)

// Policy converts the root visit distribution into a probability
// vector over the move-index space, for training targets and move
// sampling. Temperature shapes it: 1 reproduces the visit proportions,
// higher values flatten, lower sharpen, and anything below the
// low-temperature threshold collapses to one-hot on the best child.
// Distinct capture chains sharing a from/to pair fold into the same
// index.
func (t *Tree) Policy(temperature float64) []float32 {
	policy := make([]float32, dama.ActionSpace)
	root := t.Root
	n := root.NumChildren()
	if n == 0 {
		return policy
	}

	if temperature < lowTemperature {
		if best := t.BestChild(root); best != nil {
			policy[best.Move.Index()] = 1
		}
		return policy
	}

	inv := 1 / temperature
	var sum float64
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		child := root.ChildAt(i)
		w := math.Pow(float64(child.RealVisits()), inv)
		weights[i] = w
		sum += w
	}
	if sum == 0 {
		return policy
	}

	for i := 0; i < n; i++ {
		policy[root.ChildAt(i).Move.Index()] += float32(weights[i] / sum)
	}
	return policy
}

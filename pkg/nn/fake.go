package nn

import (
	"math"
	"math/bits"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
)

// Fake is a deterministic stand-in for a trained network: flat policy
// logits and a material-count value head. It keeps the PUCT machinery
// testable without onnxruntime and gives self-play a stable baseline
// opponent.
type Fake struct{}

// Kings weigh three men in the material balance.
const kingWeight = 3

func (Fake) Infer(state dama.Position, history []dama.Position) ([]float32, float32, error) {
	policy := make([]float32, dama.ActionSpace)

	whiteMen := bits.OnesCount32(state.White &^ state.Kings)
	whiteKings := bits.OnesCount32(state.White & state.Kings)
	blackMen := bits.OnesCount32(state.Black &^ state.Kings)
	blackKings := bits.OnesCount32(state.Black & state.Kings)

	balance := float64(whiteMen-blackMen) + kingWeight*float64(whiteKings-blackKings)
	if state.Side == dama.Black {
		balance = -balance
	}

	// Squash to (-1, 1); a two-man edge is already a clear advantage.
	value := float32(math.Tanh(balance / 4))
	return policy, value, nil
}

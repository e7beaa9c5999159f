package mcts

// Result of an evaluation, in [0, 1]: 0 is a loss from the perspective
// of the side to move at the evaluated node, 1 a win, 0.5 a draw.
type Result float64

// Status is the exact solver verdict for a node, from the perspective
// of the side to move at that node. Once a node leaves Unsolved the
// verdict is permanent.
type Status int32

const (
	Unsolved Status = iota
	SolvedWin
	SolvedLoss
	SolvedDraw
)

func (s Status) String() string {
	switch s {
	case SolvedWin:
		return "win"
	case SolvedLoss:
		return "loss"
	case SolvedDraw:
		return "draw"
	default:
		return "unsolved"
	}
}

// result is the reward the verdict stands for, from the node's own
// perspective.
func (s Status) result() Result {
	switch s {
	case SolvedWin:
		return 1
	case SolvedLoss:
		return 0
	default:
		return 0.5
	}
}

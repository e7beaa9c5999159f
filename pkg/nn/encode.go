// Package nn feeds positions to a policy/value network and exposes the
// results to the search. The network is optional: the engine falls
// back to random playouts without one.
package nn

import "github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"

// Input layout: 12 planes of 8x4 (the playable squares of the board),
// always from the side-to-move perspective. Four piece planes (own
// men, own kings, enemy men, enemy kings) for the current position and
// for each of the two preceding positions; absent history leaves its
// planes zero.
const (
	GridRanks  = 8
	GridFiles  = 4
	PlaneSize  = GridRanks * GridFiles
	FeatPlanes = 12
	FeatSize   = FeatPlanes * PlaneSize

	HistoryLen = 2
)

// Encode fills dst (length FeatSize) with the feature planes for
// state. history holds up to HistoryLen predecessor positions, oldest
// first; the perspective is always that of state's side to move.
func Encode(state dama.Position, history []dama.Position, dst []float32) {
	for i := range dst {
		dst[i] = 0
	}

	me := state.Side
	encodePosition(state, me, dst[0:])
	// Most recent history first, so plane meaning is stable when the
	// history is short.
	for i := 0; i < HistoryLen && i < len(history); i++ {
		p := history[len(history)-1-i]
		encodePosition(p, me, dst[(i+1)*4*PlaneSize:])
	}
}

func encodePosition(p dama.Position, me dama.Color, dst []float32) {
	var own, enemy uint32
	if me == dama.White {
		own, enemy = p.White, p.Black
	} else {
		own, enemy = p.Black, p.White
	}

	for sq := 0; sq < 32; sq++ {
		bit := uint32(1) << uint(sq)
		king := p.Kings&bit != 0
		switch {
		case own&bit != 0 && !king:
			dst[0*PlaneSize+sq] = 1
		case own&bit != 0:
			dst[1*PlaneSize+sq] = 1
		case enemy&bit != 0 && !king:
			dst[2*PlaneSize+sq] = 1
		case enemy&bit != 0:
			dst[3*PlaneSize+sq] = 1
		}
	}
}

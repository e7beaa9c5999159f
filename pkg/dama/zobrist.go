package dama

// Zobrist keys for position hashing. The tables are filled from a
// fixed-seed generator so hashes are stable across runs and across
// processes, which the self-play dataset relies on.

import "math/rand"

var (
	zobristPiece [2][2][32]uint64 // [color][isKing][square]
	zobristSide  uint64
	zobristNoCap [NoCaptureLimit + 1]uint64
)

func initZobrist() {
	rng := rand.New(rand.NewSource(0x6d637473_64616d61))
	for c := 0; c < 2; c++ {
		for k := 0; k < 2; k++ {
			for s := 0; s < 32; s++ {
				zobristPiece[c][k][s] = rng.Uint64()
			}
		}
	}
	zobristSide = rng.Uint64()
	for i := range zobristNoCap {
		zobristNoCap[i] = rng.Uint64()
	}
}

// Hash returns the deterministic position hash. The no-capture counter
// participates: positions that differ only in the counter transpose to
// different table entries, matching the equality rule.
func (p Position) Hash() uint64 {
	var h uint64
	for s := int8(0); s < 32; s++ {
		b := bit(s)
		switch {
		case p.White&b != 0:
			h ^= zobristPiece[White][kingIdx(p.Kings&b != 0)][s]
		case p.Black&b != 0:
			h ^= zobristPiece[Black][kingIdx(p.Kings&b != 0)][s]
		}
	}
	if p.Side == Black {
		h ^= zobristSide
	}
	nc := p.NoCapture
	if nc > NoCaptureLimit {
		nc = NoCaptureLimit
	}
	return h ^ zobristNoCap[nc]
}

func kingIdx(king bool) int {
	if king {
		return 1
	}
	return 0
}

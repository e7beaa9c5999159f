// Package dama implements the rules of Italian draughts on the
// standard 8x8 board. Only the 32 dark squares are playable; they are
// indexed 0..31 from white's back rank upward. The package is the
// authoritative move generator and position hasher for the search
// engine: everything here is pure and deterministic given the same
// position.
package dama

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opponent() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// NoCaptureLimit is the number of plies without a capture or a man
// advance after which the game is drawn.
const NoCaptureLimit = 80

// ActionSpace is the size of the fixed move-index space used for
// policy vectors: from*32 + to over the 32 playable squares.
const ActionSpace = 32 * 32

// Position is a full game state. It is small and comparable: the
// search copies it by value into every node and relies on == to reject
// hash collisions.
type Position struct {
	White     uint32 // occupancy of white men and kings
	Black     uint32 // occupancy of black men and kings
	Kings     uint32 // king squares of both colors
	Side      Color  // side to move
	NoCapture uint8  // plies since the last capture or man advance
}

// Move is one full move: for capture chains To is the final landing
// square and Captured holds every removed piece.
type Move struct {
	From     int8
	To       int8
	Captured uint32
	Promote  bool
}

// SameSquares reports whether p and q place the same pieces with the
// same side to move, ignoring the no-capture clock. This is the
// equality repetition detection needs: any path back to an earlier
// layout is capture-free, so the clock always differs between the two
// visits and full == can never match.
func (p Position) SameSquares(q Position) bool {
	return p.White == q.White && p.Black == q.Black &&
		p.Kings == q.Kings && p.Side == q.Side
}

// IsCapture reports whether the move removes at least one piece.
func (m Move) IsCapture() bool {
	return m.Captured != 0
}

// Index maps the move into the fixed 1024-slot action space.
func (m Move) Index() int {
	return int(m.From)*32 + int(m.To)
}

func bit(s int8) uint32 {
	return 1 << uint(s)
}

// Geometry. rank = s/4; file = 2*(s%4) + (rank&1). Directions are
// indexed NE, NW, SE, SW where north is increasing rank (white's
// forward direction).
const (
	dirNE = iota
	dirNW
	dirSE
	dirSW
)

var (
	step [32][4]int8 // adjacent diagonal square per direction, -1 off board
	jump [32][4]int8 // square two diagonal steps away, -1 off board
)

func squareAt(rank, file int) int8 {
	if rank < 0 || rank > 7 || file < 0 || file > 7 {
		return -1
	}
	if (rank+file)%2 != 0 {
		return -1
	}
	return int8(rank*4 + file/2)
}

func init() {
	offsets := [4][2]int{
		dirNE: {1, 1},
		dirNW: {1, -1},
		dirSE: {-1, 1},
		dirSW: {-1, -1},
	}
	for s := int8(0); s < 32; s++ {
		rank := int(s) / 4
		file := 2*(int(s)%4) + rank&1
		for d, off := range offsets {
			step[s][d] = squareAt(rank+off[0], file+off[1])
			jump[s][d] = squareAt(rank+2*off[0], file+2*off[1])
		}
	}
	initZobrist()
}

// Initial returns the starting position: twelve men per side on the
// first three ranks, white to move.
func Initial() Position {
	return Position{
		White: 0x00000fff,
		Black: 0xfff00000,
		Side:  White,
	}
}

func (p Position) occupied() uint32 {
	return p.White | p.Black
}

func (p Position) own() uint32 {
	if p.Side == White {
		return p.White
	}
	return p.Black
}

func (p Position) enemy() uint32 {
	if p.Side == White {
		return p.Black
	}
	return p.White
}

func promoRank(c Color) int {
	if c == White {
		return 7
	}
	return 0
}

// forwardDirs returns the two forward directions for a man of color c.
func forwardDirs(c Color) [2]int {
	if c == White {
		return [2]int{dirNE, dirNW}
	}
	return [2]int{dirSE, dirSW}
}

var allDirs = [4]int{dirNE, dirNW, dirSE, dirSW}

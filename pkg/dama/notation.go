package dama

import (
	"fmt"
	"strings"
)

// Squares are numbered 1..32 in the usual draughts manner.

func (m Move) String() string {
	sep := "-"
	if m.IsCapture() {
		sep = "x"
	}
	return fmt.Sprintf("%d%s%d", m.From+1, sep, m.To+1)
}

func (p Position) String() string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			s := squareAt(rank, file)
			switch {
			case s < 0:
				b.WriteByte('.')
			case p.White&bit(s) != 0 && p.Kings&bit(s) != 0:
				b.WriteByte('W')
			case p.White&bit(s) != 0:
				b.WriteByte('w')
			case p.Black&bit(s) != 0 && p.Kings&bit(s) != 0:
				b.WriteByte('B')
			case p.Black&bit(s) != 0:
				b.WriteByte('b')
			default:
				b.WriteByte('-')
			}
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s to move, no-capture %d\n", p.Side, p.NoCapture)
	return b.String()
}

// FindMove resolves a "from-to"/"fromxto" string (1-based squares)
// against the legal moves of the position. Capture chains are matched
// on origin and final landing square.
func (p Position) FindMove(notation string) (Move, bool) {
	var from, to int
	if _, err := fmt.Sscanf(notation, "%dx%d", &from, &to); err != nil {
		if _, err := fmt.Sscanf(notation, "%d-%d", &from, &to); err != nil {
			return Move{}, false
		}
	}
	for _, m := range p.LegalMoves() {
		if int(m.From)+1 == from && int(m.To)+1 == to {
			return m, true
		}
	}
	return Move{}, false
}

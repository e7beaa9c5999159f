package dama

// LegalMoves generates every legal move for the side to move.
// Captures are mandatory: when at least one capture exists only
// captures are returned. Capture chains must be played to completion;
// a man promoting mid-chain stops there, per the Italian rule.
// Generation order is deterministic (ascending origin square, fixed
// direction order), which callers rely on for tie breaking.
func (p Position) LegalMoves() []Move {
	if p.IsNoCaptureDraw() {
		return nil
	}
	if moves := p.captureMoves(); len(moves) > 0 {
		return moves
	}
	return p.quietMoves()
}

// HasLegalMoves avoids building the full list when only terminality
// matters.
func (p Position) HasLegalMoves() bool {
	return len(p.LegalMoves()) > 0
}

func (p Position) captureMoves() []Move {
	var moves []Move
	own := p.own()
	for s := int8(0); s < 32; s++ {
		if own&bit(s) == 0 {
			continue
		}
		p.chainFrom(s, s, p.Kings&bit(s) != 0, 0, &moves)
	}
	return moves
}

// chainFrom extends a capture chain for the piece that started on
// origin and currently sits (virtually) on cur. Captured pieces stay
// on the board until the move completes: they still block landing
// squares, but the captured mask keeps them from being jumped twice.
// A man may only jump enemy men (Italian rule); kings jump anything.
func (p Position) chainFrom(origin, cur int8, king bool, captured uint32, moves *[]Move) bool {
	enemy := p.enemy()
	capturable := enemy
	if !king {
		capturable &^= p.Kings
	}
	// The moving piece is off its origin square for the whole chain.
	occupied := p.occupied() &^ bit(origin)

	dirs := allDirs[:]
	if !king {
		fd := forwardDirs(p.Side)
		dirs = fd[:]
	}

	extended := false
	for _, d := range dirs {
		mid := step[cur][d]
		land := jump[cur][d]
		if mid < 0 || land < 0 {
			continue
		}
		if capturable&bit(mid) == 0 || captured&bit(mid) != 0 {
			continue
		}
		if occupied&bit(land) != 0 {
			continue
		}

		extended = true
		nowCaptured := captured | bit(mid)

		if !king && int(land)/4 == promoRank(p.Side) {
			// Promotion ends the chain.
			*moves = append(*moves, Move{From: origin, To: land, Captured: nowCaptured, Promote: true})
			continue
		}
		if !p.chainFrom(origin, land, king, nowCaptured, moves) {
			*moves = append(*moves, Move{From: origin, To: land, Captured: nowCaptured})
		}
	}
	return extended
}

func (p Position) quietMoves() []Move {
	var moves []Move
	own := p.own()
	occupied := p.occupied()
	for s := int8(0); s < 32; s++ {
		if own&bit(s) == 0 {
			continue
		}
		king := p.Kings&bit(s) != 0

		dirs := allDirs[:]
		if !king {
			fd := forwardDirs(p.Side)
			dirs = fd[:]
		}
		for _, d := range dirs {
			to := step[s][d]
			if to < 0 || occupied&bit(to) != 0 {
				continue
			}
			promote := !king && int(to)/4 == promoRank(p.Side)
			moves = append(moves, Move{From: s, To: to, Promote: promote})
		}
	}
	return moves
}

// Apply plays a move and returns the resulting position. The move must
// come from LegalMoves on the same position; Apply does not re-check
// legality.
func (p Position) Apply(m Move) Position {
	next := p
	from, to := bit(m.From), bit(m.To)
	wasMan := p.Kings&from == 0

	if p.Side == White {
		next.White = (next.White &^ from) | to
		next.Black &^= m.Captured
	} else {
		next.Black = (next.Black &^ from) | to
		next.White &^= m.Captured
	}
	next.Kings &^= m.Captured
	if p.Kings&from != 0 {
		next.Kings = (next.Kings &^ from) | to
	}
	if m.Promote {
		next.Kings |= to
	}

	if m.IsCapture() || wasMan {
		next.NoCapture = 0
	} else {
		next.NoCapture = p.NoCapture + 1
	}
	next.Side = p.Side.Opponent()
	return next
}

// IsNoCaptureDraw reports the draw-by-no-capture rule.
func (p Position) IsNoCaptureDraw() bool {
	return p.NoCapture >= NoCaptureLimit
}

// Threatened reports whether the piece on sq can be removed by the
// side to move with an immediate capture. The heuristic layer uses it
// to penalize moves that land on a recapturable square.
func (p Position) Threatened(sq int8) bool {
	for _, m := range p.captureMoves() {
		if m.Captured&bit(sq) != 0 {
			return true
		}
	}
	return false
}

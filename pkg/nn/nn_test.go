package nn

import (
	"testing"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
)

func TestEncodeInitialPosition(t *testing.T) {
	dst := make([]float32, FeatSize)
	Encode(dama.Initial(), nil, dst)

	// White to move: own men on squares 0..11, enemy men on 20..31.
	for sq := 0; sq < 32; sq++ {
		ownMan := dst[0*PlaneSize+sq]
		enemyMan := dst[2*PlaneSize+sq]
		switch {
		case sq < 12:
			if ownMan != 1 || enemyMan != 0 {
				t.Errorf("square %d: own=%v enemy=%v, want own man", sq, ownMan, enemyMan)
			}
		case sq >= 20:
			if ownMan != 0 || enemyMan != 1 {
				t.Errorf("square %d: own=%v enemy=%v, want enemy man", sq, ownMan, enemyMan)
			}
		default:
			if ownMan != 0 || enemyMan != 0 {
				t.Errorf("square %d not empty", sq)
			}
		}
	}

	// No kings, no history: every other plane stays zero.
	for i := PlaneSize; i < 2*PlaneSize; i++ {
		if dst[i] != 0 {
			t.Fatalf("own king plane not empty at %d", i)
		}
	}
	for i := 4 * PlaneSize; i < FeatSize; i++ {
		if dst[i] != 0 {
			t.Fatalf("history plane not empty at %d", i)
		}
	}
}

func TestEncodePerspectiveFlips(t *testing.T) {
	pos := dama.Initial()
	mirror := pos
	mirror.Side = dama.Black

	white := make([]float32, FeatSize)
	black := make([]float32, FeatSize)
	Encode(pos, nil, white)
	Encode(mirror, nil, black)

	// Same board, opposite mover: own and enemy planes swap.
	for sq := 0; sq < PlaneSize; sq++ {
		if white[sq] != black[2*PlaneSize+sq] {
			t.Fatalf("own/enemy planes did not swap at square %d", sq)
		}
	}
}

func TestEncodeHistoryPlanes(t *testing.T) {
	p0 := dama.Initial()
	p1 := p0.Apply(p0.LegalMoves()[0])
	p2 := p1.Apply(p1.LegalMoves()[0])

	dst := make([]float32, FeatSize)
	Encode(p2, []dama.Position{p0, p1}, dst)

	// Planes 4..7 hold the most recent predecessor, 8..11 the one
	// before it, both from p2's perspective.
	var recent, older float32
	for i := 4 * PlaneSize; i < 8*PlaneSize; i++ {
		recent += dst[i]
	}
	for i := 8 * PlaneSize; i < FeatSize; i++ {
		older += dst[i]
	}
	if recent != 24 || older != 24 {
		t.Errorf("history piece counts = %v, %v, want 24, 24", recent, older)
	}
}

func TestFakeValueTracksMaterial(t *testing.T) {
	even := dama.Initial()
	_, v, err := Fake{}.Infer(even, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("balanced position value = %v, want 0", v)
	}

	up := dama.Position{White: 1<<13 | 1<<14, Black: 1 << 20, Side: dama.White}
	_, winning, _ := Fake{}.Infer(up, nil)
	if winning <= 0 {
		t.Errorf("material-up value = %v, want > 0", winning)
	}

	down := up
	down.Side = dama.Black
	_, losing, _ := Fake{}.Infer(down, nil)
	if losing != -winning {
		t.Errorf("perspective flip: %v vs %v", winning, losing)
	}
}

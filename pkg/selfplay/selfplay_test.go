package selfplay

import (
	"context"
	"encoding/csv"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pierrec/lz4/v4"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/mcts"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/nn"
)

type memorySink struct {
	mu    sync.Mutex
	games [][]Sample
}

func (s *memorySink) WriteGame(samples []Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = append(s.games, samples)
	return nil
}

func testRunConfig() Config {
	cfg := DefaultConfig()
	cfg.Games = 2
	cfg.Parallel = 2
	cfg.CyclesPerMove = 50
	cfg.MaxPlies = 40
	cfg.Search.ArenaBytes = 4 << 20
	return cfg
}

func TestRunProducesConsistentGames(t *testing.T) {
	mcts.SetSeedGeneratorFn(func() int64 { return 7 })

	sink := &memorySink{}
	runner := NewRunner(testRunConfig(), sink)

	var summaries []GameSummary
	var mu sync.Mutex
	runner.OnProgress(func(s GameSummary) {
		mu.Lock()
		summaries = append(summaries, s)
		mu.Unlock()
	})

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.games) != 2 {
		t.Fatalf("got %d games, want 2", len(sink.games))
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}

	for _, game := range sink.games {
		if len(game) == 0 {
			t.Fatal("empty game")
		}
		id := game[0].GameID
		for i, s := range game {
			if s.GameID != id {
				t.Errorf("sample %d has a different game id", i)
			}
			if s.Ply != i {
				t.Errorf("sample %d has ply %d", i, s.Ply)
			}
			if len(s.Features) != nn.FeatSize {
				t.Fatalf("sample %d features length %d", i, len(s.Features))
			}
			if len(s.Policy) != dama.ActionSpace {
				t.Fatalf("sample %d policy length %d", i, len(s.Policy))
			}

			var sum float64
			for _, p := range s.Policy {
				sum += float64(p)
			}
			if math.Abs(sum-1) > 1e-3 {
				t.Errorf("sample %d policy sums to %f", i, sum)
			}

			if s.Outcome != 0 && s.Outcome != 1 && s.Outcome != -1 {
				t.Errorf("sample %d outcome %f", i, s.Outcome)
			}
			// Alternating movers see alternating outcomes.
			if i > 0 && s.Outcome != -game[i-1].Outcome {
				t.Errorf("sample %d outcome %f does not mirror predecessor %f",
					i, s.Outcome, game[i-1].Outcome)
			}
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	mcts.SetSeedGeneratorFn(func() int64 { return 7 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(testRunConfig(), &memorySink{})
	if err := runner.Run(ctx); err == nil {
		t.Fatal("canceled run returned nil")
	}
}

func TestSampleMoveFollowsPolicy(t *testing.T) {
	pos := dama.Initial()
	legal := pos.LegalMoves()

	policy := make([]float32, dama.ActionSpace)
	policy[legal[2].Index()] = 1

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		if mv := sampleMove(legal, policy, rng); mv != legal[2] {
			t.Fatalf("sampled %v, want %v", mv, legal[2])
		}
	}

	// No mass anywhere still returns a legal move.
	empty := make([]float32, dama.ActionSpace)
	mv := sampleMove(legal, empty, rng)
	found := false
	for _, l := range legal {
		if l == mv {
			found = true
		}
	}
	if !found {
		t.Fatalf("sampled illegal move %v", mv)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.csv.lz4")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}

	game := []Sample{
		{Ply: 0, Side: dama.White, Outcome: 1,
			Features: make([]float32, nn.FeatSize),
			Policy:   make([]float32, dama.ActionSpace)},
		{Ply: 1, Side: dama.Black, Outcome: -1,
			Features: make([]float32, nn.FeatSize),
			Policy:   make([]float32, dama.ActionSpace)},
	}
	game[0].Policy[37] = 0.75
	game[0].Policy[102] = 0.25
	game[0].Features[5] = 1

	if err := w.WriteGame(game); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(lz4.NewReader(f)).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if got, want := len(rows[0]), 4+nn.FeatSize; got != want {
		t.Fatalf("row width %d, want %d", got, want)
	}
	if rows[0][2] != "1" {
		t.Errorf("outcome column = %q", rows[0][2])
	}
	if rows[0][3] != "37:0.75|102:0.25" {
		t.Errorf("policy column = %q", rows[0][3])
	}
	if rows[0][4+5] != "1" {
		t.Errorf("feature column = %q", rows[0][4+5])
	}
}

// Package selfplay generates training data by playing the engine
// against itself. Parallelism is between games: each game owns its
// tree, arena and random stream, and runs its search single threaded,
// which keeps N games on N cores with no shared search state.
package selfplay

import (
	"context"
	"math/rand"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/mcts"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/nn"
)

// Config drives one self-play run.
type Config struct {
	Games    int
	Parallel int // concurrent games

	CyclesPerMove uint32

	// Moves before TemperatureMoves are sampled at
	// OpeningTemperature for opening diversity; later moves collapse
	// to the most-visited child.
	OpeningTemperature float64
	TemperatureMoves   int

	// MaxPlies caps game length; games hitting it score as draws.
	MaxPlies int

	Search mcts.Config

	// NewInferencer builds the per-game network session; nil plays
	// with random playouts. Sessions serialize their inference calls,
	// so sharing one across games works but costs parallelism.
	NewInferencer func() mcts.Inferencer
}

func DefaultConfig() Config {
	search := mcts.DefaultConfig()
	search.ArenaBytes = 32 << 20
	return Config{
		Games:              100,
		Parallel:           4,
		CyclesPerMove:      800,
		OpeningTemperature: 1.0,
		TemperatureMoves:   20,
		MaxPlies:           300,
		Search:             search,
	}
}

// GameSummary is handed to the progress callback after every game.
type GameSummary struct {
	GameID uuid.UUID
	Plies  int
	Result string // "white", "black" or "draw"
	Played int    // games finished so far, this one included
	Total  int
}

type Runner struct {
	cfg      Config
	sink     Sink
	progress func(GameSummary)

	played atomic.Int32
}

func NewRunner(cfg Config, sink Sink) *Runner {
	return &Runner{cfg: cfg, sink: sink}
}

// OnProgress installs a callback invoked after each finished game,
// possibly from concurrent goroutines.
func (r *Runner) OnProgress(fn func(GameSummary)) {
	r.progress = fn
}

// Run plays the configured number of games and blocks until all are
// written or the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.cfg.Parallel))

	r.played.Store(0)
	for i := 0; i < r.cfg.Games; i++ {
		gameIdx := i
		g.Go(func() error {
			return r.playGame(ctx, gameIdx)
		})
	}
	return g.Wait()
}

func (r *Runner) playGame(ctx context.Context, gameIdx int) error {
	id := uuid.Must(uuid.NewV7())
	rng := rand.New(rand.NewSource(mcts.SeedGeneratorFn() + int64(gameIdx)))

	var infer mcts.Inferencer
	if r.cfg.NewInferencer != nil {
		infer = r.cfg.NewInferencer()
	}

	tree, err := mcts.NewTree(dama.Initial(), r.cfg.Search, infer)
	if err != nil {
		return err
	}
	defer tree.Release()
	tree.SetContext(ctx)

	pos := dama.Initial()
	var history []dama.Position
	var samples []Sample

	ply := 0
	for ; ply < r.cfg.MaxPlies; ply++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		legal := pos.LegalMoves()
		if len(legal) == 0 {
			break
		}

		tree.SetLimits(mcts.DefaultLimits().
			SetCycles(r.cfg.CyclesPerMove).
			SetThreads(1))
		tree.Search()

		temperature := 0.0
		if ply < r.cfg.TemperatureMoves {
			temperature = r.cfg.OpeningTemperature
		}
		policy := tree.Policy(temperature)

		features := make([]float32, nn.FeatSize)
		nn.Encode(pos, tailHistory(history), features)
		samples = append(samples, Sample{
			GameID:   id,
			Ply:      ply,
			Side:     pos.Side,
			Features: features,
			Policy:   policy,
		})

		mv := sampleMove(legal, policy, rng)
		if _, err := tree.MakeMove(mv); err != nil {
			return err
		}
		history = append(history, pos)
		pos = pos.Apply(mv)
	}

	result := adjudicate(pos, ply >= r.cfg.MaxPlies)
	for i := range samples {
		samples[i].Outcome = outcomeFor(samples[i].Side, result)
	}

	if err := r.sink.WriteGame(samples); err != nil {
		return err
	}

	if r.progress != nil {
		r.progress(GameSummary{
			GameID: id,
			Plies:  ply,
			Result: result,
			Played: int(r.played.Add(1)),
			Total:  r.cfg.Games,
		})
	}
	return nil
}

// sampleMove draws a legal move with the probabilities the search
// produced. Moves sharing an action index share its mass; with no mass
// at all (an aborted search) the choice is uniform.
func sampleMove(legal []dama.Move, policy []float32, rng *rand.Rand) dama.Move {
	var total float64
	for _, mv := range legal {
		total += float64(policy[mv.Index()])
	}
	if total <= 0 {
		return legal[rng.Intn(len(legal))]
	}

	target := rng.Float64() * total
	for _, mv := range legal {
		target -= float64(policy[mv.Index()])
		if target <= 0 {
			return mv
		}
	}
	return legal[len(legal)-1]
}

func adjudicate(final dama.Position, hitCap bool) string {
	if hitCap || final.IsNoCaptureDraw() {
		return "draw"
	}
	// The side to move has no moves and loses.
	if final.Side == dama.White {
		return "black"
	}
	return "white"
}

func outcomeFor(side dama.Color, result string) float32 {
	switch {
	case result == "draw":
		return 0
	case (result == "white") == (side == dama.White):
		return 1
	default:
		return -1
	}
}

func tailHistory(history []dama.Position) []dama.Position {
	if len(history) > nn.HistoryLen {
		return history[len(history)-nn.HistoryLen:]
	}
	return history
}

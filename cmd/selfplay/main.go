// Self-play dataset generator: N concurrent games, lz4-compressed CSV
// output, optional live progress over websocket.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/mcts"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/nn"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/selfplay"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/telemetry"
)

func main() {
	games := flag.Int("n", 100, "games to play")
	parallel := flag.Int("parallel", 4, "concurrent games")
	cycles := flag.Uint("cycles", 800, "search iterations per move")
	outFile := flag.String("out", "dataset.csv.lz4", "output file")
	temperature := flag.Float64("temp", 1.0, "opening sampling temperature")
	tempMoves := flag.Int("tempmoves", 20, "plies played at the opening temperature")
	model := flag.String("model", "", "ONNX policy/value model path, enables PUCT")
	fake := flag.Bool("fake-net", false, "use the deterministic fake network")
	telemetryAddr := flag.String("telemetry", "", "serve live stats on this address")
	flag.Parse()

	cfg := selfplay.DefaultConfig()
	cfg.Games = *games
	cfg.Parallel = *parallel
	cfg.CyclesPerMove = uint32(*cycles)
	cfg.OpeningTemperature = *temperature
	cfg.TemperatureMoves = *tempMoves

	switch {
	case *model != "":
		cfg.Search.PUCT = true
		cfg.NewInferencer = func() mcts.Inferencer {
			sess, err := nn.NewSession(*model)
			if err != nil {
				log.Fatalf("load model: %v", err)
			}
			return sess
		}
	case *fake:
		cfg.Search.PUCT = true
		cfg.NewInferencer = func() mcts.Inferencer { return nn.Fake{} }
	}

	writer, err := selfplay.NewWriter(*outFile)
	if err != nil {
		log.Fatal(err)
	}

	var hub *telemetry.Hub
	if *telemetryAddr != "" {
		hub = telemetry.NewHub()
		done := make(chan struct{})
		defer close(done)
		go hub.Run(done)
		go func() {
			if err := http.ListenAndServe(*telemetryAddr, hub.Router()); err != nil {
				log.Printf("telemetry server: %v", err)
			}
		}()
		log.Printf("telemetry on ws://%s/ws", *telemetryAddr)
	}

	runner := selfplay.NewRunner(cfg, writer)
	runner.OnProgress(func(s selfplay.GameSummary) {
		log.Printf("game %d/%d  %s  %d plies  (%s)",
			s.Played, s.Total, s.GameID, s.Plies, s.Result)
		if hub != nil {
			hub.Publish("game", telemetry.GameEvent{
				GameID: s.GameID.String(),
				Plies:  s.Plies,
				Result: s.Result,
				Played: s.Played,
				Total:  s.Total,
			})
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("playing %d games on %d workers", cfg.Games, cfg.Parallel)
	runErr := runner.Run(ctx)
	if err := writer.Close(); err != nil {
		log.Printf("close dataset: %v", err)
	}
	if runErr != nil {
		log.Fatalf("self-play: %v", runErr)
	}
	log.Printf("dataset written to %s", *outFile)
}

// Interactive engine: the user plays one side on stdin, the search
// answers, live statistics stream to the terminal and optionally to a
// websocket.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/muesli/termenv"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/mcts"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/nn"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/telemetry"
)

func main() {
	movetime := flag.Int("movetime", 2000, "engine thinking time per move, ms")
	threads := flag.Int("threads", 4, "search workers")
	arenaMB := flag.Int("arena", 64, "node arena size, MB")
	model := flag.String("model", "", "ONNX policy/value model path, enables PUCT")
	tuned := flag.Bool("tuned", true, "use UCB1-Tuned instead of plain UCB1")
	bias := flag.Bool("bias", true, "enable progressive bias")
	telemetryAddr := flag.String("telemetry", "", "serve live stats on this address, e.g. :8080")
	flag.Parse()

	cfg := mcts.DefaultConfig()
	cfg.UCB1Tuned = *tuned
	cfg.ProgressiveBias = *bias
	cfg.ArenaBytes = *arenaMB << 20

	var infer mcts.Inferencer
	if *model != "" {
		sess, err := nn.NewSession(*model)
		if err != nil {
			log.Fatalf("load model: %v", err)
		}
		defer sess.Close()
		infer = sess
		cfg.PUCT = true
	}

	tree, err := mcts.NewTree(dama.Initial(), cfg, infer)
	if err != nil {
		log.Fatalf("create tree: %v", err)
	}
	defer tree.Release()

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

	out := termenv.NewOutput(os.Stdout)
	attachListener(tree, out, hub)

	pos := dama.Initial()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println(pos)

		if len(pos.LegalMoves()) == 0 {
			printResult(out, pos)
			return
		}

		// Human plays white.
		var mv dama.Move
		for {
			fmt.Print("your move> ")
			if !scanner.Scan() {
				return
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "quit" {
				return
			}
			var ok bool
			if mv, ok = pos.FindMove(input); ok {
				break
			}
			fmt.Println(out.String("illegal move").Foreground(termenv.ANSIRed))
		}
		pos = pos.Apply(mv)
		if _, err := tree.MakeMove(mv); err != nil {
			log.Fatalf("advance tree: %v", err)
		}

		fmt.Println(pos)
		if len(pos.LegalMoves()) == 0 {
			printResult(out, pos)
			return
		}

		tree.SetLimits(mcts.DefaultLimits().
			SetMovetime(*movetime).
			SetThreads(*threads))
		tree.Search()

		reply, ok := tree.BestMove()
		if !ok {
			printResult(out, pos)
			return
		}
		fmt.Printf("\nengine plays %s\n\n",
			out.String(reply.String()).Foreground(termenv.ANSIGreen).Bold())

		pos = pos.Apply(reply)
		if _, err := tree.MakeMove(reply); err != nil {
			log.Fatalf("advance tree: %v", err)
		}
	}
}

// attachListener wires the live search display: the depth line rewrites
// itself in place, the stop line is final.
func attachListener(tree *mcts.Tree, out *termenv.Output, hub *telemetry.Hub) {
	tree.StatsListener().
		OnDepth(func(stats mcts.ListenerStats) {
			out.ClearLine()
			fmt.Printf("\r%s depth %2d  eval %.2f  cycles %8d  cps %7d  pv %v",
				out.String("thinking").Foreground(termenv.ANSIYellow),
				stats.Maxdepth, stats.Eval, stats.Cycles, stats.Cps, pvString(stats.Pv))
			publish(hub, stats)
		}).
		OnStop(func(stats mcts.ListenerStats) {
			out.ClearLine()
			fmt.Printf("\rstopped (%s)  depth %d  eval %.2f  cycles %d  size %d\n",
				stats.StopReason, stats.Maxdepth, stats.Eval, stats.Cycles, stats.Size)
			publish(hub, stats)
		})
}

func publish(hub *telemetry.Hub, stats mcts.ListenerStats) {
	if hub == nil {
		return
	}
	hub.Publish("search", telemetry.SearchEvent{
		Eval:       stats.Eval,
		Depth:      stats.Maxdepth,
		Cycles:     stats.Cycles,
		Cps:        stats.Cps,
		Size:       stats.Size,
		Pv:         pvStrings(stats.Pv),
		StopReason: stats.StopReason.String(),
	})
}

func pvStrings(pv []dama.Move) []string {
	out := make([]string, len(pv))
	for i, mv := range pv {
		out[i] = mv.String()
	}
	return out
}

func pvString(pv []dama.Move) string {
	return strings.Join(pvStrings(pv), " ")
}

func printResult(out *termenv.Output, pos dama.Position) {
	switch {
	case pos.IsNoCaptureDraw():
		fmt.Println(out.String("draw by the no-capture rule").Bold())
	case pos.Side == dama.White:
		fmt.Println(out.String("black wins").Bold())
	default:
		fmt.Println(out.String("white wins").Bold())
	}
}

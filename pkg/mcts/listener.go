package mcts

import "github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"

// ListenerStats is the tree snapshot handed to listener callbacks.
type ListenerStats struct {
	BestMove   dama.Move
	Pv         []dama.Move
	Eval       float64
	Maxdepth   int
	Cycles     int
	TimeMs     int
	Cps        uint32
	Size       uint32
	StopReason StopReason
}

func toListenerStats(t *Tree) ListenerStats {
	mv, _ := t.BestMove()
	return ListenerStats{
		BestMove:   mv,
		Pv:         t.Pv(),
		Eval:       t.RootScore(),
		Maxdepth:   t.MaxDepth(),
		Cycles:     t.Cycles(),
		TimeMs:     int(t.Limiter.Elapsed()),
		Cps:        t.Cps(),
		Size:       t.Size(),
		StopReason: t.Limiter.StopReason(),
	}
}

// Listener function callback, receives current tree statistics.
type ListenerFunc func(ListenerStats)

// StatsListener bundles the search progress callbacks. All callbacks
// run on the main search worker.
type StatsListener struct {
	// called when the maximum depth increases
	onDepth ListenerFunc

	// called every nCycles full iterations
	onCycle ListenerFunc
	nCycles int

	// called once when the search stops, with StopReason available
	onStop ListenerFunc
}

func NewStatsListener() StatsListener {
	return StatsListener{nCycles: 1}
}

// OnDepth attaches the max-depth callback.
func (listener *StatsListener) OnDepth(onDepth ListenerFunc) *StatsListener {
	listener.onDepth = onDepth
	return listener
}

// OnCycle attaches the per-iteration callback. Building the snapshot
// walks the principal variation, so a small cycle interval slows the
// search down noticeably.
func (listener *StatsListener) OnCycle(onCycle ListenerFunc) *StatsListener {
	listener.onCycle = onCycle
	return listener
}

func (listener *StatsListener) SetCycleInterval(n int) *StatsListener {
	if n < 1 {
		n = 1
	}
	listener.nCycles = n
	return listener
}

// OnStop attaches the search-end callback.
func (listener *StatsListener) OnStop(onStop ListenerFunc) *StatsListener {
	listener.onStop = onStop
	return listener
}

func (listener *StatsListener) invokeCycle(t *Tree) {
	if listener.onCycle != nil && t.Cycles()%max(listener.nCycles, 1) == 0 {
		listener.onCycle(toListenerStats(t))
	}
}

func (t *Tree) invokeListener(fn ListenerFunc) {
	if fn != nil {
		fn(toListenerStats(t))
	}
}

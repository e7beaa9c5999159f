package mcts

import (
	"encoding/json"
	"math"
	"strings"
)

// Limits describe the search budget. The zero-ish default is an
// infinite search stopped only by Stop or context cancellation;
// setting any bound clears Infinite.
type Limits struct {
	Depth    int    // maximum tree depth
	Nodes    uint32 // maximum tree size in nodes
	Cycles   uint32 // maximum completed iterations
	Movetime int    // wall-clock budget in milliseconds
	Infinite bool
	NThreads int // intra-move search workers
}

func (l Limits) String() string {
	builder := strings.Builder{}
	_ = json.NewEncoder(&builder).Encode(l)
	return builder.String()
}

const (
	DefaultDepthLimit    int    = math.MaxInt
	DefaultNodeLimit     uint32 = math.MaxUint32
	DefaultCyclesLimit   uint32 = math.MaxUint32
	DefaultMovetimeLimit int    = -1
)

func DefaultLimits() *Limits {
	return &Limits{
		Depth:    DefaultDepthLimit,
		Nodes:    DefaultNodeLimit,
		Cycles:   DefaultCyclesLimit,
		Movetime: DefaultMovetimeLimit,
		Infinite: true,
		NThreads: 1,
	}
}

// SetDepth bounds the maximum depth of the tree.
func (l *Limits) SetDepth(depth int) *Limits {
	l.Depth = depth
	l.Infinite = false
	return l
}

// SetNodes bounds the number of nodes in the tree.
func (l *Limits) SetNodes(nodes uint32) *Limits {
	l.Nodes = nodes
	l.Infinite = false
	return l
}

// SetCycles bounds the number of select-expand-backprop iterations.
func (l *Limits) SetCycles(cycles uint32) *Limits {
	l.Cycles = cycles
	l.Infinite = false
	return l
}

// SetMovetime bounds the thinking time, in milliseconds.
func (l *Limits) SetMovetime(movetime int) *Limits {
	l.Movetime = movetime
	l.Infinite = false
	return l
}

func (l *Limits) SetInfinite(infinite bool) *Limits {
	l.Infinite = infinite
	return l
}

func (l *Limits) SetThreads(threads int) *Limits {
	l.NThreads = max(threads, 1)
	return l
}

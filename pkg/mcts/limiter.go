package mcts

import (
	"context"
	"sync/atomic"
)

type StopReason int

const (
	StopNone      StopReason = 0
	StopInterrupt StopReason = 1 << iota // user stop or context cancellation
	StopMovetime                         // time budget exhausted
	StopNodes                            // node budget exhausted
	StopDepth                            // depth limit reached
	StopCycles                           // iteration budget exhausted
	StopMemory                           // arena exhausted
	StopSolved                           // root proven by the exact solver
)

func (sr StopReason) String() string {
	if sr == StopNone {
		return "None"
	}

	reasons := []struct {
		flag StopReason
		name string
	}{
		{StopInterrupt, "Interrupt"},
		{StopMovetime, "Movetime"},
		{StopNodes, "Nodes"},
		{StopDepth, "Depth"},
		{StopCycles, "Cycles"},
		{StopMemory, "Memory"},
		{StopSolved, "Solved"},
	}

	var result string
	for _, r := range reasons {
		if sr&r.flag == r.flag {
			if result != "" {
				result += "|"
			}
			result += r.name
		}
	}
	return result
}

type LimiterLike interface {
	SetContext(ctx context.Context)
	SetLimits(*Limits)
	Limits() *Limits
	// Elapsed time in ms since the last Reset.
	Elapsed() uint32
	SetStop(bool)
	Stop() bool
	// Reset the flags and the timer, called on search setup.
	Reset()
	// Ok reports whether the search should keep iterating.
	Ok(size, depth, cycles uint32) bool
	// NotifyArenaFull records that node memory ran out; the search
	// winds down gracefully and reports StopMemory.
	NotifyArenaFull()
	// NotifySolved records that the root got an exact verdict, so the
	// stop reason reads StopSolved rather than a tripped limit.
	NotifySolved()
	// StopReason is valid after the search ends.
	StopReason() StopReason
	// EvaluateStopReason freezes the reason; called once by the main
	// worker after its loop exits.
	EvaluateStopReason(size, depth, cycles uint32)
}

type Limiter struct {
	limits    *Limits
	timer     *timer
	stop      atomic.Bool
	arenaFull atomic.Bool
	solved    atomic.Bool
	reason    StopReason
	ctx       context.Context
}

func NewLimiter() *Limiter {
	return &Limiter{
		limits: DefaultLimits(),
		timer:  newTimer(),
		ctx:    context.Background(),
	}
}

func (l *Limiter) Reset() {
	l.timer.SetMovetime(l.limits.Movetime)
	l.timer.Reset()
	l.stop.Store(false)
	l.arenaFull.Store(false)
	l.solved.Store(false)
	l.reason = StopNone
}

func (l *Limiter) SetContext(ctx context.Context) {
	l.ctx = ctx
}

func (l *Limiter) SetStop(v bool) {
	l.stop.Store(v)
}

func (l *Limiter) Stop() bool {
	select {
	case <-l.ctx.Done():
		l.stop.Store(true)
	default:
	}
	return l.stop.Load()
}

func (l *Limiter) SetLimits(limits *Limits) {
	l.limits = limits
}

func (l *Limiter) Limits() *Limits {
	return l.limits
}

func (l *Limiter) Elapsed() uint32 {
	return uint32(l.timer.Deltatime())
}

func (l *Limiter) NotifyArenaFull() {
	l.arenaFull.Store(true)
	l.stop.Store(true)
}

func (l *Limiter) NotifySolved() {
	l.solved.Store(true)
	l.stop.Store(true)
}

func (l *Limiter) reasonMask(size, depth, cycles uint32) StopReason {
	mask := StopNone
	if l.Stop() {
		mask |= StopInterrupt
	}
	if l.arenaFull.Load() {
		mask |= StopMemory
	}
	if l.solved.Load() {
		mask |= StopSolved
	}
	if l.limits.Infinite {
		return mask
	}
	if l.timer.IsEnd() {
		mask |= StopMovetime
	}
	if l.limits.Nodes <= size {
		mask |= StopNodes
	}
	if l.limits.Depth <= int(depth) {
		mask |= StopDepth
	}
	if l.limits.Cycles <= cycles {
		mask |= StopCycles
	}
	return mask
}

func (l *Limiter) Ok(size, depth, cycles uint32) bool {
	return l.reasonMask(size, depth, cycles) == StopNone
}

func (l *Limiter) EvaluateStopReason(size, depth, cycles uint32) {
	reason := l.reasonMask(size, depth, cycles)
	// The interrupt flag is also how workers wind each other down, so
	// drop it when a real cause is present.
	if reason&(StopMemory|StopSolved) != 0 {
		reason &^= StopInterrupt
	}
	l.reason = reason
}

func (l *Limiter) StopReason() StopReason {
	return l.reason
}

package mcts

import "time"

type timer struct {
	start    time.Time
	duration time.Duration
}

func newTimer() *timer {
	return &timer{time.Now(), -1}
}

// IsEnd reports whether the movetime budget ran out. A timer with no
// movetime set never ends.
func (t *timer) IsEnd() bool {
	return t.duration > 0 && time.Since(t.start) >= t.duration
}

func (t *timer) Reset() {
	t.start = time.Now()
}

// Deltatime returns elapsed milliseconds since Reset, at least 1 so it
// is safe as a rate divisor.
func (t *timer) Deltatime() int {
	return max(int(time.Since(t.start).Milliseconds()), 1)
}

// SetMovetime sets the budget in milliseconds; negative disables it.
func (t *timer) SetMovetime(movetime int) {
	if movetime < 0 {
		t.duration = -1
	} else {
		t.duration = time.Duration(movetime) * time.Millisecond
	}
}

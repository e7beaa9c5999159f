package arena

import (
	"errors"
	"sync"
	"unsafe"
)

// Arena is a fixed-capacity bump allocator. One arena owns all node
// memory for a single search (or a single self-play game): allocations
// advance an offset through a pre-allocated buffer and individual
// objects are never freed. Reset() rewinds the offset between moves,
// Release() drops the buffer and invalidates every allocation made
// from it.
//
// Every call is serialized by a single mutex. That is an accepted
// bottleneck: arenas are reset every move/game, so total contention
// stays bounded.
type Arena struct {
	mu     sync.Mutex
	buf    []byte
	offset int
}

var ErrArenaFull = errors.New("arena: capacity exhausted")

const alignment = 8

// New creates an arena with the given capacity in bytes. The whole
// buffer is allocated up front.
func New(capacity int) (*Arena, error) {
	if capacity <= 0 {
		return nil, errors.New("arena: capacity must be positive")
	}
	return &Arena{buf: make([]byte, capacity)}, nil
}

// Alloc reserves size bytes of 8-byte-aligned, zeroed memory and
// returns a pointer to it. Returns nil when the arena is exhausted;
// the caller must treat that as a recoverable condition for the
// current search, never as a reason to abort the process.
func (a *Arena) Alloc(size int) unsafe.Pointer {
	if size <= 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.buf == nil {
		return nil
	}

	off := (a.offset + alignment - 1) &^ (alignment - 1)
	if off+size > len(a.buf) {
		return nil
	}
	a.offset = off + size

	// The region may hold garbage from before a Reset.
	clear(a.buf[off : off+size])
	return unsafe.Pointer(&a.buf[off])
}

// Reset rewinds the offset without releasing the buffer. Must not be
// called while nodes allocated from this arena are still referenced,
// e.g. a reused subtree after a root promotion.
func (a *Arena) Reset() {
	a.mu.Lock()
	a.offset = 0
	a.mu.Unlock()
}

// Release frees the buffer. Any pointer previously handed out becomes
// invalid; further Alloc calls return nil.
func (a *Arena) Release() {
	a.mu.Lock()
	a.buf = nil
	a.offset = 0
	a.mu.Unlock()
}

// Used returns the number of bytes currently allocated.
func (a *Arena) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.offset
}

// Cap returns the total capacity in bytes.
func (a *Arena) Cap() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf)
}

// Remaining returns the number of bytes still available.
func (a *Arena) Remaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buf) - a.offset
}

// NewObject allocates a zeroed T from the arena. Returns nil when the
// arena is exhausted.
func NewObject[T any](a *Arena) *T {
	var zero T
	p := a.Alloc(int(unsafe.Sizeof(zero)))
	if p == nil {
		return nil
	}
	return (*T)(p)
}

// NewSlice allocates a zeroed slice of n elements with len == cap == n.
// Returns nil when the arena is exhausted. For n == 0 a non-nil empty
// slice is returned so callers can distinguish "empty" from "failed".
func NewSlice[T any](a *Arena, n int) []T {
	if n == 0 {
		return []T{}
	}
	var zero T
	p := a.Alloc(n * int(unsafe.Sizeof(zero)))
	if p == nil {
		return nil
	}
	return unsafe.Slice((*T)(p), n)
}

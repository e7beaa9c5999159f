package mcts

import (
	"sync"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
)

// Table maps position hashes to the tree node currently representing
// that position, so statistics cross-pollinate between transposed move
// orders. Buckets hold at most one non-owning node reference; all
// nodes belong to the arena. Bucket access is sharded over a fixed
// lock array, so writes to unrelated buckets rarely contend and never
// block the whole table.
type Table struct {
	buckets []*Node
	mask    uint64
	locks   [256]sync.Mutex
}

// NewTable creates a table with size buckets, rounded up to a power of
// two. Returns nil for size <= 0, which disables transposition
// sharing (every method on a nil table is a no-op).
func NewTable(size int) *Table {
	if size <= 0 {
		return nil
	}
	size = ceilPow2(size)
	return &Table{
		buckets: make([]*Node, size),
		mask:    uint64(size - 1),
	}
}

// Lookup returns the node for hash if the bucket holds one whose state
// is fully equal to state. Hash equality alone is not trusted: piece
// bitboards, side to move and the no-capture counter must all match to
// reject collisions.
func (t *Table) Lookup(hash uint64, state dama.Position) *Node {
	if t == nil {
		return nil
	}
	idx := hash & t.mask
	mu := &t.locks[idx&255]
	mu.Lock()
	defer mu.Unlock()

	n := t.buckets[idx]
	if n != nil && n.hash == hash && n.State == state {
		return n
	}
	return nil
}

// Insert stores n unless the bucket already holds a better-explored
// node: the incumbent is kept only when it has strictly more visits
// than the incoming node (quality-based replacement).
func (t *Table) Insert(n *Node) {
	if t == nil || n == nil {
		return
	}
	idx := n.hash & t.mask
	mu := &t.locks[idx&255]
	mu.Lock()
	defer mu.Unlock()

	if cur := t.buckets[idx]; cur != nil && cur.N() > n.N() {
		return
	}
	t.buckets[idx] = n
}

// Clear drops every bucket. Called when the arena that owns the nodes
// is reset, since the references would dangle.
func (t *Table) Clear() {
	if t == nil {
		return
	}
	for i := range t.locks {
		t.locks[i].Lock()
	}
	clear(t.buckets)
	for i := range t.locks {
		t.locks[i].Unlock()
	}
}

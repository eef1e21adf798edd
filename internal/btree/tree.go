package btree

import (
	"errors"
	"log/slog"
	"slices"

	"storelab/internal/heap"
)

var ErrBadFanout = errors.New("btree: fanout must be at least 2")

// Tree is an insert-only B+Tree over an arena of nodes. A leaf splits when
// it reaches fanout entries; an internal node splits when it exceeds fanout
// children. There is no deletion and therefore no merging or borrowing.
//
// Tree assumes a single owner; it performs no internal locking.
type Tree struct {
	fanout int
	nodes  []node
	root   int
	height int
	count  int
}

// NewTree creates an empty tree with the given branching factor.
func NewTree(fanout int) (*Tree, error) {
	if fanout < 2 {
		return nil, ErrBadFanout
	}
	return &Tree{fanout: fanout, root: none}, nil
}

// alloc appends n to the arena and returns its index. Any *node held across
// a call is invalid afterwards (the backing slice may move).
func (t *Tree) alloc(n node) int {
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

// InsertKey adds a (key, TID) entry. Duplicates are legitimate; equal keys
// keep their insertion order in range scans. Only a structurally unusable
// key (nil, map, slice) is an error.
func (t *Tree) InsertKey(key any, tid heap.TID) error {
	if err := CheckKey(key); err != nil {
		return err
	}

	if t.root == none {
		t.root = t.alloc(node{
			leaf:    true,
			entries: []Entry{{Key: key, TID: tid}},
			next:    none,
		})
		t.height = 1
		t.count = 1
		return nil
	}

	right, split := t.insertInto(t.root, key, tid)
	if split {
		left := t.root
		t.root = t.alloc(node{
			keys:     []any{t.nodes[left].minKey(), t.nodes[right].minKey()},
			children: []int{left, right},
		})
		t.height++
		slog.Debug("btree.Tree root split", "height", t.height)
	}
	t.count++
	return nil
}

// insertInto descends to the target leaf, inserts, and propagates splits
// back up. It returns the arena index of the new right sibling when this
// node split.
func (t *Tree) insertInto(idx int, key any, tid heap.TID) (int, bool) {
	if t.nodes[idx].leaf {
		return t.insertLeaf(idx, key, tid)
	}

	// Min-key separator rule: descend into the rightmost child whose
	// recorded minimum is <= key.
	ci := upperBoundKeys(t.nodes[idx].keys, key) - 1
	if ci < 0 {
		ci = 0
	}
	child := t.nodes[idx].children[ci]

	right, split := t.insertInto(child, key, tid)

	n := &t.nodes[idx]
	if Compare(key, n.keys[ci]) < 0 {
		// key became the new minimum of the leftmost subtree
		n.keys[ci] = key
	}
	if !split {
		return none, false
	}

	// The new right sibling sits directly after the child that split.
	sep := t.nodes[right].minKey()
	n = &t.nodes[idx]
	n.keys = slices.Insert(n.keys, ci+1, sep)
	n.children = slices.Insert(n.children, ci+1, right)

	if len(n.children) <= t.fanout {
		return none, false
	}

	mid := len(n.children) / 2
	rightNode := node{
		keys:     append([]any(nil), n.keys[mid:]...),
		children: append([]int(nil), n.children[mid:]...),
	}
	n.keys = n.keys[:mid]
	n.children = n.children[:mid]
	return t.alloc(rightNode), true
}

func (t *Tree) insertLeaf(idx int, key any, tid heap.TID) (int, bool) {
	n := &t.nodes[idx]

	// Upper bound keeps equal keys in insertion order.
	pos := upperBoundEntries(n.entries, key)
	n.entries = slices.Insert(n.entries, pos, Entry{Key: key, TID: tid})

	if len(n.entries) < t.fanout {
		return none, false
	}

	mid := len(n.entries) / 2
	rightNode := node{
		leaf:    true,
		entries: append([]Entry(nil), n.entries[mid:]...),
		next:    n.next,
	}
	n.entries = n.entries[:mid]

	ri := t.alloc(rightNode)
	t.nodes[idx].next = ri
	slog.Debug("btree.Tree leaf split", "left", idx, "right", ri)
	return ri, true
}

// seek returns the position of the first entry with key >= low as a
// (leaf arena index, entry offset) pair, or (none, 0) when no such entry
// exists. The descent is deliberately left-biased: with duplicate keys the
// matching run can begin one leaf before the separator suggests.
func (t *Tree) seek(low any) (int, int) {
	if t.root == none {
		return none, 0
	}

	idx := t.root
	for !t.nodes[idx].leaf {
		n := &t.nodes[idx]
		ci := lowerBoundKeys(n.keys, low) - 1
		if ci < 0 {
			ci = 0
		}
		idx = n.children[ci]
	}

	for idx != none {
		pos := lowerBoundEntries(t.nodes[idx].entries, low)
		if pos < len(t.nodes[idx].entries) {
			return idx, pos
		}
		idx = t.nodes[idx].next
	}
	return none, 0
}

// Lookup returns one representative TID for key, or false when no exact
// match exists. An empty tree is not an error.
func (t *Tree) Lookup(key any) (heap.TID, bool) {
	leaf, pos := t.seek(key)
	if leaf == none {
		return heap.TID{}, false
	}
	e := t.nodes[leaf].entries[pos]
	if Compare(e.Key, key) != 0 {
		return heap.TID{}, false
	}
	return e.TID, true
}

// RangeScan collects all entries with low <= key <= high (inclusive) by
// walking the leaf chain from the first match. Result order is leaf-chain
// order, which insertion maintains; nothing is re-sorted here.
func (t *Tree) RangeScan(low, high any) []Entry {
	var out []Entry
	if Compare(low, high) > 0 {
		return out
	}

	leaf, pos := t.seek(low)
	for leaf != none {
		entries := t.nodes[leaf].entries
		for ; pos < len(entries); pos++ {
			if Compare(entries[pos].Key, high) > 0 {
				return out
			}
			out = append(out, entries[pos])
		}
		leaf = t.nodes[leaf].next
		pos = 0
	}
	return out
}

// Depth is the number of levels from root to leaf inclusive: 0 for an empty
// tree, 1 for a single unsplit leaf.
func (t *Tree) Depth() int { return t.height }

// KeyCount is the total number of stored entries, duplicates included.
func (t *Tree) KeyCount() int { return t.count }

// Fanout returns the configured branching factor.
func (t *Tree) Fanout() int { return t.fanout }

// Entries returns every entry in leaf-chain order. Re-inserting them into an
// empty tree of the same fanout reproduces an equivalent tree; the block
// layer uses this for state snapshots.
func (t *Tree) Entries() []Entry {
	out := make([]Entry, 0, t.count)
	if t.root == none {
		return out
	}
	idx := t.root
	for !t.nodes[idx].leaf {
		idx = t.nodes[idx].children[0]
	}
	for idx != none {
		out = append(out, t.nodes[idx].entries...)
		idx = t.nodes[idx].next
	}
	return out
}

package btree

import "storelab/internal/heap"

// none marks an absent arena index (no next leaf, no root yet).
const none = -1

// Entry is one leaf-level index entry.
type Entry struct {
	Key any      `json:"key"`
	TID heap.TID `json:"tid"`
}

// node lives in the tree's arena and is addressed by its slice index, never
// by pointer. Child and next-leaf links are arena indices.
//
// Internal nodes use the min-key separator scheme: keys[i] is the minimum
// key of children[i]'s subtree, so len(keys) == len(children) and the keys
// are ascending. Leaves hold entries sorted by key, equal keys in insertion
// order, and chain to the next leaf via next.
type node struct {
	leaf     bool
	keys     []any
	children []int
	entries  []Entry
	next     int
}

// minKey is the smallest key reachable under this node.
func (n *node) minKey() any {
	if n.leaf {
		return n.entries[0].Key
	}
	return n.keys[0]
}

// upperBoundEntries returns the first position whose key compares strictly
// greater than key. Inserting there keeps equal keys in insertion order.
func upperBoundEntries(entries []Entry, key any) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if Compare(entries[mid].Key, key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// lowerBoundEntries returns the first position whose key is >= key.
func lowerBoundEntries(entries []Entry, key any) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if Compare(entries[mid].Key, key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func upperBoundKeys(keys []any, key any) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if Compare(keys[mid], key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func lowerBoundKeys(keys []any, key any) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if Compare(keys[mid], key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

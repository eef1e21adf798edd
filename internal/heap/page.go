package heap

import "storelab/internal/record"

// Slot states.
const (
	slotNormal uint8 = iota
	slotDeleted
)

type slot struct {
	rec   record.Record
	flags uint8
}

// page is an in-memory slotted page.
//
// +------------------+
// | slots[0]         |
// | slots[1]         |  <- appended in insert order
// | ...              |
// +------------------+
//
// used tracks the estimated bytes consumed by every tuple ever placed on the
// page, live or tombstoned. Tombstoning a slot does not give bytes back;
// reclaiming them is a compaction concern that is out of scope here.
type page struct {
	slots []slot
	used  int
}

// hasRoom reports whether the page may accept another tuple. budget is the
// page's fill-factor threshold in bytes; budget <= 0 means unbounded.
func (p *page) hasRoom(budget int) bool {
	return budget <= 0 || p.used < budget
}

// insert appends rec to a new slot and returns its slot index.
func (p *page) insert(rec record.Record, size int) int {
	p.slots = append(p.slots, slot{rec: rec, flags: slotNormal})
	p.used += size
	return len(p.slots) - 1
}

// isLiveSlot is bounds-checked: an out-of-range slot is simply not live.
func (p *page) isLiveSlot(i int) bool {
	return i >= 0 && i < len(p.slots) && p.slots[i].flags == slotNormal
}

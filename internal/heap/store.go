package heap

import (
	"errors"
	"log/slog"

	"storelab/internal/record"
)

const (
	// DefaultFillFactor is applied when the caller passes 0.
	DefaultFillFactor = 0.9
)

var ErrBadFillFactor = errors.New("heap: fill factor must be positive")

// Store is the heap file equivalent of the simulator: fixed-capacity slotted
// pages, one live slot per inserted record, tombstones on delete.
//
// Store assumes a single owner; it performs no internal locking.
type Store struct {
	pages      []page
	pageSize   int
	fillFactor float64

	live int
	dead int
}

// NewStore creates an empty store. pageSize <= 0 means unbounded pages (one
// page grows forever). fillFactor 0 selects DefaultFillFactor; negative
// values are rejected; values above 1 are clamped to 1.
func NewStore(pageSize int, fillFactor float64) (*Store, error) {
	if fillFactor < 0 {
		return nil, ErrBadFillFactor
	}
	if fillFactor == 0 {
		fillFactor = DefaultFillFactor
	}
	if fillFactor > 1 {
		fillFactor = 1
	}
	return &Store{pageSize: pageSize, fillFactor: fillFactor}, nil
}

// budget is the per-page byte threshold; 0 means unbounded.
func (s *Store) budget() int {
	if s.pageSize <= 0 {
		return 0
	}
	return int(float64(s.pageSize) * s.fillFactor)
}

// Insert places rec on the last page, allocating a new page when the current
// one has crossed its fill-factor threshold. Never fails for well-formed
// input. The stored copy is the store's own; the caller keeps theirs.
func (s *Store) Insert(rec record.Record) TID {
	size := record.Size(rec)

	if len(s.pages) == 0 {
		s.pages = append(s.pages, page{})
	}

	cur := len(s.pages) - 1
	if !s.pages[cur].hasRoom(s.budget()) {
		s.pages = append(s.pages, page{})
		cur++
		slog.Debug("heap.Store.Insert allocated page", "pageID", cur)
	}

	slotID := s.pages[cur].insert(rec.Clone(), size)
	s.live++
	return TID{Page: cur, Slot: slotID}
}

// Get reads a single row by TID. Unknown, out-of-range, or tombstoned
// identifiers yield (nil, false) rather than an error; addressing is direct,
// never a scan.
func (s *Store) Get(id TID) (record.Record, bool) {
	if id.Page < 0 || id.Page >= len(s.pages) {
		return nil, false
	}
	p := &s.pages[id.Page]
	if !p.isLiveSlot(id.Slot) {
		return nil, false
	}
	return p.slots[id.Slot].rec.Clone(), true
}

// Delete marks the slot identified by id as a tombstone. It reports whether a
// live record was actually removed; deleting a dead or out-of-range
// identifier is a no-op returning false.
func (s *Store) Delete(id TID) bool {
	if id.Page < 0 || id.Page >= len(s.pages) {
		return false
	}
	p := &s.pages[id.Page]
	if !p.isLiveSlot(id.Slot) {
		return false
	}
	p.slots[id.Slot].flags = slotDeleted
	s.live--
	s.dead++
	return true
}

// Scan iterates all live rows in (page, slot) order, skipping tombstones.
func (s *Store) Scan(fn func(id TID, rec record.Record) error) error {
	for pageID := range s.pages {
		p := &s.pages[pageID]
		for slotID := range p.slots {
			if !p.isLiveSlot(slotID) {
				continue
			}
			id := TID{Page: pageID, Slot: slotID}
			if err := fn(id, p.slots[slotID].rec.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

// ScanAll collects every live row in (page, slot) order.
func (s *Store) ScanAll() []record.Record {
	out := make([]record.Record, 0, s.live)
	_ = s.Scan(func(_ TID, rec record.Record) error {
		out = append(out, rec)
		return nil
	})
	return out
}

func (s *Store) LiveCount() int { return s.live }

func (s *Store) PageCount() int { return len(s.pages) }

// FragmentationPct is the share of allocated slots that are tombstoned,
// 100 * dead / (live + dead), or 0 when nothing was ever deleted.
func (s *Store) FragmentationPct() float64 {
	total := s.live + s.dead
	if s.dead == 0 || total == 0 {
		return 0
	}
	return 100 * float64(s.dead) / float64(total)
}

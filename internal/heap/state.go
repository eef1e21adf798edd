package heap

import "storelab/internal/record"

// SlotState is the serializable form of one slot.
type SlotState struct {
	Rec  record.Record `json:"rec"`
	Dead bool          `json:"dead"`
}

// PageState is the serializable form of one page.
type PageState struct {
	Slots []SlotState `json:"slots"`
	Used  int         `json:"used"`
}

// State is a full snapshot of a Store, including tombstones, so that TIDs
// handed out before the snapshot stay valid after a restore.
type State struct {
	PageSize   int         `json:"page_size"`
	FillFactor float64     `json:"fill_factor"`
	Pages      []PageState `json:"pages"`
}

// State captures the store for later RestoreStore.
func (s *Store) State() State {
	st := State{
		PageSize:   s.pageSize,
		FillFactor: s.fillFactor,
		Pages:      make([]PageState, len(s.pages)),
	}
	for i := range s.pages {
		p := &s.pages[i]
		ps := PageState{
			Slots: make([]SlotState, len(p.slots)),
			Used:  p.used,
		}
		for j, sl := range p.slots {
			ps.Slots[j] = SlotState{
				Rec:  sl.rec.Clone(),
				Dead: sl.flags == slotDeleted,
			}
		}
		st.Pages[i] = ps
	}
	return st
}

// RestoreStore rebuilds a Store from a snapshot. Live/tombstone counters are
// recomputed from the slots rather than trusted from the payload.
func RestoreStore(st State) (*Store, error) {
	s, err := NewStore(st.PageSize, st.FillFactor)
	if err != nil {
		return nil, err
	}
	s.pages = make([]page, len(st.Pages))
	for i, ps := range st.Pages {
		p := page{used: ps.Used, slots: make([]slot, len(ps.Slots))}
		for j, ss := range ps.Slots {
			fl := slotNormal
			if ss.Dead {
				fl = slotDeleted
				s.dead++
			} else {
				s.live++
			}
			p.slots[j] = slot{rec: ss.Rec.Clone(), flags: fl}
		}
		s.pages[i] = p
	}
	return s, nil
}

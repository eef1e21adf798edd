package heap

// TID (Tuple ID) row identity inside of the heap store:
// Page: logical page ID, assigned in allocation order
// Slot: slot index inside the page
//
// A TID is stable for the life of its record. Deleted slots are retired, not
// reused, so a TID can never silently start pointing at a different record.
type TID struct {
	Page int
	Slot int
}

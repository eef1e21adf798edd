package cache

import (
	"container/list"
	"errors"
)

var (
	ErrBadCapacity = errors.New("cache: capacity must not be negative")
	ErrBadState    = errors.New("cache: resident set exceeds capacity")
)

// PageCache is a bounded, strictly LRU set of page IDs with buffer-pool
// style hit/miss/eviction accounting. It only tracks residency; there is no
// page payload and nothing to write back.
//
// PageCache assumes a single owner; it performs no internal locking.
type PageCache struct {
	capacity int
	lruList  *list.List // front = most recently used
	table    map[int]*list.Element

	hits      int
	misses    int
	evictions int
}

// NewPageCache creates an empty cache. Capacity 0 is legal and means every
// access is a miss with nothing retained; negative capacities are rejected.
func NewPageCache(capacity int) (*PageCache, error) {
	if capacity < 0 {
		return nil, ErrBadCapacity
	}
	return &PageCache{
		capacity: capacity,
		lruList:  list.New(),
		table:    make(map[int]*list.Element),
	}, nil
}

// GetPage simulates one page access and reports whether it hit. A hit
// promotes the page to most-recently-used; a miss inserts it as
// most-recently-used, evicting the LRU entry first when at capacity.
func (c *PageCache) GetPage(pageID int) bool {
	if el, ok := c.table[pageID]; ok {
		c.hits++
		c.lruList.MoveToFront(el)
		return true
	}

	c.misses++
	if c.capacity == 0 {
		return false
	}

	if c.lruList.Len() >= c.capacity {
		back := c.lruList.Back()
		delete(c.table, back.Value.(int))
		c.lruList.Remove(back)
		c.evictions++
	}

	c.table[pageID] = c.lruList.PushFront(pageID)
	return false
}

func (c *PageCache) Len() int { return c.lruList.Len() }

func (c *PageCache) Capacity() int { return c.capacity }

func (c *PageCache) Contains(pageID int) bool {
	_, ok := c.table[pageID]
	return ok
}

func (c *PageCache) Hits() int { return c.hits }

func (c *PageCache) Misses() int { return c.misses }

func (c *PageCache) Evictions() int { return c.evictions }

// HitRatePct is 100 * hits / (hits + misses), or 0 before any access.
func (c *PageCache) HitRatePct() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return 100 * float64(c.hits) / float64(total)
}

// ResidentPages lists resident page IDs from least to most recently used.
func (c *PageCache) ResidentPages() []int {
	out := make([]int, 0, c.lruList.Len())
	for el := c.lruList.Back(); el != nil; el = el.Prev() {
		out = append(out, el.Value.(int))
	}
	return out
}

// State is a serializable snapshot of the cache.
type State struct {
	Capacity  int   `json:"capacity"`
	Resident  []int `json:"resident"` // LRU -> MRU order
	Hits      int   `json:"hits"`
	Misses    int   `json:"misses"`
	Evictions int   `json:"evictions"`
}

func (c *PageCache) State() State {
	return State{
		Capacity:  c.capacity,
		Resident:  c.ResidentPages(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// RestoreCache rebuilds a cache from a snapshot, preserving both the
// counters and the recency order of the resident set.
func RestoreCache(st State) (*PageCache, error) {
	c, err := NewPageCache(st.Capacity)
	if err != nil {
		return nil, err
	}
	if len(st.Resident) > st.Capacity {
		return nil, ErrBadState
	}
	for _, pageID := range st.Resident {
		c.table[pageID] = c.lruList.PushFront(pageID)
	}
	c.hits = st.Hits
	c.misses = st.Misses
	c.evictions = st.Evictions
	return c, nil
}

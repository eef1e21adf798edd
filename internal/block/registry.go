package block

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrUnknownBlock   = errors.New("block: unknown block id")
	ErrDuplicateBlock = errors.New("block: id already registered")
)

// Factory builds a fresh, uninitialized block instance.
type Factory func() Block

// Registry maps block IDs to factories so a pipeline host can construct
// instances by name. It is safe for concurrent use; the blocks it hands out
// are not.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(id string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBlock, id)
	}
	r.factories[id] = f
	return nil
}

func (r *Registry) New(id string) (Block, error) {
	r.mu.Lock()
	f, ok := r.factories[id]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, id)
	}
	return f(), nil
}

func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Builtin returns a registry preloaded with the storage-engine blocks.
func Builtin() *Registry {
	r := NewRegistry()
	_ = r.Register("heap_store", func() Block { return NewHeapStoreBlock() })
	_ = r.Register("btree_index", func() Block { return NewIndexBlock() })
	_ = r.Register("page_cache", func() Block { return NewPageCacheBlock() })
	return r
}

package block

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"

	"storelab/internal/cache"
	"storelab/internal/record"
)

var _ Block = (*PageCacheBlock)(nil)

// PageCacheBlock hosts a cache.PageCache behind the plugin contract.
//
// Options: size (capacity in pages, required, >= 0), page_size (bytes,
// informational only, surfaced as a metric label and never consulted by the
// eviction logic).
//
// Execute consumes the "requests" stream, applies one cache access per
// record's page_id field, and reports the cumulative counters. The cache is
// not reset between Execute calls, so a repeated batch can show its hit rate
// improving.
type PageCacheBlock struct {
	cache    *cache.PageCache
	pageSize int
}

func NewPageCacheBlock() *PageCacheBlock { return &PageCacheBlock{} }

func (b *PageCacheBlock) Metadata() Metadata {
	return Metadata{
		ID:       "page_cache",
		Category: "cache",
		Doc:      "Bounded LRU page cache with hit/miss/eviction accounting.",
	}
}

func (b *PageCacheBlock) Initialize(cfg Config) error {
	size, err := requiredIntOption(cfg, "size")
	if err != nil {
		return err
	}
	pageSize, err := intOption(cfg, "page_size", 0)
	if err != nil {
		return err
	}

	c, err := cache.NewPageCache(size)
	if err != nil {
		return fmt.Errorf("%w: size=%d", ErrBadOption, size)
	}
	b.cache = c
	b.pageSize = pageSize
	return nil
}

func (b *PageCacheBlock) Execute(ctx *Context) error {
	if b.cache == nil {
		return ErrNotInitialized
	}

	in := ctx.Inputs[StreamRequests]

	// decode the whole batch before touching the cache; a malformed request
	// must not leave a partially applied access sequence behind
	pageIDs := make([]int, 0, len(in))
	for i, rec := range in {
		v, ok := rec[FieldPageID]
		if !ok {
			return fmt.Errorf("%w: request %d has no %q field", ErrBadInput, i, FieldPageID)
		}
		pageID, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("%w: request %d: %v", ErrBadInput, i, err)
		}
		pageIDs = append(pageIDs, pageID)
	}

	out := make([]record.Record, 0, len(in))
	for i, pageID := range pageIDs {
		hit := b.cache.GetPage(pageID)
		tagged := in[i].Clone()
		tagged[FieldCacheHit] = hit
		out = append(out, tagged)
	}

	ctx.Outputs[StreamRequests] = out
	ctx.Metrics["cache_hits"] = float64(b.cache.Hits())
	ctx.Metrics["cache_misses"] = float64(b.cache.Misses())
	ctx.Metrics["evictions"] = float64(b.cache.Evictions())
	ctx.Metrics["hit_rate_pct"] = b.cache.HitRatePct()
	if b.pageSize > 0 {
		ctx.Metrics["page_size"] = float64(b.pageSize)
	}
	return nil
}

func (b *PageCacheBlock) Validate(inputs []string) []string {
	var warnings []string
	if !hasInput(inputs, StreamRequests) {
		warnings = append(warnings,
			"page_cache: input 'requests' is absent; execute will access nothing")
	}
	return warnings
}

// Cache exposes the underlying component for residency checks beyond the
// bulk pipeline surface.
func (b *PageCacheBlock) Cache() *cache.PageCache { return b.cache }

type cacheState struct {
	Cache    cache.State `json:"cache"`
	PageSize int         `json:"page_size"`
}

func (b *PageCacheBlock) GetState() ([]byte, error) {
	if b.cache == nil {
		return nil, ErrNotInitialized
	}
	return json.Marshal(cacheState{Cache: b.cache.State(), PageSize: b.pageSize})
}

func (b *PageCacheBlock) SetState(data []byte) error {
	var st cacheState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("%w: %v", ErrBadState, err)
	}
	c, err := cache.RestoreCache(st.Cache)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadState, err)
	}
	b.cache = c
	b.pageSize = st.PageSize
	return nil
}

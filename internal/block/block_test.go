package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storelab/internal/heap"
	"storelab/internal/record"
)

func newRows(n int) []record.Record {
	rows := make([]record.Record, 0, n)
	for i := range n {
		rows = append(rows, record.Record{"id": i, "payload": "xxxxxxxxxxxxxxxx"})
	}
	return rows
}

func initBlock(t *testing.T, b Block, cfg Config) {
	t.Helper()
	require.NoError(t, b.Initialize(cfg))
}

// mustTID pulls the heap-assigned identifier off an annotated record.
func mustTID(t *testing.T, rec record.Record) heap.TID {
	t.Helper()
	tid, err := tidFromRecord(rec)
	require.NoError(t, err)
	return tid
}

func TestHeapStoreBlock_ExecuteAnnotates(t *testing.T) {
	b := NewHeapStoreBlock()
	initBlock(t, b, Config{"page_size": 256})

	ctx := NewContext()
	ctx.Inputs[StreamRecords] = newRows(50)
	require.NoError(t, b.Execute(ctx))

	out := ctx.Outputs[StreamRecords]
	require.Len(t, out, 50)
	for i, rec := range out {
		// input order preserved, identifiers attached
		assert.Equal(t, i, rec["id"])
		assert.Contains(t, rec, FieldPageID)
		assert.Contains(t, rec, FieldSlotID)
	}

	assert.Equal(t, 50.0, ctx.Metrics["records_inserted"])
	assert.Equal(t, 50.0, ctx.Metrics["live_records"])
	assert.GreaterOrEqual(t, ctx.Metrics["pages"], 1.0)
	assert.Equal(t, 0.0, ctx.Metrics["fragmentation_pct"])

	// the annotation is on a copy; the caller's input rows stay clean
	assert.NotContains(t, ctx.Inputs[StreamRecords][0], FieldPageID)
}

func TestHeapStoreBlock_InitializeValidation(t *testing.T) {
	require.ErrorIs(t, NewHeapStoreBlock().Initialize(Config{"page_size": -1}), ErrBadOption)
	require.ErrorIs(t, NewHeapStoreBlock().Initialize(Config{"fill_factor": -0.2}), ErrBadOption)
	require.ErrorIs(t, NewHeapStoreBlock().Initialize(Config{"page_size": "lots"}), ErrBadOption)

	// defaults: unbounded pages
	b := NewHeapStoreBlock()
	initBlock(t, b, Config{})
	ctx := NewContext()
	ctx.Inputs[StreamRecords] = newRows(10)
	require.NoError(t, b.Execute(ctx))
	assert.Equal(t, 1.0, ctx.Metrics["pages"])
}

func TestHeapStoreBlock_ExecuteBeforeInitialize(t *testing.T) {
	err := NewHeapStoreBlock().Execute(NewContext())
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestIndexBlock_InitializeValidation(t *testing.T) {
	require.ErrorIs(t, NewIndexBlock().Initialize(Config{"fanout": 1}), ErrBadOption)
	require.ErrorIs(t, NewIndexBlock().Initialize(Config{"fanout": "wide"}), ErrBadOption)

	b := NewIndexBlock()
	initBlock(t, b, Config{})
	assert.Equal(t, DefaultFanout, b.Tree().Fanout())
}

func TestIndexBlock_MalformedBatchLeavesTreeUntouched(t *testing.T) {
	b := NewIndexBlock()
	initBlock(t, b, Config{"fanout": 4, "key_column": "id"})

	good := record.Record{"id": 1, FieldPageID: 0, FieldSlotID: 0}
	noKey := record.Record{FieldPageID: 0, FieldSlotID: 1}

	ctx := NewContext()
	ctx.Inputs[StreamRecords] = []record.Record{good, noKey}
	require.ErrorIs(t, b.Execute(ctx), ErrBadInput)
	assert.Equal(t, 0, b.Tree().KeyCount(), "failed execute must not partially index")

	noTID := record.Record{"id": 2}
	ctx = NewContext()
	ctx.Inputs[StreamRecords] = []record.Record{good, noTID}
	require.ErrorIs(t, b.Execute(ctx), ErrBadInput)
	assert.Equal(t, 0, b.Tree().KeyCount())

	badKey := record.Record{"id": map[string]any{"no": "scalar"}, FieldPageID: 0, FieldSlotID: 2}
	ctx = NewContext()
	ctx.Inputs[StreamRecords] = []record.Record{badKey}
	require.ErrorIs(t, b.Execute(ctx), ErrBadInput)
	assert.Equal(t, 0, b.Tree().KeyCount())
}

func TestPageCacheBlock_InitializeValidation(t *testing.T) {
	require.ErrorIs(t, NewPageCacheBlock().Initialize(Config{}), ErrMissingOption)
	require.ErrorIs(t, NewPageCacheBlock().Initialize(Config{"size": -2}), ErrBadOption)
	require.ErrorIs(t, NewPageCacheBlock().Initialize(Config{"size": "big"}), ErrBadOption)

	// zero is a legal, always-miss configuration
	b := NewPageCacheBlock()
	initBlock(t, b, Config{"size": 0})
	assert.Equal(t, 0, b.Cache().Capacity())
}

func TestPageCacheBlock_CumulativeAcrossExecutes(t *testing.T) {
	b := NewPageCacheBlock()
	initBlock(t, b, Config{"size": 8, "page_size": 4096})

	requests := make([]record.Record, 0, 8)
	for i := range 8 {
		requests = append(requests, record.Record{FieldPageID: i})
	}

	ctx := NewContext()
	ctx.Inputs[StreamRequests] = requests
	require.NoError(t, b.Execute(ctx))
	assert.Equal(t, 8.0, ctx.Metrics["cache_misses"])
	assert.Equal(t, 0.0, ctx.Metrics["cache_hits"])
	assert.Equal(t, 4096.0, ctx.Metrics["page_size"])

	// same batch again: state persisted, so everything hits now
	ctx2 := NewContext()
	ctx2.Inputs[StreamRequests] = requests
	require.NoError(t, b.Execute(ctx2))
	assert.Equal(t, 8.0, ctx2.Metrics["cache_misses"])
	assert.Equal(t, 8.0, ctx2.Metrics["cache_hits"])
	assert.InDelta(t, 50.0, ctx2.Metrics["hit_rate_pct"], 0.001)

	for _, rec := range ctx2.Outputs[StreamRequests] {
		assert.Equal(t, true, rec[FieldCacheHit])
	}
}

func TestPageCacheBlock_MalformedBatchLeavesCacheUntouched(t *testing.T) {
	b := NewPageCacheBlock()
	initBlock(t, b, Config{"size": 4})

	ctx := NewContext()
	ctx.Inputs[StreamRequests] = []record.Record{
		{FieldPageID: 1},
		{"not_a_page": true},
	}
	require.ErrorIs(t, b.Execute(ctx), ErrBadInput)
	assert.Equal(t, 0, b.Cache().Misses(), "failed execute must not apply any access")
	assert.Equal(t, 0, b.Cache().Len())
}

func TestValidate_WarnsOnAbsentInputs(t *testing.T) {
	blocks := []Block{NewHeapStoreBlock(), NewIndexBlock(), NewPageCacheBlock()}
	for _, b := range blocks {
		warnings := b.Validate(nil)
		assert.Len(t, warnings, 1, "%s should warn", b.Metadata().ID)
	}

	assert.Empty(t, NewHeapStoreBlock().Validate([]string{StreamRecords}))
	assert.Empty(t, NewIndexBlock().Validate([]string{StreamRecords}))
	assert.Empty(t, NewPageCacheBlock().Validate([]string{StreamRequests}))
}

func TestRegistry(t *testing.T) {
	r := Builtin()
	assert.Equal(t, []string{"btree_index", "heap_store", "page_cache"}, r.IDs())

	b, err := r.New("heap_store")
	require.NoError(t, err)
	assert.Equal(t, "heap_store", b.Metadata().ID)

	_, err = r.New("lsm_tree")
	require.ErrorIs(t, err, ErrUnknownBlock)

	err = r.Register("heap_store", func() Block { return NewHeapStoreBlock() })
	require.ErrorIs(t, err, ErrDuplicateBlock)

	// instances are independent
	b2, err := r.New("heap_store")
	require.NoError(t, err)
	require.NoError(t, b2.Initialize(Config{}))
	assert.NotSame(t, b, b2)
}

func TestBlocks_StateRoundTrip(t *testing.T) {
	// heap
	hb := NewHeapStoreBlock()
	initBlock(t, hb, Config{"page_size": 128})
	ctx := NewContext()
	ctx.Inputs[StreamRecords] = newRows(20)
	require.NoError(t, hb.Execute(ctx))
	hb.Store().Delete(mustTID(t, ctx.Outputs[StreamRecords][0]))

	data, err := hb.GetState()
	require.NoError(t, err)
	hb2 := NewHeapStoreBlock()
	require.NoError(t, hb2.SetState(data))
	assert.Equal(t, 19, hb2.Store().LiveCount())
	assert.Equal(t, hb.Store().PageCount(), hb2.Store().PageCount())

	// index
	ib := NewIndexBlock()
	initBlock(t, ib, Config{"fanout": 4})
	ictx := NewContext()
	ictx.Inputs[StreamRecords] = ctx.Outputs[StreamRecords]
	require.NoError(t, ib.Execute(ictx))

	data, err = ib.GetState()
	require.NoError(t, err)
	ib2 := NewIndexBlock()
	require.NoError(t, ib2.SetState(data))
	assert.Equal(t, ib.Tree().KeyCount(), ib2.Tree().KeyCount())
	assert.Equal(t, ib.Tree().Depth(), ib2.Tree().Depth())

	// JSON widens numbers to float64; the comparator makes lookups agree
	tid, ok := ib2.Tree().Lookup(7)
	require.True(t, ok)
	assert.Equal(t, mustTID(t, ctx.Outputs[StreamRecords][7]), tid)

	// cache
	cb := NewPageCacheBlock()
	initBlock(t, cb, Config{"size": 3})
	cctx := NewContext()
	cctx.Inputs[StreamRequests] = []record.Record{
		{FieldPageID: 1}, {FieldPageID: 2}, {FieldPageID: 3}, {FieldPageID: 1}, {FieldPageID: 4},
	}
	require.NoError(t, cb.Execute(cctx))

	data, err = cb.GetState()
	require.NoError(t, err)
	cb2 := NewPageCacheBlock()
	require.NoError(t, cb2.SetState(data))
	assert.Equal(t, cb.Cache().Hits(), cb2.Cache().Hits())
	assert.Equal(t, cb.Cache().Misses(), cb2.Cache().Misses())
	assert.Equal(t, cb.Cache().ResidentPages(), cb2.Cache().ResidentPages())

	// undecodable payloads are rejected
	require.ErrorIs(t, NewHeapStoreBlock().SetState([]byte("{")), ErrBadState)
	require.ErrorIs(t, NewIndexBlock().SetState([]byte("nope")), ErrBadState)
	require.ErrorIs(t, NewPageCacheBlock().SetState([]byte("[]")), ErrBadState)
}

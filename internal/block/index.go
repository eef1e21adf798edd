package block

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"

	"storelab/internal/btree"
	"storelab/internal/heap"
)

const (
	DefaultFanout    = 32
	DefaultKeyColumn = "id"
)

var _ Block = (*IndexBlock)(nil)

// IndexBlock hosts a btree.Tree behind the plugin contract.
//
// Options: fanout (branching factor, >= 2, default DefaultFanout),
// key_column (record field supplying the key, default DefaultKeyColumn).
//
// Execute consumes the "records" stream as annotated by the heap store
// (page_id/slot_id fields), indexes key_column for each record, and passes
// the stream through unchanged. The whole batch is checked before any entry
// is inserted, so a malformed batch leaves the index untouched.
type IndexBlock struct {
	tree      *btree.Tree
	keyColumn string
}

func NewIndexBlock() *IndexBlock { return &IndexBlock{} }

func (b *IndexBlock) Metadata() Metadata {
	return Metadata{
		ID:       "btree_index",
		Category: "index",
		Doc:      "Ordered multiway index over tuple identifiers with range scans.",
	}
}

func (b *IndexBlock) Initialize(cfg Config) error {
	fanout, err := intOption(cfg, "fanout", DefaultFanout)
	if err != nil {
		return err
	}
	keyColumn, err := stringOption(cfg, "key_column", DefaultKeyColumn)
	if err != nil {
		return err
	}

	tree, err := btree.NewTree(fanout)
	if err != nil {
		return fmt.Errorf("%w: fanout=%d", ErrBadOption, fanout)
	}
	b.tree = tree
	b.keyColumn = keyColumn
	return nil
}

func (b *IndexBlock) Execute(ctx *Context) error {
	if b.tree == nil {
		return ErrNotInitialized
	}

	in := ctx.Inputs[StreamRecords]

	// validate the whole batch up front: Execute must not leave the tree
	// partially populated on a malformed stream
	entries := make([]btree.Entry, 0, len(in))
	for i, rec := range in {
		key, ok := rec[b.keyColumn]
		if !ok {
			return fmt.Errorf("%w: record %d has no %q field", ErrBadInput, i, b.keyColumn)
		}
		if err := btree.CheckKey(key); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrBadInput, i, err)
		}
		tid, err := tidFromRecord(rec)
		if err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrBadInput, i, err)
		}
		entries = append(entries, btree.Entry{Key: key, TID: tid})
	}

	for _, e := range entries {
		if err := b.tree.InsertKey(e.Key, e.TID); err != nil {
			return err
		}
	}

	ctx.Outputs[StreamRecords] = in
	ctx.Metrics["keys_indexed"] = float64(len(entries))
	ctx.Metrics["key_count"] = float64(b.tree.KeyCount())
	ctx.Metrics["tree_depth"] = float64(b.tree.Depth())
	return nil
}

func tidFromRecord(rec map[string]any) (heap.TID, error) {
	pv, ok := rec[FieldPageID]
	if !ok {
		return heap.TID{}, fmt.Errorf("missing %q field", FieldPageID)
	}
	sv, ok := rec[FieldSlotID]
	if !ok {
		return heap.TID{}, fmt.Errorf("missing %q field", FieldSlotID)
	}
	pageID, err := cast.ToIntE(pv)
	if err != nil {
		return heap.TID{}, err
	}
	slotID, err := cast.ToIntE(sv)
	if err != nil {
		return heap.TID{}, err
	}
	return heap.TID{Page: pageID, Slot: slotID}, nil
}

func (b *IndexBlock) Validate(inputs []string) []string {
	var warnings []string
	if !hasInput(inputs, StreamRecords) {
		warnings = append(warnings,
			"btree_index: input 'records' is absent; execute will index nothing")
	}
	return warnings
}

// Tree exposes the underlying component for point lookups and range scans
// beyond the bulk pipeline surface.
func (b *IndexBlock) Tree() *btree.Tree { return b.tree }

type indexState struct {
	Fanout    int           `json:"fanout"`
	KeyColumn string        `json:"key_column"`
	Entries   []btree.Entry `json:"entries"`
}

func (b *IndexBlock) GetState() ([]byte, error) {
	if b.tree == nil {
		return nil, ErrNotInitialized
	}
	return json.Marshal(indexState{
		Fanout:    b.tree.Fanout(),
		KeyColumn: b.keyColumn,
		Entries:   b.tree.Entries(),
	})
}

// SetState rebuilds the tree by re-inserting the snapshot's entries in
// leaf-chain order, which reproduces key order and duplicate ordering.
func (b *IndexBlock) SetState(data []byte) error {
	var st indexState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("%w: %v", ErrBadState, err)
	}
	tree, err := btree.NewTree(st.Fanout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadState, err)
	}
	for _, e := range st.Entries {
		if err := tree.InsertKey(e.Key, e.TID); err != nil {
			return fmt.Errorf("%w: %v", ErrBadState, err)
		}
	}
	b.tree = tree
	b.keyColumn = st.KeyColumn
	return nil
}

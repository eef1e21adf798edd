package block

import (
	"errors"

	"storelab/internal/record"
)

var (
	ErrNotInitialized = errors.New("block: not initialized")
	ErrMissingOption  = errors.New("block: required option missing")
	ErrBadOption      = errors.New("block: invalid option value")
	ErrBadInput       = errors.New("block: malformed input record")
	ErrBadState       = errors.New("block: undecodable state payload")
)

// Stream and field names shared by the built-in blocks. The heap store
// annotates its output records with the tuple-identifier fields; the index
// and the cache consume them downstream.
const (
	StreamRecords  = "records"
	StreamRequests = "requests"

	FieldPageID   = "page_id"
	FieldSlotID   = "slot_id"
	FieldCacheHit = "cache_hit"
)

// Metadata describes a block to the hosting runtime. It is static and has no
// behavioral effect on the block itself.
type Metadata struct {
	ID       string
	Category string
	Doc      string
}

// Config is the named-option mapping passed to Initialize. Values arrive
// dynamically typed (a host may have parsed them from YAML or a UI form);
// the option helpers coerce and bound them.
type Config map[string]any

// Context carries one Execute call's named input streams, named output
// streams, and the flat metric map the call produced.
type Context struct {
	Inputs  map[string][]record.Record
	Outputs map[string][]record.Record
	Metrics map[string]float64
}

func NewContext() *Context {
	return &Context{
		Inputs:  make(map[string][]record.Record),
		Outputs: make(map[string][]record.Record),
		Metrics: make(map[string]float64),
	}
}

// InputNames lists the streams present on the context, for Validate.
func (c *Context) InputNames() []string {
	names := make([]string, 0, len(c.Inputs))
	for name := range c.Inputs {
		names = append(names, name)
	}
	return names
}

// Block is the minimal contract between a simulator component and the
// hosting pipeline runtime.
//
// Execute either fully applies or leaves the block untouched: an input-shape
// error is reported before any state mutation happens. Validate never blocks
// execution; it only reports warnings about absent inputs. State payloads
// are opaque to the host (JSON internally) and round-trip through
// GetState/SetState.
type Block interface {
	Metadata() Metadata
	Initialize(cfg Config) error
	Execute(ctx *Context) error
	Validate(inputs []string) []string
	GetState() ([]byte, error)
	SetState(data []byte) error
}

func hasInput(inputs []string, name string) bool {
	for _, in := range inputs {
		if in == name {
			return true
		}
	}
	return false
}

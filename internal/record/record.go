package record

// Record is a schemaless row: field name -> dynamically typed value.
// Values may be strings, numbers, booleans, nil, or nested maps/slices.
type Record map[string]any

// Clone returns a deep copy. The heap store clones on insert and on read so
// that callers and stored rows never alias each other.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case Record:
		return map[string]any(t.Clone())
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		// scalars are value types
		return t
	}
}

// Per-value sizing constants. The simulator models page capacity, not a wire
// format, so sizes only need to be deterministic and roughly proportional.
const (
	sizeScalar   = 8 // numbers, booleans, nil
	sizeOverhead = 2 // per field / element bookkeeping
)

// Size returns a deterministic byte estimate for the record, used by the
// heap store to decide when a page crosses its fill-factor threshold.
func Size(r Record) int {
	n := sizeOverhead
	for k, v := range r {
		n += len(k) + sizeOverhead + valueSize(v)
	}
	return n
}

func valueSize(v any) int {
	switch t := v.(type) {
	case string:
		return len(t) + sizeOverhead
	case map[string]any:
		return Size(Record(t))
	case Record:
		return Size(t)
	case []any:
		n := sizeOverhead
		for _, e := range t {
			n += valueSize(e)
		}
		return n
	default:
		return sizeScalar
	}
}

package btree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

var ErrBadKeyType = errors.New("btree: unsupported key type")

// CheckKey rejects keys the comparator cannot order deterministically.
// Scalars (strings, numbers, booleans) are fine; nil and composite values
// are not index keys.
func CheckKey(key any) error {
	if key == nil {
		return ErrBadKeyType
	}
	switch key.(type) {
	case map[string]any, []any:
		return ErrBadKeyType
	}
	return nil
}

// Compare orders two index keys:
//
//   - numeric vs numeric: numeric order (widened to float64)
//   - string vs string:   lexicographic
//   - anything else:      lexicographic over the values' string form
//
// The fallback is a deliberate, deterministic policy for mixed-type keys,
// not an error path.
func Compare(a, b any) int {
	if an, ok := asNumber(a); ok {
		if bn, ok := asNumber(b); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asNumber(v any) (float64, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return cast.ToFloat64(v), true
	}
	return 0, false
}

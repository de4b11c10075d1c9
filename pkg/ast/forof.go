package ast

import (
	"errors"
	"fmt"
	"math"

	"github.com/vango-dev/vbind/pkg/reactive"
)

// ErrNotIterable is returned by ForOfStatement.Count and Iterate for values
// outside the iteration table.
var ErrNotIterable = errors.New("vbind: value is not iterable")

// MaxRange is the largest number a for-of loop iterates over as a range.
const MaxRange = 1 << 24

// iteration classifies a for-of result. Each entry converts a runtime value
// into the ordered items the loop body sees.
type iteration struct {
	count func(v any) int
	items func(v any) []any
	// each, when set, yields the items without materializing them.
	each func(v any, fn func(int, any))
}

var forOfTable = map[string]iteration{
	"array": {
		count: func(v any) int { return v.(*reactive.Array).Len() },
		items: func(v any) []any { return v.(*reactive.Array).Items() },
	},
	"map": {
		count: func(v any) int { return v.(*reactive.Map).Len() },
		items: func(v any) []any {
			entries := v.(*reactive.Map).Entries()
			out := make([]any, len(entries))
			for i, kv := range entries {
				out[i] = reactive.NewArray(kv[0], kv[1])
			}
			return out
		},
	},
	"set": {
		count: func(v any) int { return v.(*reactive.Set).Len() },
		items: func(v any) []any { return v.(*reactive.Set).Values() },
	},
	"number": {
		count: func(v any) int { return int(v.(float64)) },
		each: func(v any, fn func(int, any)) {
			for i, n := 0, int(v.(float64)); i < n; i++ {
				fn(i, float64(i))
			}
		},
	},
	"empty": {
		count: func(any) int { return 0 },
		items: func(any) []any { return nil },
	},
}

func classify(v any) (string, any, error) {
	switch t := reactive.Normalize(v).(type) {
	case *reactive.Array:
		return "array", t, nil
	case *reactive.Map:
		return "map", t, nil
	case *reactive.Set:
		return "set", t, nil
	case float64:
		if t < 0 || t != math.Trunc(t) || math.IsInf(t, 0) {
			return "", nil, fmt.Errorf("%w: invalid range %v", ErrNotIterable, t)
		}
		if t > MaxRange {
			return "", nil, fmt.Errorf("%w: range %v exceeds %d", ErrNotIterable, t, MaxRange)
		}
		return "number", t, nil
	case nil, reactive.UndefinedType:
		return "empty", t, nil
	}
	return "", nil, fmt.Errorf("%w: %s", ErrNotIterable, reactive.TypeOf(v))
}

// Count returns how many items iterating result would produce.
func (e *ForOfStatement) Count(result any) (int, error) {
	kind, v, err := classify(result)
	if err != nil {
		return 0, err
	}
	return forOfTable[kind].count(v), nil
}

// Iterate calls fn with the index and item of each element of result: array
// items, map entries as [key, value] arrays, set values, the integers 0..n-1
// for a number n up to MaxRange, and nothing for null or undefined.
func (e *ForOfStatement) Iterate(result any, fn func(index int, item any)) error {
	kind, v, err := classify(result)
	if err != nil {
		return err
	}
	it := forOfTable[kind]
	if it.each != nil {
		it.each(v, fn)
		return nil
	}
	for i, item := range it.items(v) {
		fn(i, item)
	}
	return nil
}

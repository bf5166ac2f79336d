package panel

import (
	"math"
	"reflect"
)

// ValuesEqual compares two JSON-shaped values. nil, +Inf and -Inf are all
// equal to each other, since JSON serializes infinities as null. Numbers of
// different Go types compare by value. Maps must hold the same keys: a key
// missing on one side is not the same as a null value.
func ValuesEqual(a, b any) bool {
	if nullish(a) && nullish(b) {
		return true
	}

	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}

	if am, ok := asMap(a); ok {
		bm, ok := asMap(b)
		if !ok {
			return false
		}
		if len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !ValuesEqual(av, bv) {
				return false
			}
		}
		return true
	}

	if as, ok := asSlice(a); ok {
		bs, ok := asSlice(b)
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !ValuesEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}

func nullish(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := toFloat(v); ok {
		return math.IsInf(f, 0)
	}
	return false
}

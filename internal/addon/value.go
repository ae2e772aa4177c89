package addon

import (
	"encoding/json"
	"math"
	"reflect"
)

// multipleOfTolerance is the relative error allowed when checking that a
// value is an integer multiple of multipleOf.
const multipleOfTolerance = 1e-9

// toFloat converts any Go or JSON number to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// isMultipleOf reports whether v/m is within tolerance of an integer.
func isMultipleOf(v, m float64) bool {
	if m == 0 {
		return true
	}
	q := v / m
	return math.Abs(q-math.Round(q)) <= multipleOfTolerance*math.Max(1, math.Abs(q))
}

// valuesEqual compares two property values, treating numbers of different
// Go types as equal when they hold the same value.
func valuesEqual(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	if aNum != bNum {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// truthy coerces a value to a boolean: zero numbers, empty strings, empty
// collections and nil are false.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

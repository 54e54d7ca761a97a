package ir

import (
	"fmt"
	"slices"
	"unicode/utf16"

	"github.com/roach88/barline/internal/frac"
)

// Value is the sealed set of values that may take part in canonical JSON:
// String, Int, Bool, Array and Object. There is no float and no null.
type Value interface {
	canonical()
}

// String is a canonical string. It is NFC-normalized when marshaled.
type String string

// Int is a canonical integer.
type Int int64

// Bool is a canonical boolean.
type Bool bool

// Array is an ordered list of values.
type Array []Value

// Object maps keys to values. Keys are emitted in RFC 8785 order.
type Object map[string]Value

func (String) canonical() {}
func (Int) canonical()    {}
func (Bool) canonical()   {}
func (Array) canonical()  {}
func (Object) canonical() {}

// Frac renders an exact time as a canonical string.
func Frac(q frac.Q) String { return String(q.String()) }

// Strings converts a string slice to an Array of String.
func Strings(ss []string) Array {
	out := make(Array, len(ss))
	for i, s := range ss {
		out[i] = String(s)
	}
	return out
}

// SortedKeys returns the keys in RFC 8785 order (UTF-16 code units).
// This differs from sort.Strings for characters outside the BMP.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}

// FromAny converts plain Go values (string, int, int64, bool, frac.Q,
// []string, []any, map[string]any) into a Value.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden")
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case frac.Q:
		return Frac(val), nil
	case []string:
		return Strings(val), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden: %v", val)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			c, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = c
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			c, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = c
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

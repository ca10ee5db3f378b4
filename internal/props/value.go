// Package props models the open-ended JSON property bags attached to graph
// nodes and edges. Stores disagree about what lives in a properties column,
// so values are decoded into a tagged variant type and callers ask for the
// kind they need instead of type-asserting raw interface{} values.
package props

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the variants a Value can hold.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one decoded property value. The zero value is JSON null.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	arr  []Value
	obj  map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array wraps a slice of values.
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: vs} }

// Object wraps a map of values.
func Object(m map[string]Value) Value { return Value{kind: KindObject, obj: m} }

// Parse decodes a JSON document into a Value. Empty input is null.
func Parse(data []byte) (Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Value{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("parse properties: %w", err)
	}
	return fromAny(raw), nil
}

// ParseString decodes a JSON string into a Value.
func ParseString(s string) (Value, error) {
	return Parse([]byte(s))
}

func fromAny(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return Value{}
	case bool:
		return Bool(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			// Out-of-range literals keep their text form
			return String(v.String())
		}
		return Number(f)
	case float64:
		return Number(v)
	case string:
		return String(v)
	case []interface{}:
		arr := make([]Value, len(v))
		for i, item := range v {
			arr[i] = fromAny(item)
		}
		return Value{kind: KindArray, arr: arr}
	case map[string]interface{}:
		obj := make(map[string]Value, len(v))
		for k, item := range v {
			obj[k] = fromAny(item)
		}
		return Value{kind: KindObject, obj: obj}
	default:
		return String(fmt.Sprint(v))
	}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean and true when the value is a bool.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Number returns the float64 and true when the value is a number.
// Strings and booleans never coerce.
func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Str returns the string and true when the value is a string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Field returns the named object member, or null when the value is not an
// object or the member is absent. Null propagates, so lookups chain:
// v.Field("dimensions").Field("cost").
func (v Value) Field(name string) Value {
	if v.kind != KindObject {
		return Value{}
	}
	return v.obj[name]
}

// Index returns the i-th array element, or null when out of range.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}
	}
	return v.arr[i]
}

// Len returns the element count for arrays and objects, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Keys returns sorted object keys.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Text renders the value for display and evidence strings. Scalars render
// bare; arrays and objects render as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// FlatText concatenates every scalar in the value, depth first, separated by
// spaces. Used to match keywords against a whole property bag.
func (v Value) FlatText() string {
	var sb strings.Builder
	v.appendFlat(&sb)
	return strings.TrimSpace(sb.String())
}

func (v Value) appendFlat(sb *strings.Builder) {
	switch v.kind {
	case KindBool, KindNumber, KindString:
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(v.Text())
	case KindArray:
		for _, item := range v.arr {
			item.appendFlat(sb)
		}
	case KindObject:
		for _, k := range v.Keys() {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(k)
			v.obj[k].appendFlat(sb)
		}
	}
}

// MarshalJSON round-trips the value back to JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toAny())
}

func (v Value) toAny() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		arr := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			arr[i] = item.toAny()
		}
		return arr
	case KindObject:
		obj := make(map[string]interface{}, len(v.obj))
		for k, item := range v.obj {
			obj[k] = item.toAny()
		}
		return obj
	default:
		return nil
	}
}

// UnmarshalJSON decodes JSON into the value in place.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

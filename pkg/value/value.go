package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the concrete type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindDate
	KindList
)

// String returns the schema type tag for the kind ("integer", "float", ...).
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Value is a tagged scalar as it appears in a form record: null, bool,
// integer, float, string, date, or a list of values. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
	list []Value
}

func Null() Value                { return Value{} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Int(i int64) Value          { return Value{kind: KindInt, i: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func Date(t time.Time) Value     { return Value{kind: KindDate, t: t.Truncate(24 * time.Hour)} }
func List(vs ...Value) Value     { return Value{kind: KindList, list: vs} }
func ListOf(vs []Value) Value    { return Value{kind: KindList, list: vs} }
func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) IsNumeric() bool  { return v.kind == KindInt || v.kind == KindFloat }

// Bool reports the boolean payload; ok is false for non-bool values.
func (v Value) Bool() (b bool, ok bool) {
	return v.b, v.kind == KindBool
}

// Int64 reports the integer payload; ok is false for non-integer values.
func (v Value) Int64() (i int64, ok bool) {
	return v.i, v.kind == KindInt
}

// Float64 widens a numeric payload to float64; ok is false for
// non-numeric values.
func (v Value) Float64() (f float64, ok bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Str reports the string payload; ok is false for non-string values.
func (v Value) Str() (s string, ok bool) {
	return v.s, v.kind == KindString
}

// Time reports the date payload; ok is false for non-date values.
func (v Value) Time() (t time.Time, ok bool) {
	return v.t, v.kind == KindDate
}

// Items reports the list payload; ok is false for non-list values.
func (v Value) Items() (items []Value, ok bool) {
	return v.list, v.kind == KindList
}

// Number converts the value to float64, accepting numeric kinds and
// numeric-looking strings. Used wherever rules need soft numeric semantics.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Truthy implements JSON-logic truthiness: null, false, numeric zero, the
// empty string and the empty list are falsy, everything else is truthy.
func Truthy(v Value) bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	case KindDate:
		return true
	}
	return false
}

// String renders the value the way it should appear in error messages.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindDate:
		return v.t.Format(DateLayout)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "unknown"
}

// Any converts the value back to a plain Go representation, suitable for
// JSON serialization of reports.
func (v Value) Any() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindDate:
		return v.t.Format(DateLayout)
	case KindList:
		items := make([]any, len(v.list))
		for i, item := range v.list {
			items[i] = item.Any()
		}
		return items
	}
	return nil
}

// FromAny converts a decoded YAML/JSON scalar (or a Go native) to a Value.
// Unrecognized types degrade to their string form rather than failing:
// record ingestion must never drop a field on the floor.
func FromAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint64:
		return Int(int64(x))
	case float32:
		return Float(float64(x))
	case float64:
		// YAML/JSON decoders hand over whole numbers as float64.
		if x == float64(int64(x)) {
			return Int(int64(x))
		}
		return Float(x)
	case string:
		return String(x)
	case time.Time:
		return Date(x)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromAny(item)
		}
		return ListOf(items)
	default:
		return String(fmt.Sprintf("%v", raw))
	}
}

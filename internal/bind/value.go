// Package bind implements the bidirectional type mapping between the dynamic
// value model and the native call-level interface's C-level buffer
// conventions: parameter descriptors, output column bindings, the arena that
// owns their buffers, and the copy-out row decoding.
package bind

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnsupportedValueType reports a parameter value whose kind has no
	// native mapping. Raised before any native call for that parameter.
	ErrUnsupportedValueType = errors.New("unsupported parameter value kind")

	// ErrBind reports a result column that cannot be bound: unmappable
	// native type, or a declared size outside (0, MaxBindSize].
	ErrBind = errors.New("column bind failed")

	// ErrDecode reports an invariant violation while decoding a fetched
	// row: an unknown native value type or indicator. Never coerced away.
	ErrDecode = errors.New("row decode failed")
)

// Kind tags the variants of a dynamic Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt32
	KindInt64
	KindFloat64
	KindBool
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt32:
		return "INT32"
	case KindInt64:
		return "INT64"
	case KindFloat64:
		return "FLOAT64"
	case KindBool:
		return "BOOL"
	case KindText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// Value is the tagged union handed to the type mapper: one of NULL, a 32-bit
// or 64-bit integer, a double, a boolean, or text. Values are immutable and
// live for a single statement execution.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

// Null returns the NULL value.
func Null() Value { return Value{kind: KindNull} }

// Int32 returns a 32-bit integer value.
func Int32(v int32) Value { return Value{kind: KindInt32, i: int64(v)} }

// Int64 returns a 64-bit integer value.
func Int64(v int64) Value { return Value{kind: KindInt64, i: v} }

// Int returns an integer value, picking the 32-bit variant when v fits in a
// signed 32-bit range and the 64-bit variant otherwise.
func Int(v int64) Value {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return Int32(int32(v))
	}
	return Int64(v)
}

// Float64 returns a double-precision value.
func Float64(v float64) Value { return Value{kind: KindFloat64, f: v} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// FromInterface converts a plain Go value into a dynamic Value. Integers are
// routed by range like Int. Unsupported Go types fail with
// ErrUnsupportedValueType.
func FromInterface(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case float32:
		return Float64(float64(x)), nil
	case float64:
		return Float64(x), nil
	case string:
		return Text(x), nil
	default:
		return Value{}, fmt.Errorf("tinyodbc: %T: %w", v, ErrUnsupportedValueType)
	}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int64Value returns the integer payload of an INT32 or INT64 value.
func (v Value) Int64Value() int64 { return v.i }

// Float64Value returns the payload of a FLOAT64 value.
func (v Value) Float64Value() float64 { return v.f }

// BoolValue returns the payload of a BOOL value.
func (v Value) BoolValue() bool { return v.b }

// TextValue returns the payload of a TEXT value.
func (v Value) TextValue() string { return v.s }

// Interface returns the payload as a plain Go value (nil, int32, int64,
// float64, bool or string).
func (v Value) Interface() any {
	switch v.kind {
	case KindInt32:
		return int32(v.i)
	case KindInt64:
		return v.i
	case KindFloat64:
		return v.f
	case KindBool:
		return v.b
	case KindText:
		return v.s
	default:
		return nil
	}
}

package descriptor

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldType is the wire type of a field
type FieldType int

const (
	Int32 FieldType = iota
	Int64
	Uint32
	Uint64
	Float
	Double
	String
	Bool
	Bytes
	Message
)

var fieldTypeNames = [...]string{
	Int32:   "INT32",
	Int64:   "INT64",
	Uint32:  "UINT32",
	Uint64:  "UINT64",
	Float:   "FLOAT",
	Double:  "DOUBLE",
	String:  "STRING",
	Bool:    "BOOL",
	Bytes:   "BYTES",
	Message: "MESSAGE",
}

// canonical Go value types for every non-message field type
var goTypes = [...]reflect.Type{
	Int32:  reflect.TypeFor[int32](),
	Int64:  reflect.TypeFor[int64](),
	Uint32: reflect.TypeFor[uint32](),
	Uint64: reflect.TypeFor[uint64](),
	Float:  reflect.TypeFor[float32](),
	Double: reflect.TypeFor[float64](),
	String: reflect.TypeFor[string](),
	Bool:   reflect.TypeFor[bool](),
	Bytes:  reflect.TypeFor[[]byte](),
}

// String returns the upper case name of the field type (e.g. INT32)
func (t FieldType) String() string {
	if t.Valid() {
		return fieldTypeNames[t]
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// Valid reports whether t is one of the declared field types
func (t FieldType) Valid() bool {
	return t >= Int32 && t <= Message
}

// GoType returns the canonical Go type of values of this field type.
// It returns nil for Message, whose values are pointers to the nested type.
func (t FieldType) GoType() reflect.Type {
	if t >= Int32 && t < Message {
		return goTypes[t]
	}
	return nil
}

// ParseFieldType parses a field type name case-insensitively (e.g. "int32", "BYTES")
func ParseFieldType(s string) (FieldType, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range fieldTypeNames {
		if name == upper {
			return FieldType(t), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown field type %q", ErrInvalidField, s)
}

// CheckValue reports whether v has the canonical Go type for t.
// Message values must be nil or a non-nil pointer.
func CheckValue(t FieldType, v any) error {
	if t == Message {
		if v == nil {
			return nil
		}
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr {
			return nil
		}
		return fmt.Errorf("%w: %s field needs a pointer, got %T", ErrValueType, t, v)
	}
	want := t.GoType()
	if want == nil {
		return fmt.Errorf("%w: %s", ErrInvalidField, t)
	}
	if v == nil || reflect.TypeOf(v) != want {
		return fmt.Errorf("%w: %s field needs %s, got %T", ErrValueType, t, want, v)
	}
	return nil
}

// ZeroValue returns the zero value of the canonical Go type for t (nil for Message)
func ZeroValue(t FieldType) any {
	switch t {
	case Int32:
		return int32(0)
	case Int64:
		return int64(0)
	case Uint32:
		return uint32(0)
	case Uint64:
		return uint64(0)
	case Float:
		return float32(0)
	case Double:
		return float64(0)
	case String:
		return ""
	case Bool:
		return false
	case Bytes:
		return []byte(nil)
	default:
		return nil
	}
}

package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/ValentinKolb/grl/rpc/descriptor"
)

// ErrMalformed is returned when encoded data cannot be decoded into the described message
var ErrMalformed = errors.New("serializer: malformed data")

// --------------------------------------------------------------------------
// Field access helpers shared by the generic implementations
// --------------------------------------------------------------------------

// checkObject fails early when obj cannot be used with desc
func checkObject(obj any, desc *descriptor.MessageDescriptor) error {
	if desc == nil {
		return fmt.Errorf("serializer: nil descriptor")
	}
	if !desc.Accepts(obj) {
		return fmt.Errorf("%w: message %s does not accept %T", descriptor.ErrTypeMismatch, desc.Name, obj)
	}
	return nil
}

// readField returns the canonical value of f in obj
func readField(f *descriptor.FieldDescriptor, obj any) (any, error) {
	v, err := f.Get(obj)
	if err != nil {
		return nil, err
	}
	if err := descriptor.CheckValue(f.Type, v); err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return v, nil
}

// writeField coerces a decoded value to the canonical type of f and stores it
func writeField(f *descriptor.FieldDescriptor, obj any, raw any) error {
	v, err := coerce(f.Type, raw)
	if err != nil {
		return fmt.Errorf("field %s: %w", f.Name, err)
	}
	return f.Set(obj, v)
}

// newNested creates an instance of the nested message of f
func newNested(f *descriptor.FieldDescriptor) (any, error) {
	if f.Message == nil {
		return nil, fmt.Errorf("%w: field %s has no nested descriptor", descriptor.ErrInvalidField, f.Name)
	}
	return f.Message.Instance()
}

// toDocument converts obj into a map keyed by field name. Nested messages
// become nested maps, nil messages are left out.
func toDocument(obj any, desc *descriptor.MessageDescriptor) (map[string]any, error) {
	doc := make(map[string]any, len(desc.Fields))
	for i := range desc.Fields {
		f := &desc.Fields[i]
		v, err := readField(f, obj)
		if err != nil {
			return nil, err
		}
		if f.Type == descriptor.Message {
			if v == nil {
				continue
			}
			nested, err := toDocument(v, f.Message)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			doc[f.Name] = nested
			continue
		}
		doc[f.Name] = v
	}
	return doc, nil
}

// fromDocument writes every field present in doc into obj, a nil entry resets
// a field. Used by the map based binary formats (msgpack, cbor) whose decoders
// already produce native []byte values.
func fromDocument(doc map[string]any, obj any, desc *descriptor.MessageDescriptor) error {
	for i := range desc.Fields {
		f := &desc.Fields[i]
		raw, ok := doc[f.Name]
		if !ok {
			continue
		}
		if raw == nil {
			if err := f.Set(obj, nil); err != nil {
				return err
			}
			continue
		}

		if f.Type != descriptor.Message {
			if err := writeField(f, obj, raw); err != nil {
				return err
			}
			continue
		}

		nestedDoc, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: field %s is not a map", ErrMalformed, f.Name)
		}
		nested, err := newNested(f)
		if err != nil {
			return err
		}
		if err := fromDocument(nestedDoc, nested, f.Message); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		if err := f.Set(obj, nested); err != nil {
			return err
		}
	}
	return nil
}

// Names of the non-finite floats in formats without a native representation
const (
	nanName    = "NaN"
	posInfName = "Infinity"
	negInfName = "-Infinity"
)

// --------------------------------------------------------------------------
// Coercion of decoded values
// --------------------------------------------------------------------------

// coerce converts the loosely typed value produced by a decoder (json.Number,
// int64 for any integer, float64 for any float, string for bytes, ...) into the
// canonical Go type of t, rejecting out-of-range values.
func coerce(t descriptor.FieldType, v any) (any, error) {
	switch t {
	case descriptor.Int32:
		i, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %d overflows int32", ErrMalformed, i)
		}
		return int32(i), nil
	case descriptor.Int64:
		return toInt64(v)
	case descriptor.Uint32:
		u, err := toUint64(v)
		if err != nil {
			return nil, err
		}
		if u > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %d overflows uint32", ErrMalformed, u)
		}
		return uint32(u), nil
	case descriptor.Uint64:
		return toUint64(v)
	case descriptor.Float:
		f, err := toFloat64(v, 32)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case descriptor.Double:
		return toFloat64(v, 64)
	case descriptor.String:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
	case descriptor.Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case descriptor.Bytes:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		case nil:
			return nil, nil
		}
	case descriptor.Message:
		return v, nil
	}
	return nil, fmt.Errorf("%w: cannot use %T as %s", ErrMalformed, v, t)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrMalformed, n)
		}
		return int64(n), nil
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w: %T is not an integer", ErrMalformed, v)
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return u, nil
	}
	i, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrMalformed, i)
	}
	return uint64(i), nil
}

func toFloat64(v any, bitSize int) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), bitSize)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return f, nil
	case string:
		switch n {
		case nanName:
			return math.NaN(), nil
		case posInfName:
			return math.Inf(1), nil
		case negInfName:
			return math.Inf(-1), nil
		}
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformed, n)
	}
	if i, err := toInt64(v); err == nil {
		return float64(i), nil
	}
	if u, err := toUint64(v); err == nil {
		return float64(u), nil
	}
	return 0, fmt.Errorf("%w: %T is not a number", ErrMalformed, v)
}

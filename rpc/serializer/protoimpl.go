package serializer

import (
	"fmt"
	"math"

	"github.com/ValentinKolb/grl/rpc/descriptor"
	"google.golang.org/protobuf/encoding/protowire"
)

// NewProtoSerializer creates a generic serializer that writes the protobuf wire
// format, keyed by field number. Integers use varints (int32 is sign extended
// as in protobuf), FLOAT/DOUBLE use fixed32/fixed64, STRING/BYTES/MESSAGE are
// length delimited. Every field except nil messages is written, so decoding
// into a used instance overwrites all scalar fields present in the payload.
// Unknown field numbers are skipped.
func NewProtoSerializer() IGenericSerializer {
	return &protoSerializerImpl{}
}

// protoSerializerImpl implements the IGenericSerializer interface using protowire
type protoSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IGenericSerializer)
// --------------------------------------------------------------------------

func (p protoSerializerImpl) Name() string {
	return "proto"
}

func (p protoSerializerImpl) Serialize(obj any, desc *descriptor.MessageDescriptor) ([]byte, error) {
	if err := checkObject(obj, desc); err != nil {
		return nil, err
	}
	return p.appendMessage(nil, obj, desc)
}

func (p protoSerializerImpl) Deserialize(b []byte, obj any, desc *descriptor.MessageDescriptor) error {
	if err := checkObject(obj, desc); err != nil {
		return err
	}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		f, ok := desc.FieldByNumber(int(num))
		if !ok {
			// skip unknown fields
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		if want := wireType(f.Type); typ != want {
			return fmt.Errorf("%w: field %s has wire type %d, want %d", ErrMalformed, f.Name, typ, want)
		}

		v, n, err := p.consumeValue(f, b)
		if err != nil {
			return err
		}
		b = b[n:]
		if err := f.Set(obj, v); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (p protoSerializerImpl) appendMessage(b []byte, obj any, desc *descriptor.MessageDescriptor) ([]byte, error) {
	for i := range desc.Fields {
		f := &desc.Fields[i]
		num := protowire.Number(f.Number)
		if !num.IsValid() {
			return nil, fmt.Errorf("%w: field %s has number %d outside the protobuf range", descriptor.ErrInvalidField, f.Name, f.Number)
		}
		v, err := readField(f, obj)
		if err != nil {
			return nil, err
		}
		if f.Type == descriptor.Message && v == nil {
			continue
		}

		b = protowire.AppendTag(b, num, wireType(f.Type))
		switch f.Type {
		case descriptor.Int32:
			b = protowire.AppendVarint(b, uint64(int64(v.(int32))))
		case descriptor.Int64:
			b = protowire.AppendVarint(b, uint64(v.(int64)))
		case descriptor.Uint32:
			b = protowire.AppendVarint(b, uint64(v.(uint32)))
		case descriptor.Uint64:
			b = protowire.AppendVarint(b, v.(uint64))
		case descriptor.Bool:
			b = protowire.AppendVarint(b, protowire.EncodeBool(v.(bool)))
		case descriptor.Float:
			b = protowire.AppendFixed32(b, math.Float32bits(v.(float32)))
		case descriptor.Double:
			b = protowire.AppendFixed64(b, math.Float64bits(v.(float64)))
		case descriptor.String:
			b = protowire.AppendString(b, v.(string))
		case descriptor.Bytes:
			b = protowire.AppendBytes(b, v.([]byte))
		case descriptor.Message:
			nested, err := p.appendMessage(nil, v, f.Message)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			b = protowire.AppendBytes(b, nested)
		}
	}
	return b, nil
}

// consumeValue decodes the value of f at the start of b
func (p protoSerializerImpl) consumeValue(f *descriptor.FieldDescriptor, b []byte) (any, int, error) {
	var v any
	var n int

	switch f.Type {
	case descriptor.Int32, descriptor.Int64, descriptor.Uint32, descriptor.Uint64, descriptor.Bool:
		var u uint64
		u, n = protowire.ConsumeVarint(b)
		if n < 0 {
			break
		}
		switch f.Type {
		case descriptor.Int32:
			v = int32(u)
		case descriptor.Int64:
			v = int64(u)
		case descriptor.Uint32:
			if u > math.MaxUint32 {
				return nil, 0, fmt.Errorf("%w: field %s overflows uint32", ErrMalformed, f.Name)
			}
			v = uint32(u)
		case descriptor.Uint64:
			v = u
		default:
			v = protowire.DecodeBool(u)
		}
	case descriptor.Float:
		var u uint32
		u, n = protowire.ConsumeFixed32(b)
		v = math.Float32frombits(u)
	case descriptor.Double:
		var u uint64
		u, n = protowire.ConsumeFixed64(b)
		v = math.Float64frombits(u)
	case descriptor.String, descriptor.Bytes, descriptor.Message:
		var raw []byte
		raw, n = protowire.ConsumeBytes(b)
		if n < 0 {
			break
		}
		switch f.Type {
		case descriptor.String:
			v = string(raw)
		case descriptor.Bytes:
			v = append(make([]byte, 0, len(raw)), raw...)
		default:
			nested, err := newNested(f)
			if err != nil {
				return nil, 0, err
			}
			if err := p.Deserialize(raw, nested, f.Message); err != nil {
				return nil, 0, fmt.Errorf("field %s: %w", f.Name, err)
			}
			v = nested
		}
	}

	if n < 0 {
		return nil, 0, fmt.Errorf("%w: field %s: %v", ErrMalformed, f.Name, protowire.ParseError(n))
	}
	return v, n, nil
}

// wireType returns the protobuf wire type used for t
func wireType(t descriptor.FieldType) protowire.Type {
	switch t {
	case descriptor.Float:
		return protowire.Fixed32Type
	case descriptor.Double:
		return protowire.Fixed64Type
	case descriptor.String, descriptor.Bytes, descriptor.Message:
		return protowire.BytesType
	default:
		return protowire.VarintType
	}
}

package serializer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ValentinKolb/grl/rpc/descriptor"
)

// NewBinarySerializer creates a new generic serializer using a compact binary
// format optimized for speed. The layout depends on the declaration order of
// the descriptor fields, both sides must use the same descriptor.
//
// Layout:
//
//	presence bitmap: ceil(len(fields)/8) bytes, bit i set if field i is present
//	for every present field, in declaration order:
//	  INT32, UINT32, FLOAT   4 bytes big endian
//	  INT64, UINT64, DOUBLE  8 bytes big endian
//	  BOOL                   1 byte
//	  STRING, BYTES, MESSAGE 4 byte big endian length + data
//
// A field is present if its value is not the zero value. Floats compare by
// bits, so -0 is present. Bytes fields are present if they are not nil, so an
// empty slice survives the round trip.
// Absent fields are reset to their zero value when decoding.
func NewBinarySerializer() IGenericSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IGenericSerializer using a custom binary format
type binarySerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IGenericSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Name() string {
	return "binary"
}

func (b binarySerializerImpl) Serialize(obj any, desc *descriptor.MessageDescriptor) ([]byte, error) {
	if err := checkObject(obj, desc); err != nil {
		return nil, err
	}

	// Collect values and nested encodings first to calculate the total size
	values := make([]any, len(desc.Fields))
	totalSize := bitmapSize(len(desc.Fields))
	for i := range desc.Fields {
		f := &desc.Fields[i]
		v, err := readField(f, obj)
		if err != nil {
			return nil, err
		}
		if f.Type == descriptor.Message && v != nil {
			nested, err := b.Serialize(v, f.Message)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			v = nested
		}
		if !present(f.Type, v) {
			continue
		}
		values[i] = v
		totalSize += b.sizeBytes(f.Type, v)
	}

	result := make([]byte, totalSize)

	// Set position for writing
	pos := bitmapSize(len(desc.Fields))

	for i := range desc.Fields {
		v := values[i]
		if v == nil {
			continue
		}

		// Mark field as present
		result[i/8] |= 1 << (i % 8)

		switch desc.Fields[i].Type {
		case descriptor.Int32:
			binary.BigEndian.PutUint32(result[pos:pos+4], uint32(v.(int32)))
			pos += 4
		case descriptor.Uint32:
			binary.BigEndian.PutUint32(result[pos:pos+4], v.(uint32))
			pos += 4
		case descriptor.Float:
			binary.BigEndian.PutUint32(result[pos:pos+4], math.Float32bits(v.(float32)))
			pos += 4
		case descriptor.Int64:
			binary.BigEndian.PutUint64(result[pos:pos+8], uint64(v.(int64)))
			pos += 8
		case descriptor.Uint64:
			binary.BigEndian.PutUint64(result[pos:pos+8], v.(uint64))
			pos += 8
		case descriptor.Double:
			binary.BigEndian.PutUint64(result[pos:pos+8], math.Float64bits(v.(float64)))
			pos += 8
		case descriptor.Bool:
			result[pos] = 1
			pos += 1
		case descriptor.String:
			pos = putLengthPrefixed(result, pos, []byte(v.(string)))
		case descriptor.Bytes, descriptor.Message:
			pos = putLengthPrefixed(result, pos, v.([]byte))
		}
	}

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, obj any, desc *descriptor.MessageDescriptor) error {
	if err := checkObject(obj, desc); err != nil {
		return err
	}

	// Check minimum size (presence bitmap)
	pos := bitmapSize(len(desc.Fields))
	if len(data) < pos {
		return fmt.Errorf("%w: data too short for presence bitmap", ErrMalformed)
	}

	for i := range desc.Fields {
		f := &desc.Fields[i]

		// Reset absent fields
		if data[i/8]&(1<<(i%8)) == 0 {
			if err := f.Set(obj, nil); err != nil {
				return err
			}
			continue
		}

		var v any
		switch f.Type {
		case descriptor.Int32, descriptor.Uint32, descriptor.Float:
			if pos+4 > len(data) {
				return fmt.Errorf("%w: data too short for %s", ErrMalformed, f.Name)
			}
			u := binary.BigEndian.Uint32(data[pos : pos+4])
			pos += 4
			switch f.Type {
			case descriptor.Int32:
				v = int32(u)
			case descriptor.Uint32:
				v = u
			default:
				v = math.Float32frombits(u)
			}
		case descriptor.Int64, descriptor.Uint64, descriptor.Double:
			if pos+8 > len(data) {
				return fmt.Errorf("%w: data too short for %s", ErrMalformed, f.Name)
			}
			u := binary.BigEndian.Uint64(data[pos : pos+8])
			pos += 8
			switch f.Type {
			case descriptor.Int64:
				v = int64(u)
			case descriptor.Uint64:
				v = u
			default:
				v = math.Float64frombits(u)
			}
		case descriptor.Bool:
			if pos+1 > len(data) {
				return fmt.Errorf("%w: data too short for %s", ErrMalformed, f.Name)
			}
			v = data[pos] != 0
			pos += 1
		case descriptor.String, descriptor.Bytes, descriptor.Message:
			raw, next, err := readLengthPrefixed(data, pos)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrMalformed, f.Name, err)
			}
			pos = next
			switch f.Type {
			case descriptor.String:
				v = string(raw)
			case descriptor.Bytes:
				// copy, the caller may reuse data
				v = append(make([]byte, 0, len(raw)), raw...)
			default:
				nested, err := newNested(f)
				if err != nil {
					return err
				}
				if err := b.Deserialize(raw, nested, f.Message); err != nil {
					return fmt.Errorf("field %s: %w", f.Name, err)
				}
				v = nested
			}
		}

		if err := f.Set(obj, v); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the encoded size of a present value
func (b binarySerializerImpl) sizeBytes(t descriptor.FieldType, v any) int {
	switch t {
	case descriptor.Int32, descriptor.Uint32, descriptor.Float:
		return 4
	case descriptor.Int64, descriptor.Uint64, descriptor.Double:
		return 8
	case descriptor.Bool:
		return 1
	case descriptor.String:
		return 4 + len(v.(string)) // 4 bytes for length + string
	default:
		return 4 + len(v.([]byte)) // 4 bytes for length + bytes
	}
}

// bitmapSize returns the number of bytes needed for n presence bits
func bitmapSize(n int) int {
	return (n + 7) / 8
}

// present reports whether v is encoded at all
func present(t descriptor.FieldType, v any) bool {
	switch t {
	case descriptor.Bytes, descriptor.Message:
		return v != nil && v.([]byte) != nil
	case descriptor.Float:
		// -0 is not the zero value
		f, ok := v.(float32)
		return ok && math.Float32bits(f) != 0
	case descriptor.Double:
		f, ok := v.(float64)
		return ok && math.Float64bits(f) != 0
	default:
		return v != nil && v != descriptor.ZeroValue(t)
	}
}

func putLengthPrefixed(dst []byte, pos int, data []byte) int {
	binary.BigEndian.PutUint32(dst[pos:pos+4], uint32(len(data)))
	pos += 4
	copy(dst[pos:pos+len(data)], data)
	return pos + len(data)
}

func readLengthPrefixed(data []byte, pos int) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, pos, fmt.Errorf("data too short for length")
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if n < 0 || pos+n > len(data) {
		return nil, pos, fmt.Errorf("data too short for %d bytes", n)
	}
	return data[pos : pos+n], pos + n, nil
}

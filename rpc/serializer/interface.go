package serializer

import (
	"reflect"

	"github.com/ValentinKolb/grl/rpc/descriptor"
)

// IGenericSerializer is the interface for format backends that encode any type
// solely through its descriptor
type IGenericSerializer interface {
	// Serialize encodes obj by reading every field of desc in declaration order.
	// obj must be an instance accepted by the descriptor's accessors.
	// It returns the encoded bytes and an error if any
	Serialize(obj any, desc *descriptor.MessageDescriptor) ([]byte, error)
	// Deserialize decodes b into obj in place by invoking the field setters of desc.
	// Fields missing from b keep their current value unless the format states otherwise.
	// It returns an error if any
	Deserialize(b []byte, obj any, desc *descriptor.MessageDescriptor) error
	// Name returns the format name (e.g. "json")
	Name() string
}

// ITypedSerializer is the interface for hand-written codecs of a single value type
type ITypedSerializer[T any] interface {
	// Serialize encodes v
	Serialize(v T) ([]byte, error)
	// Deserialize decodes b into v
	Deserialize(b []byte, v *T) error
	// Name returns the format name
	Name() string
}

// ITypedSerializerBase is the type-erased view of an ITypedSerializer. It lets
// codecs of different value types share one registry.
type ITypedSerializerBase interface {
	// Name returns the format name of the wrapped serializer
	Name() string
	// ValueType returns the value type the wrapped serializer handles
	ValueType() reflect.Type
}

// typedHandle wraps an ITypedSerializer[T] and owns it exclusively
type typedHandle[T any] struct {
	serializer ITypedSerializer[T]
}

func (h *typedHandle[T]) Name() string {
	return h.serializer.Name()
}

func (h *typedHandle[T]) ValueType() reflect.Type {
	return reflect.TypeFor[T]()
}

// Erase wraps s behind the type-erased handle
func Erase[T any](s ITypedSerializer[T]) ITypedSerializerBase {
	return &typedHandle[T]{serializer: s}
}

// Unerase recovers the typed serializer from a handle. A handle that wraps a
// serializer for another value type yields (nil, false).
func Unerase[T any](h ITypedSerializerBase) (ITypedSerializer[T], bool) {
	th, ok := h.(*typedHandle[T])
	if !ok {
		return nil, false
	}
	return th.serializer, true
}

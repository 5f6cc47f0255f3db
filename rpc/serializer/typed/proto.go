package typed

import (
	"fmt"
	"reflect"

	"github.com/ValentinKolb/grl/rpc/serializer"
	"google.golang.org/protobuf/proto"
)

// NewProto creates a specialized protobuf serializer for a generated message
// type (e.g. *timestamppb.Timestamp). Output is deterministic. The format name
// is "proto".
func NewProto[T proto.Message]() serializer.ITypedSerializer[T] {
	return &protoImpl[T]{
		marshal: proto.MarshalOptions{Deterministic: true},
	}
}

// protoImpl implements ITypedSerializer[T] using the protobuf runtime
type protoImpl[T proto.Message] struct {
	marshal proto.MarshalOptions
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ITypedSerializer)
// --------------------------------------------------------------------------

func (p *protoImpl[T]) Serialize(v T) ([]byte, error) {
	return p.marshal.Marshal(v)
}

// Deserialize decodes b into *v. A nil *v is replaced by a new message.
func (p *protoImpl[T]) Deserialize(b []byte, v *T) error {
	if v == nil || any(*v) == nil {
		return fmt.Errorf("typed: no target message for %s", reflect.TypeFor[T]())
	}
	if !(*v).ProtoReflect().IsValid() {
		// generated messages support ProtoReflect on nil pointers
		m, ok := (*v).ProtoReflect().Type().New().Interface().(T)
		if !ok {
			return fmt.Errorf("typed: cannot allocate %T", *v)
		}
		*v = m
	}
	return proto.Unmarshal(b, *v)
}

func (p *protoImpl[T]) Name() string {
	return "proto"
}

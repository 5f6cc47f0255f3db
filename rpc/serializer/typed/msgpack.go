package typed

import (
	"github.com/ValentinKolb/grl/rpc/serializer"
	"github.com/ugorji/go/codec"
)

// NewMsgpack creates a specialized MessagePack serializer for T. Struct fields
// are encoded as a map using the "codec" or "json" struct tags. The format
// name is "msgpack".
func NewMsgpack[T any]() serializer.ITypedSerializer[T] {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.RawToString = true
	return &msgpackImpl[T]{handle: h}
}

// msgpackImpl implements ITypedSerializer[T] using ugorji/go codec
type msgpackImpl[T any] struct {
	handle *codec.MsgpackHandle
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ITypedSerializer)
// --------------------------------------------------------------------------

func (m *msgpackImpl[T]) Serialize(v T) ([]byte, error) {
	var b []byte
	if err := codec.NewEncoderBytes(&b, m.handle).Encode(v); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *msgpackImpl[T]) Deserialize(b []byte, v *T) error {
	return codec.NewDecoderBytes(b, m.handle).Decode(v)
}

func (m *msgpackImpl[T]) Name() string {
	return "msgpack"
}

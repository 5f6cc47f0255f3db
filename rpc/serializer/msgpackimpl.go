package serializer

import (
	"fmt"
	"reflect"

	"github.com/ValentinKolb/grl/rpc/descriptor"
	"github.com/ugorji/go/codec"
)

// msgpackHandle is shared by all msgpack serializers. It is read only after
// initialization and safe for concurrent use.
var msgpackHandle = newMsgpackHandle()

func newMsgpackHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	// use the str/bin distinction of the current msgpack format
	h.WriteExt = true
	h.RawToString = true
	h.MapType = reflect.TypeOf(map[string]any(nil))
	h.Canonical = true
	return h
}

// NewMsgpackSerializer creates a generic serializer producing MessagePack maps
// keyed by field name. Bytes use the bin type, nested messages are nested maps.
func NewMsgpackSerializer() IGenericSerializer {
	return &msgpackSerializerImpl{}
}

// msgpackSerializerImpl implements the IGenericSerializer interface using ugorji/go codec
type msgpackSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IGenericSerializer)
// --------------------------------------------------------------------------

func (m msgpackSerializerImpl) Name() string {
	return "msgpack"
}

func (m msgpackSerializerImpl) Serialize(obj any, desc *descriptor.MessageDescriptor) ([]byte, error) {
	if err := checkObject(obj, desc); err != nil {
		return nil, err
	}
	doc, err := toDocument(obj, desc)
	if err != nil {
		return nil, err
	}

	var b []byte
	if err := codec.NewEncoderBytes(&b, msgpackHandle).Encode(doc); err != nil {
		return nil, err
	}
	return b, nil
}

func (m msgpackSerializerImpl) Deserialize(b []byte, obj any, desc *descriptor.MessageDescriptor) error {
	if err := checkObject(obj, desc); err != nil {
		return err
	}
	var doc map[string]any
	if err := codec.NewDecoderBytes(b, msgpackHandle).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fromDocument(doc, obj, desc)
}

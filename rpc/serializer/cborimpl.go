package serializer

import (
	"fmt"
	"reflect"

	"github.com/ValentinKolb/grl/rpc/descriptor"
	cbor "github.com/fxamacker/cbor/v2"
)

var (
	// cborEnc produces deterministic output (sorted keys, shortest floats)
	cborEnc = mustEncMode(cbor.CanonicalEncOptions())
	// cborDec decodes maps into map[string]any so nested documents keep string keys
	cborDec = mustDecMode(cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("invalid cbor encoding options: %v", err))
	}
	return em
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	dm, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("invalid cbor decoding options: %v", err))
	}
	return dm
}

// NewCBORSerializer creates a generic serializer producing canonical CBOR maps
// keyed by field name. Bytes use the byte string type, nested messages are
// nested maps.
func NewCBORSerializer() IGenericSerializer {
	return &cborSerializerImpl{}
}

// cborSerializerImpl implements the IGenericSerializer interface using fxamacker/cbor
type cborSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IGenericSerializer)
// --------------------------------------------------------------------------

func (c cborSerializerImpl) Name() string {
	return "cbor"
}

func (c cborSerializerImpl) Serialize(obj any, desc *descriptor.MessageDescriptor) ([]byte, error) {
	if err := checkObject(obj, desc); err != nil {
		return nil, err
	}
	doc, err := toDocument(obj, desc)
	if err != nil {
		return nil, err
	}
	return cborEnc.Marshal(doc)
}

func (c cborSerializerImpl) Deserialize(b []byte, obj any, desc *descriptor.MessageDescriptor) error {
	if err := checkObject(obj, desc); err != nil {
		return err
	}
	var doc map[string]any
	if err := cborDec.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fromDocument(doc, obj, desc)
}

package typed

import (
	"github.com/ValentinKolb/grl/rpc/serializer"
	cbor "github.com/fxamacker/cbor/v2"
)

// NewCBOR creates a specialized CBOR serializer for T with canonical encoding.
// Struct fields use the "cbor" or "json" struct tags. The format name is "cbor".
func NewCBOR[T any]() (serializer.ITypedSerializer[T], error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return &cborImpl[T]{enc: em, dec: dm}, nil
}

// cborImpl implements ITypedSerializer[T] using fxamacker/cbor
type cborImpl[T any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ITypedSerializer)
// --------------------------------------------------------------------------

func (c *cborImpl[T]) Serialize(v T) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c *cborImpl[T]) Deserialize(b []byte, v *T) error {
	return c.dec.Unmarshal(b, v)
}

func (c *cborImpl[T]) Name() string {
	return "cbor"
}

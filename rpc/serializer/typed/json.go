package typed

import (
	"github.com/ValentinKolb/grl/rpc/serializer"
	"github.com/bytedance/sonic"
)

// NewJSON creates a specialized JSON serializer for T. The format name is "json".
func NewJSON[T any]() serializer.ITypedSerializer[T] {
	return &jsonImpl[T]{api: sonic.ConfigStd}
}

// jsonImpl implements ITypedSerializer[T] using sonic
type jsonImpl[T any] struct {
	api sonic.API
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ITypedSerializer)
// --------------------------------------------------------------------------

func (j *jsonImpl[T]) Serialize(v T) ([]byte, error) {
	return j.api.Marshal(v)
}

func (j *jsonImpl[T]) Deserialize(b []byte, v *T) error {
	return j.api.Unmarshal(b, v)
}

func (j *jsonImpl[T]) Name() string {
	return "json"
}

package typed

import (
	"github.com/ValentinKolb/grl/rpc/serializer"
)

// Funcs adapts a pair of hand-written functions to ITypedSerializer[T]
//
// Example:
//
//	s := typed.Funcs("bin",
//		func(p Point) ([]byte, error) { return []byte{byte(p.X), byte(p.Y)}, nil },
//		func(b []byte, p *Point) error { p.X, p.Y = int32(b[0]), int32(b[1]); return nil })
func Funcs[T any](format string, encode func(v T) ([]byte, error), decode func(b []byte, v *T) error) serializer.ITypedSerializer[T] {
	return &funcsImpl[T]{format: format, encode: encode, decode: decode}
}

type funcsImpl[T any] struct {
	format string
	encode func(v T) ([]byte, error)
	decode func(b []byte, v *T) error
}

func (f *funcsImpl[T]) Serialize(v T) ([]byte, error) {
	return f.encode(v)
}

func (f *funcsImpl[T]) Deserialize(b []byte, v *T) error {
	return f.decode(b, v)
}

func (f *funcsImpl[T]) Name() string {
	return f.format
}

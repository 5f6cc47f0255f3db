package descriptor

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ValentinKolb/grl/rpc/typename"
)

// Builder assembles the descriptor of T field by field. Accessors receive *T.
//
// Errors are collected and reported by Build, so calls can be chained:
//
//	desc, err := descriptor.NewBuilder[Point]("geo.Point").
//		Int32("x", 1, func(p *Point) int32 { return p.X }, func(p *Point, v int32) { p.X = v }).
//		Int32("y", 2, func(p *Point) int32 { return p.Y }, func(p *Point, v int32) { p.Y = v }).
//		Build()
type Builder[T any] struct {
	desc *MessageDescriptor
	errs []error
}

// NewBuilder starts a descriptor for T. An empty name selects typename.DefaultName.
func NewBuilder[T any](name string) *Builder[T] {
	if name == "" {
		name = typename.DefaultNameOf[T]()
	}
	return &Builder[T]{
		desc: &MessageDescriptor{
			Name:  name,
			New:   func() any { return new(T) },
			Owner: reflect.TypeFor[*T](),
		},
	}
}

// Name returns the message name the builder was created with
func (b *Builder[T]) Name() string {
	return b.desc.Name
}

// Build returns the finished descriptor or all errors collected while adding fields
func (b *Builder[T]) Build() (*MessageDescriptor, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return b.desc, nil
}

// --------------------------------------------------------------------------
// Typed field methods
// --------------------------------------------------------------------------

func (b *Builder[T]) Int32(name string, number int, get func(*T) int32, set func(*T, int32)) *Builder[T] {
	return addField(b, name, Int32, number, get, set)
}

func (b *Builder[T]) Int64(name string, number int, get func(*T) int64, set func(*T, int64)) *Builder[T] {
	return addField(b, name, Int64, number, get, set)
}

func (b *Builder[T]) Uint32(name string, number int, get func(*T) uint32, set func(*T, uint32)) *Builder[T] {
	return addField(b, name, Uint32, number, get, set)
}

func (b *Builder[T]) Uint64(name string, number int, get func(*T) uint64, set func(*T, uint64)) *Builder[T] {
	return addField(b, name, Uint64, number, get, set)
}

func (b *Builder[T]) Float(name string, number int, get func(*T) float32, set func(*T, float32)) *Builder[T] {
	return addField(b, name, Float, number, get, set)
}

func (b *Builder[T]) Double(name string, number int, get func(*T) float64, set func(*T, float64)) *Builder[T] {
	return addField(b, name, Double, number, get, set)
}

func (b *Builder[T]) String(name string, number int, get func(*T) string, set func(*T, string)) *Builder[T] {
	return addField(b, name, String, number, get, set)
}

func (b *Builder[T]) Bool(name string, number int, get func(*T) bool, set func(*T, bool)) *Builder[T] {
	return addField(b, name, Bool, number, get, set)
}

func (b *Builder[T]) Bytes(name string, number int, get func(*T) []byte, set func(*T, []byte)) *Builder[T] {
	return addField(b, name, Bytes, number, get, set)
}

// MessageField adds a nested message field. Methods cannot have their own type
// parameters, hence the package level function. nested must describe M and
// construct *M instances.
func MessageField[T, M any](b *Builder[T], name string, number int, nested *MessageDescriptor, get func(*T) *M, set func(*T, *M)) *Builder[T] {
	if get == nil || set == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: field %s.%s has no accessor", ErrInvalidField, b.desc.Name, name))
		return b
	}
	getter := func(obj any) (any, error) {
		t, err := instance[T](obj)
		if err != nil {
			return nil, err
		}
		if m := get(t); m != nil {
			return m, nil
		}
		return nil, nil
	}
	setter := func(obj any, value any) error {
		t, err := instance[T](obj)
		if err != nil {
			return err
		}
		if value == nil {
			set(t, nil)
			return nil
		}
		m, ok := value.(*M)
		if !ok {
			return fmt.Errorf("%w: %s.%s needs %s, got %T", ErrValueType, b.desc.Name, name, reflect.TypeFor[*M](), value)
		}
		set(t, m)
		return nil
	}
	if err := b.desc.AddField(FieldDescriptor{
		Name:    name,
		Type:    Message,
		Number:  number,
		Message: nested,
		Get:     getter,
		Set:     setter,
	}); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// addField binds typed accessors to the erased Getter/Setter pair
func addField[T, F any](b *Builder[T], name string, typ FieldType, number int, get func(*T) F, set func(*T, F)) *Builder[T] {
	if get == nil || set == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: field %s.%s has no accessor", ErrInvalidField, b.desc.Name, name))
		return b
	}
	getter := func(obj any) (any, error) {
		t, err := instance[T](obj)
		if err != nil {
			return nil, err
		}
		return get(t), nil
	}
	setter := func(obj any, value any) error {
		t, err := instance[T](obj)
		if err != nil {
			return err
		}
		if value == nil {
			var zero F
			set(t, zero)
			return nil
		}
		v, ok := value.(F)
		if !ok {
			return fmt.Errorf("%w: %s.%s needs %s, got %T", ErrValueType, b.desc.Name, name, typ, value)
		}
		set(t, v)
		return nil
	}
	if err := b.desc.AddField(FieldDescriptor{
		Name:   name,
		Type:   typ,
		Number: number,
		Get:    getter,
		Set:    setter,
	}); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// instance asserts obj to *T
func instance[T any](obj any) (*T, error) {
	t, ok := obj.(*T)
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, reflect.TypeFor[*T](), obj)
	}
	return t, nil
}

package registration

import (
	"fmt"

	"github.com/ValentinKolb/grl/rpc/descriptor"
	"github.com/ValentinKolb/grl/rpc/reflection"
	"github.com/ValentinKolb/grl/rpc/schema"
	"github.com/ValentinKolb/grl/rpc/serializer"
	"github.com/ValentinKolb/grl/rpc/typename"
)

// Type builds the descriptor of T with build and registers it together with
// the type name. An empty name selects typename.DefaultName.
//
// Example:
//
//	registration.Type[Point]("geo.Point", func(b *descriptor.Builder[Point]) {
//		b.Int32("x", 1, func(p *Point) int32 { return p.X }, func(p *Point, v int32) { p.X = v })
//	})
func Type[T any](name string, build func(b *descriptor.Builder[T])) Hook {
	return func(r *Registrar) error {
		b := descriptor.NewBuilder[T](name)
		if build != nil {
			build(b)
		}
		desc, err := b.Build()
		if err != nil {
			return fmt.Errorf("type %s: %w", b.Name(), err)
		}
		return register[T](r, desc)
	}
}

// Struct derives the descriptor of T from its grl struct tags and registers it
// together with the type name. An empty name selects typename.DefaultName.
func Struct[T any](name string) Hook {
	return func(r *Registrar) error {
		desc, err := descriptor.FromStruct[T](name)
		if err != nil {
			return fmt.Errorf("struct %s: %w", typename.DefaultNameOf[T](), err)
		}
		return register[T](r, desc)
	}
}

// TypeName registers only the display name of T
func TypeName[T any](name string) Hook {
	return func(r *Registrar) error {
		return typename.Register[T](r.TypeNames, name)
	}
}

// Descriptor registers an already built descriptor under its name
func Descriptor(desc *descriptor.MessageDescriptor) Hook {
	return func(r *Registrar) error {
		if desc == nil {
			return reflection.ErrNilDescriptor
		}
		return r.Reflection.Register(desc.Name, desc)
	}
}

// Generic registers a generic serializer under its own format name
func Generic(s serializer.IGenericSerializer) Hook {
	return GenericAs("", s)
}

// GenericAs registers a generic serializer under format
func GenericAs(format string, s serializer.IGenericSerializer) Hook {
	return func(r *Registrar) error {
		return r.Serializers.RegisterGeneric(format, s)
	}
}

// Typed registers a specialized serializer for T. An empty format selects s.Name().
func Typed[T any](format string, s serializer.ITypedSerializer[T]) Hook {
	return func(r *Registrar) error {
		return serializer.RegisterTyped[T](r.Serializers, format, s)
	}
}

// Schema loads an HCL schema file and registers every message it declares
func Schema(path string) Hook {
	return func(r *Registrar) error {
		descs, err := schema.LoadFile(path)
		if err != nil {
			return err
		}
		for _, desc := range descs {
			if err := r.Reflection.Register(desc.Name, desc); err != nil {
				return fmt.Errorf("schema %s: %w", path, err)
			}
		}
		Logger.Infof("registered %d messages from %s", len(descs), path)
		return nil
	}
}

// Defaults registers all built-in generic formats
func Defaults() Hook {
	return func(r *Registrar) error {
		for _, s := range BuiltinFormats() {
			if err := r.Serializers.RegisterGeneric("", s); err != nil {
				return err
			}
		}
		return nil
	}
}

// BuiltinFormats returns a new instance of every built-in generic serializer
func BuiltinFormats() []serializer.IGenericSerializer {
	return []serializer.IGenericSerializer{
		serializer.NewBinarySerializer(),
		serializer.NewCBORSerializer(),
		serializer.NewJSONSerializer(),
		serializer.NewMsgpackSerializer(),
		serializer.NewProtoSerializer(),
	}
}

// register stores desc in the reflection registry and maps T to its name
func register[T any](r *Registrar, desc *descriptor.MessageDescriptor) error {
	if err := typename.Register[T](r.TypeNames, desc.Name); err != nil {
		return err
	}
	return r.Reflection.Register(desc.Name, desc)
}

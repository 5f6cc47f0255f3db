package serializer

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("serializer")

var (
	// ErrEmptyFormat is returned when a serializer is registered without a format name
	ErrEmptyFormat = errors.New("serializer: empty format name")
	// ErrNilSerializer is returned when a nil serializer is registered
	ErrNilSerializer = errors.New("serializer: nil serializer")
	// ErrConflictingRegistration is returned in strict mode when a format (or a
	// type/format pair) already has a serializer
	ErrConflictingRegistration = errors.New("serializer: conflicting serializer registration")
)

// typedKey identifies a specialized serializer. The same value type may have one
// codec per format and the same format may be reused across value types.
type typedKey struct {
	valueType reflect.Type
	format    string
}

// Option configures a Registry
type Option func(r *Registry)

// WithStrict rejects registering a second serializer for the same key
func WithStrict() Option {
	return func(r *Registry) {
		r.strict = true
	}
}

// Registry holds generic serializers keyed by format name and specialized
// serializers keyed by (value type, format name).
//
// Thread-safe: every operation is atomic
type Registry struct {
	generic *xsync.MapOf[string, IGenericSerializer]
	typed   *xsync.MapOf[typedKey, ITypedSerializerBase]
	strict  bool
}

// NewRegistry creates an empty serializer registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		generic: xsync.NewMapOf[string, IGenericSerializer](),
		typed:   xsync.NewMapOf[typedKey, ITypedSerializerBase](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// --------------------------------------------------------------------------
// Generic serializers
// --------------------------------------------------------------------------

// RegisterGeneric registers s under format. An empty format selects s.Name().
func (r *Registry) RegisterGeneric(format string, s IGenericSerializer) error {
	if s == nil {
		return ErrNilSerializer
	}
	if format == "" {
		format = s.Name()
	}
	if format == "" {
		return ErrEmptyFormat
	}
	if r.strict {
		if _, loaded := r.generic.LoadOrStore(format, s); loaded {
			return fmt.Errorf("%w: format %q", ErrConflictingRegistration, format)
		}
		return nil
	}
	r.generic.Store(format, s)
	return nil
}

// Generic returns the generic serializer registered for format
func (r *Registry) Generic(format string) (IGenericSerializer, bool) {
	return r.generic.Load(format)
}

// Formats returns the names of all generic formats in sorted order
func (r *Registry) Formats() []string {
	formats := make([]string, 0, r.generic.Size())
	r.generic.Range(func(format string, _ IGenericSerializer) bool {
		formats = append(formats, format)
		return true
	})
	sort.Strings(formats)
	return formats
}

// --------------------------------------------------------------------------
// Specialized serializers
// --------------------------------------------------------------------------

// RegisterTyped registers s as the specialized serializer of T for format.
// An empty format selects s.Name(). Generic functions are used because Go
// methods cannot declare type parameters.
func RegisterTyped[T any](r *Registry, format string, s ITypedSerializer[T]) error {
	if s == nil {
		return ErrNilSerializer
	}
	return r.RegisterErased(format, Erase(s))
}

// RegisterErased registers an already erased serializer under its value type
func (r *Registry) RegisterErased(format string, h ITypedSerializerBase) error {
	if h == nil {
		return ErrNilSerializer
	}
	if format == "" {
		format = h.Name()
	}
	if format == "" {
		return ErrEmptyFormat
	}
	key := typedKey{valueType: h.ValueType(), format: format}
	if r.strict {
		if _, loaded := r.typed.LoadOrStore(key, h); loaded {
			return fmt.Errorf("%w: %s for format %q", ErrConflictingRegistration, key.valueType, format)
		}
		return nil
	}
	r.typed.Store(key, h)
	return nil
}

// Typed returns the specialized serializer of T for format. A stored handle
// whose value type does not match T is reported as not found.
func Typed[T any](r *Registry, format string) (ITypedSerializer[T], bool) {
	h, ok := r.typed.Load(typedKey{valueType: reflect.TypeFor[T](), format: format})
	if !ok {
		return nil, false
	}
	s, ok := Unerase[T](h)
	if !ok {
		Logger.Warningf("specialized serializer for %s/%s has value type %s", reflect.TypeFor[T](), format, h.ValueType())
		return nil, false
	}
	return s, true
}

// HasTyped reports whether T has a specialized serializer for format
func HasTyped[T any](r *Registry, format string) bool {
	return r.HasTypedFor(reflect.TypeFor[T](), format)
}

// HasTypedFor reports whether t has a specialized serializer for format
func (r *Registry) HasTypedFor(t reflect.Type, format string) bool {
	_, ok := r.typed.Load(typedKey{valueType: t, format: format})
	return ok
}

// TypedCount returns the number of specialized serializers
func (r *Registry) TypedCount() int {
	return r.typed.Size()
}

// Clear removes all generic and specialized serializers. Intended for test isolation.
func (r *Registry) Clear() {
	r.generic.Clear()
	r.typed.Clear()
}

package factory

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/ValentinKolb/grl/rpc/descriptor"
	"github.com/ValentinKolb/grl/rpc/reflection"
	"github.com/ValentinKolb/grl/rpc/serializer"
	"github.com/ValentinKolb/grl/rpc/typename"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("factory")

var (
	// ErrNoSerializer is returned when neither a specialized serializer nor a
	// descriptor plus generic serializer can handle a (type, format) pair
	ErrNoSerializer = errors.New("factory: no serializer available")
	// ErrNilValue is returned when there is no value to read from or write to
	ErrNilValue = errors.New("factory: nil value")
)

// Path is the dispatch path chosen for a (type, format) pair
type Path string

const (
	// PathTyped uses a specialized serializer registered for the exact value type
	PathTyped Path = "typed"
	// PathGeneric uses the registered descriptor and the generic serializer of the format
	PathGeneric Path = "generic"
	// PathNone means no serializer is available
	PathNone Path = "none"
)

// Factory dispatches serialization requests. Specialized serializers take
// precedence, otherwise the value is serialized generically through its
// registered descriptor.
//
// A Factory holds no state of its own besides its metrics and is safe for
// concurrent use as long as the registries are.
type Factory struct {
	types       *typename.Registry
	reflection  *reflection.Registry
	serializers *serializer.Registry
	metrics     *metrics.Set
}

// New creates a factory bound to the given registries
func New(types *typename.Registry, refl *reflection.Registry, ser *serializer.Registry) *Factory {
	return &Factory{
		types:       types,
		reflection:  refl,
		serializers: ser,
		metrics:     metrics.NewSet(),
	}
}

// TypeNames returns the type name registry of the factory
func (f *Factory) TypeNames() *typename.Registry { return f.types }

// Reflection returns the reflection registry of the factory
func (f *Factory) Reflection() *reflection.Registry { return f.reflection }

// Serializers returns the serializer registry of the factory
func (f *Factory) Serializers() *serializer.Registry { return f.serializers }

// Metrics returns the dispatch metrics of the factory
func (f *Factory) Metrics() *metrics.Set { return f.metrics }

// WritePrometheus writes the dispatch metrics in Prometheus text format to w
func (f *Factory) WritePrometheus(w io.Writer) {
	f.metrics.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Dispatch
// --------------------------------------------------------------------------

// Serialize encodes v in the given format.
//
//  1. a specialized serializer for (T, format) is used verbatim
//  2. otherwise the display name of v is resolved (Namer, then the type name
//     registry) and its descriptor is serialized with the generic serializer
//     of the format
//
// Any missing piece yields ErrNoSerializer. Value types are viewed through a
// pointer to a copy, pointer types are used as they are.
func Serialize[T any](f *Factory, v T, format string) ([]byte, error) {
	if s, ok := serializer.Typed[T](f.serializers, format); ok {
		f.dispatched(PathTyped, format)
		data, err := s.Serialize(v)
		return data, f.completed(format, len(data), err)
	}

	obj := view(&v)
	if isNil(obj) {
		f.dispatched(PathNone, format)
		return nil, fmt.Errorf("%w: cannot serialize nil %s", ErrNilValue, reflect.TypeFor[T]())
	}
	desc, gen, err := f.generic(f.resolveName(obj), format)
	if err == nil && !desc.Accepts(obj) {
		err = fmt.Errorf("%w: descriptor %s does not describe %T", ErrNoSerializer, desc.Name, obj)
	}
	if err != nil {
		f.dispatched(PathNone, format)
		return nil, err
	}

	f.dispatched(PathGeneric, format)
	data, err := gen.Serialize(obj, desc)
	return data, f.completed(format, len(data), err)
}

// Deserialize decodes data in the given format into out, following the same
// dispatch order as Serialize. If T is a pointer type and *out is nil, a new
// instance is created with the descriptor registered for T.
func Deserialize[T any](f *Factory, data []byte, format string, out *T) error {
	if out == nil {
		return fmt.Errorf("%w: nil output for %s", ErrNilValue, reflect.TypeFor[T]())
	}
	if s, ok := serializer.Typed[T](f.serializers, format); ok {
		f.dispatched(PathTyped, format)
		return f.completed(format, len(data), s.Deserialize(data, out))
	}

	var (
		desc *descriptor.MessageDescriptor
		gen  serializer.IGenericSerializer
		err  error
	)
	var fresh *T
	obj := view(out)
	if isNil(obj) {
		desc, gen, err = f.generic(f.types.Resolve(reflect.TypeFor[T]()), format)
		if err == nil {
			fresh, err = allocate[T](desc)
		}
		if err == nil {
			obj = view(fresh)
		}
	} else {
		desc, gen, err = f.generic(f.resolveName(obj), format)
	}
	if err == nil && !desc.Accepts(obj) {
		err = fmt.Errorf("%w: descriptor %s does not describe %T", ErrNoSerializer, desc.Name, obj)
	}
	if err != nil {
		f.dispatched(PathNone, format)
		return err
	}

	f.dispatched(PathGeneric, format)
	if err := gen.Deserialize(data, obj, desc); err != nil {
		return f.completed(format, len(data), err)
	}
	// a new instance is only handed out once decoding succeeded
	if fresh != nil {
		*out = *fresh
	}
	return f.completed(format, len(data), nil)
}

// Route reports the path Serialize would take for v and format without encoding anything
func Route[T any](f *Factory, v T, format string) Path {
	if serializer.HasTyped[T](f.serializers, format) {
		return PathTyped
	}
	obj := view(&v)
	if isNil(obj) {
		return PathNone
	}
	desc, _, err := f.generic(f.resolveName(obj), format)
	if err != nil || !desc.Accepts(obj) {
		return PathNone
	}
	return PathGeneric
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// generic looks up the descriptor registered under name and the generic serializer of format
func (f *Factory) generic(name, format string) (*descriptor.MessageDescriptor, serializer.IGenericSerializer, error) {
	desc, ok := f.reflection.Descriptor(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no descriptor registered for %q", ErrNoSerializer, name)
	}
	gen, ok := f.serializers.Generic(format)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no generic serializer for format %q", ErrNoSerializer, format)
	}
	return desc, gen, nil
}

// resolveName returns the display name of obj. Values naming themselves win
// over the type name registry.
func (f *Factory) resolveName(obj any) string {
	if n, ok := obj.(typename.Namer); ok {
		return n.TypeName()
	}
	return f.types.Resolve(reflect.TypeOf(obj))
}

func (f *Factory) dispatched(path Path, format string) {
	Logger.Debugf("dispatch format=%s path=%s", format, path)
	f.metrics.GetOrCreateCounter(fmt.Sprintf(`grl_dispatch_total{path=%q,format=%q}`, path, format)).Inc()
}

// completed records the outcome of a serializer call and passes err through
func (f *Factory) completed(format string, size int, err error) error {
	if err != nil {
		f.metrics.GetOrCreateCounter(fmt.Sprintf(`grl_serialize_errors_total{format=%q}`, format)).Inc()
		return err
	}
	f.metrics.GetOrCreateHistogram(fmt.Sprintf(`grl_payload_bytes{format=%q}`, format)).Update(float64(size))
	return nil
}

// view returns the object descriptor accessors operate on: the value itself
// for pointer and interface types, p otherwise
func view[T any](p *T) any {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Pointer, reflect.Interface:
		return any(*p)
	default:
		return p
	}
}

// allocate creates a new instance of T with desc
func allocate[T any](desc *descriptor.MessageDescriptor) (*T, error) {
	inst, err := desc.Instance()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSerializer, err)
	}
	v, ok := inst.(T)
	if !ok {
		return nil, fmt.Errorf("%w: descriptor %s creates %T, not %s", ErrNoSerializer, desc.Name, inst, reflect.TypeFor[T]())
	}
	return &v, nil
}

func isNil(obj any) bool {
	if obj == nil {
		return true
	}
	rv := reflect.ValueOf(obj)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

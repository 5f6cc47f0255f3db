package descriptor

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/ValentinKolb/grl/rpc/typename"
)

// TagKey is the struct tag read by FromStruct.
//
//	type Point struct {
//		X int32 `grl:"x,1"`
//		Y int32 `grl:"2"` // field name "Y"
//		Z int32          // not serialized
//	}
const TagKey = "grl"

// FromStruct derives the descriptor of struct type T from its `grl` tags.
// Field types are inferred from the Go kind; named types whose kind matches a
// canonical type (e.g. `type ID int64`) are converted transparently. Struct and
// pointer-to-struct fields become Message fields described recursively under
// their default name. An empty name selects typename.DefaultName.
func FromStruct[T any](name string) (*MessageDescriptor, error) {
	return fromType(reflect.TypeFor[T](), name, map[reflect.Type]*MessageDescriptor{})
}

// fromType builds the descriptor of the struct type st. seen breaks cycles
// between recursive message types.
func fromType(st reflect.Type, name string, seen map[reflect.Type]*MessageDescriptor) (*MessageDescriptor, error) {
	if st.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrInvalidField, st)
	}
	if d, ok := seen[st]; ok {
		return d, nil
	}
	if name == "" {
		name = typename.DefaultName(st)
	}

	ptrType := reflect.PointerTo(st)
	desc := &MessageDescriptor{
		Name:  name,
		New:   func() any { return reflect.New(st).Interface() },
		Owner: ptrType,
	}
	seen[st] = desc

	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		tag, ok := sf.Tag.Lookup(TagKey)
		if !ok || tag == "-" {
			continue
		}
		if !sf.IsExported() {
			return nil, fmt.Errorf("%w: tagged field %s.%s is not exported", ErrInvalidField, st, sf.Name)
		}

		fieldName, number, err := parseTag(sf.Name, tag)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", st, sf.Name, err)
		}

		f := FieldDescriptor{Name: fieldName, Number: number}
		index := i

		if nested, isPtr, ok := messageType(sf.Type); ok {
			nd, err := fromType(nested, "", seen)
			if err != nil {
				return nil, err
			}
			f.Type = Message
			f.Message = nd
			f.Get, f.Set = messageAccessors(ptrType, index, isPtr)
		} else {
			typ, ok := inferType(sf.Type)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s has unsupported type %s", ErrInvalidField, st, sf.Name, sf.Type)
			}
			f.Type = typ
			f.Get, f.Set = scalarAccessors(ptrType, index, typ.GoType())
		}

		if err := desc.AddField(f); err != nil {
			return nil, err
		}
	}
	return desc, nil
}

// parseTag parses "name,number" or "number"
func parseTag(goName, tag string) (string, int, error) {
	name, num := goName, tag
	if before, after, found := strings.Cut(tag, ","); found {
		name, num = strings.TrimSpace(before), after
	}
	number, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad field number in tag %q", ErrInvalidField, tag)
	}
	return name, number, nil
}

// inferType maps a Go type to the field type whose canonical type it converts to
func inferType(t reflect.Type) (FieldType, bool) {
	switch t.Kind() {
	case reflect.Int32:
		return Int32, true
	case reflect.Int64:
		return Int64, true
	case reflect.Uint32:
		return Uint32, true
	case reflect.Uint64:
		return Uint64, true
	case reflect.Float32:
		return Float, true
	case reflect.Float64:
		return Double, true
	case reflect.String:
		return String, true
	case reflect.Bool:
		return Bool, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return Bytes, true
		}
	}
	return 0, false
}

// messageType reports whether t is a struct or a pointer to a struct
func messageType(t reflect.Type) (reflect.Type, bool, bool) {
	switch {
	case t.Kind() == reflect.Struct:
		return t, false, true
	case t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct:
		return t.Elem(), true, true
	}
	return nil, false, false
}

// structField returns the addressable field value of obj, checking its type
func structField(ptrType reflect.Type, obj any, index int) (reflect.Value, error) {
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() || rv.Type() != ptrType || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, ptrType, obj)
	}
	return rv.Elem().Field(index), nil
}

func scalarAccessors(ptrType reflect.Type, index int, canonical reflect.Type) (Getter, Setter) {
	get := func(obj any) (any, error) {
		fv, err := structField(ptrType, obj, index)
		if err != nil {
			return nil, err
		}
		return fv.Convert(canonical).Interface(), nil
	}
	set := func(obj any, value any) error {
		fv, err := structField(ptrType, obj, index)
		if err != nil {
			return err
		}
		if value == nil {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		v := reflect.ValueOf(value)
		if v.Type() != canonical {
			return fmt.Errorf("%w: need %s, got %T", ErrValueType, canonical, value)
		}
		fv.Set(v.Convert(fv.Type()))
		return nil
	}
	return get, set
}

func messageAccessors(ptrType reflect.Type, index int, isPtr bool) (Getter, Setter) {
	get := func(obj any) (any, error) {
		fv, err := structField(ptrType, obj, index)
		if err != nil {
			return nil, err
		}
		if isPtr {
			if fv.IsNil() {
				return nil, nil
			}
			return fv.Interface(), nil
		}
		return fv.Addr().Interface(), nil
	}
	set := func(obj any, value any) error {
		fv, err := structField(ptrType, obj, index)
		if err != nil {
			return err
		}
		if value == nil {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		v := reflect.ValueOf(value)
		want := fv.Type()
		if !isPtr {
			want = reflect.PointerTo(want)
		}
		if v.Type() != want {
			return fmt.Errorf("%w: need %s, got %T", ErrValueType, want, value)
		}
		if isPtr {
			fv.Set(v)
		} else {
			fv.Set(v.Elem())
		}
		return nil
	}
	return get, set
}

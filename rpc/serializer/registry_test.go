package serializer

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

// upperSerializer is a specialized serializer for strings that stores them upper case
type upperSerializer struct {
	format string
}

func (u upperSerializer) Serialize(v string) ([]byte, error) {
	return []byte(strings.ToUpper(v)), nil
}

func (u upperSerializer) Deserialize(b []byte, v *string) error {
	*v = string(b)
	return nil
}

func (u upperSerializer) Name() string {
	return u.format
}

// intSerializer is a specialized serializer for ints
type intSerializer struct{}

func (intSerializer) Serialize(v int) ([]byte, error) { return []byte{byte(v)}, nil }

func (intSerializer) Deserialize(b []byte, v *int) error {
	if len(b) != 1 {
		return ErrMalformed
	}
	*v = int(b[0])
	return nil
}

func (intSerializer) Name() string { return "byte" }

// TestGenericRegistration tests registering and looking up generic serializers
func TestGenericRegistration(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Generic("json"); ok {
		t.Errorf("Expected empty registry")
	}
	if err := r.RegisterGeneric("", NewJSONSerializer()); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if err := r.RegisterGeneric("bin", NewBinarySerializer()); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	s, ok := r.Generic("json")
	if !ok || s.Name() != "json" {
		t.Errorf("Expected json serializer under its own name")
	}
	s, ok = r.Generic("bin")
	if !ok || s.Name() != "binary" {
		t.Errorf("Expected binary serializer under format 'bin'")
	}
	if _, ok := r.Generic("binary"); ok {
		t.Errorf("Did not expect a serializer under 'binary'")
	}

	if formats := r.Formats(); !reflect.DeepEqual(formats, []string{"bin", "json"}) {
		t.Errorf("Unexpected formats %v", formats)
	}

	if err := r.RegisterGeneric("x", nil); !errors.Is(err, ErrNilSerializer) {
		t.Errorf("Expected ErrNilSerializer, got %v", err)
	}
}

// TestRegistrationOverwrite tests last-write-wins and strict mode
func TestRegistrationOverwrite(t *testing.T) {
	r := NewRegistry()
	_ = r.RegisterGeneric("fmt", NewJSONSerializer())
	_ = r.RegisterGeneric("fmt", NewProtoSerializer())
	if s, _ := r.Generic("fmt"); s.Name() != "proto" {
		t.Errorf("Expected last registration to win, got %s", s.Name())
	}

	_ = RegisterTyped[string](r, "up", upperSerializer{format: "first"})
	_ = RegisterTyped[string](r, "up", upperSerializer{format: "second"})
	if s, _ := Typed[string](r, "up"); s.Name() != "second" {
		t.Errorf("Expected last typed registration to win, got %s", s.Name())
	}

	strict := NewRegistry(WithStrict())
	if err := strict.RegisterGeneric("fmt", NewJSONSerializer()); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if err := strict.RegisterGeneric("fmt", NewProtoSerializer()); !errors.Is(err, ErrConflictingRegistration) {
		t.Errorf("Expected ErrConflictingRegistration, got %v", err)
	}
	if s, _ := strict.Generic("fmt"); s.Name() != "json" {
		t.Errorf("Expected first registration to stay in strict mode")
	}
	if err := RegisterTyped[string](strict, "up", upperSerializer{format: "first"}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if err := RegisterTyped[string](strict, "up", upperSerializer{format: "second"}); !errors.Is(err, ErrConflictingRegistration) {
		t.Errorf("Expected ErrConflictingRegistration, got %v", err)
	}
}

// TestTypedRegistration tests registering and looking up specialized serializers
func TestTypedRegistration(t *testing.T) {
	r := NewRegistry()

	if err := RegisterTyped[string](r, "", upperSerializer{format: "upper"}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if err := RegisterTyped[int](r, "upper", intSerializer{}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	// Same format, different value types
	s, ok := Typed[string](r, "upper")
	if !ok {
		t.Fatalf("Expected string serializer")
	}
	data, err := s.Serialize("abc")
	if err != nil || string(data) != "ABC" {
		t.Errorf("Unexpected result %q, %v", data, err)
	}
	i, ok := Typed[int](r, "upper")
	if !ok {
		t.Fatalf("Expected int serializer")
	}
	var n int
	if err := i.Deserialize([]byte{7}, &n); err != nil || n != 7 {
		t.Errorf("Unexpected result %d, %v", n, err)
	}

	if !HasTyped[string](r, "upper") || HasTyped[string](r, "json") || HasTyped[*string](r, "upper") {
		t.Errorf("Unexpected HasTyped result")
	}
	if !r.HasTypedFor(reflect.TypeFor[int](), "upper") {
		t.Errorf("Expected HasTypedFor to find int serializer")
	}
	if r.TypedCount() != 2 {
		t.Errorf("Expected 2 typed serializers, got %d", r.TypedCount())
	}

	if err := RegisterTyped[string](r, "", upperSerializer{}); !errors.Is(err, ErrEmptyFormat) {
		t.Errorf("Expected ErrEmptyFormat, got %v", err)
	}
	if err := RegisterTyped[string](r, "x", nil); !errors.Is(err, ErrNilSerializer) {
		t.Errorf("Expected ErrNilSerializer, got %v", err)
	}

	r.Clear()
	if r.TypedCount() != 0 || len(r.Formats()) != 0 {
		t.Errorf("Expected empty registry after Clear")
	}
}

// TestErasure tests the type-erased handle and the checked downcast
func TestErasure(t *testing.T) {
	h := Erase[string](upperSerializer{format: "upper"})
	if h.Name() != "upper" || h.ValueType() != reflect.TypeFor[string]() {
		t.Errorf("Unexpected handle %s/%s", h.Name(), h.ValueType())
	}
	if _, ok := Unerase[string](h); !ok {
		t.Errorf("Expected downcast to string to succeed")
	}
	if s, ok := Unerase[int](h); ok || s != nil {
		t.Errorf("Expected downcast to int to fail")
	}

	// A handle stored under the wrong key is reported as not found
	r := NewRegistry()
	r.typed.Store(typedKey{valueType: reflect.TypeFor[int](), format: "upper"}, h)
	if _, ok := Typed[int](r, "upper"); ok {
		t.Errorf("Expected mismatching handle to be reported as not found")
	}
}

// TestConcurrentRegistry tests concurrent registration and lookup
func TestConcurrentRegistry(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.RegisterGeneric("json", NewJSONSerializer())
				_ = RegisterTyped[string](r, "upper", upperSerializer{format: "upper"})
				if _, ok := r.Generic("json"); !ok {
					t.Errorf("Expected json serializer")
				}
				if _, ok := Typed[string](r, "upper"); !ok {
					t.Errorf("Expected typed serializer")
				}
			}
		}(i)
	}
	wg.Wait()

	if r.TypedCount() != 1 || len(r.Formats()) != 1 {
		t.Errorf("Expected one entry per key")
	}
}

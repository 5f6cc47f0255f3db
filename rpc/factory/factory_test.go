package factory

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ValentinKolb/grl/rpc/descriptor"
	"github.com/ValentinKolb/grl/rpc/reflection"
	"github.com/ValentinKolb/grl/rpc/serializer"
	"github.com/ValentinKolb/grl/rpc/typename"
)

type Point struct {
	X int32
	Y int32
}

// named is a type that reports its own display name
type named struct {
	name  string
	Value string
}

func (n *named) TypeName() string { return n.name }

// binPoint is a specialized codec writing x and y as single bytes
type binPoint struct{}

func (binPoint) Serialize(p Point) ([]byte, error) { return []byte{byte(p.X), byte(p.Y)}, nil }

func (binPoint) Deserialize(b []byte, p *Point) error {
	if len(b) != 2 {
		return serializer.ErrMalformed
	}
	p.X, p.Y = int32(b[0]), int32(b[1])
	return nil
}

func (binPoint) Name() string { return "bin" }

func pointDescriptor(t *testing.T) *descriptor.MessageDescriptor {
	t.Helper()
	desc, err := descriptor.NewBuilder[Point]("Point").
		Int32("x", 1, func(p *Point) int32 { return p.X }, func(p *Point, v int32) { p.X = v }).
		Int32("y", 2, func(p *Point) int32 { return p.Y }, func(p *Point, v int32) { p.Y = v }).
		Build()
	if err != nil {
		t.Fatalf("Failed to build descriptor: %v", err)
	}
	return desc
}

// newTestFactory creates a factory with Point registered under "Point" and the json and binary formats
func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	types := typename.New()
	refl := reflection.New()
	ser := serializer.NewRegistry()

	if err := typename.Register[Point](types, "Point"); err != nil {
		t.Fatalf("Failed to register type name: %v", err)
	}
	if err := refl.Register("Point", pointDescriptor(t)); err != nil {
		t.Fatalf("Failed to register descriptor: %v", err)
	}
	for _, s := range []serializer.IGenericSerializer{serializer.NewJSONSerializer(), serializer.NewBinarySerializer()} {
		if err := ser.RegisterGeneric("", s); err != nil {
			t.Fatalf("Failed to register serializer: %v", err)
		}
	}
	return New(types, refl, ser)
}

// TestGenericFallback tests the generic path for a type without specialized serializer
func TestGenericFallback(t *testing.T) {
	f := newTestFactory(t)

	for _, format := range []string{"json", "binary"} {
		t.Run(format, func(t *testing.T) {
			data, err := Serialize(f, Point{X: 1, Y: 2}, format)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}
			var p Point
			if err := Deserialize(f, data, format, &p); err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}
			if p != (Point{X: 1, Y: 2}) {
				t.Errorf("Unexpected result %+v", p)
			}
		})
	}

	data, _ := Serialize(f, Point{X: 1, Y: 2}, "json")
	if string(data) != `{"x":1,"y":2}` {
		t.Errorf("Unexpected JSON %s", data)
	}
	if Route(f, Point{}, "json") != PathGeneric {
		t.Errorf("Expected generic path")
	}
}

// TestSpecializedWithoutDescriptor tests that a specialized serializer needs no descriptor
func TestSpecializedWithoutDescriptor(t *testing.T) {
	f := New(typename.New(), reflection.New(), serializer.NewRegistry())
	if err := serializer.RegisterTyped[Point](f.Serializers(), "bin", binPoint{}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	data, err := Serialize(f, Point{X: 3, Y: 4}, "bin")
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	if !bytes.Equal(data, []byte{3, 4}) {
		t.Errorf("Unexpected data %v", data)
	}
	var p Point
	if err := Deserialize(f, data, "bin", &p); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	if p != (Point{X: 3, Y: 4}) {
		t.Errorf("Unexpected result %+v", p)
	}
	if Route(f, p, "bin") != PathTyped {
		t.Errorf("Expected typed path")
	}
}

// TestSpecializedPrecedence tests that a specialized serializer wins over the generic path
func TestSpecializedPrecedence(t *testing.T) {
	f := newTestFactory(t)
	if err := serializer.RegisterTyped[Point](f.Serializers(), "json", binPoint{}); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	data, err := Serialize(f, Point{X: 5, Y: 6}, "json")
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	if !bytes.Equal(data, []byte{5, 6}) {
		t.Errorf("Expected specialized output, got %q", data)
	}

	// the pointer type has no specialized serializer and still uses the descriptor
	data, err = Serialize(f, &Point{X: 5, Y: 6}, "json")
	if err != nil {
		t.Fatalf("Failed to serialize pointer: %v", err)
	}
	if string(data) != `{"x":5,"y":6}` {
		t.Errorf("Expected generic output for *Point, got %s", data)
	}
}

// TestAbsence tests that every missing piece yields ErrNoSerializer
func TestAbsence(t *testing.T) {
	f := newTestFactory(t)

	type unregistered struct{ A int32 }

	if _, err := Serialize(f, Point{}, "xml"); !errors.Is(err, ErrNoSerializer) {
		t.Errorf("Expected ErrNoSerializer for unknown format, got %v", err)
	}
	if _, err := Serialize(f, unregistered{}, "json"); !errors.Is(err, ErrNoSerializer) {
		t.Errorf("Expected ErrNoSerializer for type without descriptor, got %v", err)
	}
	var u unregistered
	if err := Deserialize(f, []byte(`{}`), "json", &u); !errors.Is(err, ErrNoSerializer) {
		t.Errorf("Expected ErrNoSerializer on deserialize, got %v", err)
	}
	if Route(f, u, "json") != PathNone {
		t.Errorf("Expected no path")
	}

	// a descriptor of another type registered under the resolved name fails closed
	if err := f.Reflection().Register("Point", func() *descriptor.MessageDescriptor {
		d, _ := descriptor.NewBuilder[unregistered]("Point").Build()
		return d
	}()); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}
	if _, err := Serialize(f, Point{}, "json"); !errors.Is(err, ErrNoSerializer) {
		t.Errorf("Expected ErrNoSerializer for foreign descriptor, got %v", err)
	}

	var nilPoint *Point
	if _, err := Serialize(f, nilPoint, "json"); !errors.Is(err, ErrNilValue) {
		t.Errorf("Expected ErrNilValue, got %v", err)
	}
	if err := Deserialize[Point](f, nil, "json", nil); !errors.Is(err, ErrNilValue) {
		t.Errorf("Expected ErrNilValue, got %v", err)
	}
}

// TestPointerTypes tests dispatch for pointer types, including allocation of nil targets
func TestPointerTypes(t *testing.T) {
	f := newTestFactory(t)

	data, err := Serialize(f, &Point{X: 7, Y: 8}, "binary")
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	var p *Point
	if err := Deserialize(f, data, "binary", &p); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	if p == nil || *p != (Point{X: 7, Y: 8}) {
		t.Errorf("Unexpected result %+v", p)
	}

	existing := &Point{X: 1}
	if err := Deserialize(f, data, "binary", &existing); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	if *existing != (Point{X: 7, Y: 8}) {
		t.Errorf("Unexpected result %+v", existing)
	}

	// a failed decode leaves a nil target nil
	var failed *Point
	if err := Deserialize(f, []byte(`{"x":"seven"}`), "json", &failed); !errors.Is(err, serializer.ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
	if failed != nil {
		t.Errorf("Expected target to stay nil after failed decode, got %+v", failed)
	}
	if err := Deserialize(f, []byte{0xff}, "binary", &failed); err == nil {
		t.Error("Expected error for truncated binary data")
	}
	if failed != nil {
		t.Errorf("Expected target to stay nil after failed decode, got %+v", failed)
	}
}

// TestNamerResolution tests that values naming themselves select their descriptor by that name
func TestNamerResolution(t *testing.T) {
	f := newTestFactory(t)
	desc, err := descriptor.NewBuilder[named]("dyn.Thing").
		String("value", 1, func(n *named) string { return n.Value }, func(n *named, v string) { n.Value = v }).
		Build()
	if err != nil {
		t.Fatalf("Failed to build descriptor: %v", err)
	}
	if err := f.Reflection().Register("dyn.Thing", desc); err != nil {
		t.Fatalf("Failed to register: %v", err)
	}

	data, err := Serialize(f, &named{name: "dyn.Thing", Value: "v"}, "json")
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	if string(data) != `{"value":"v"}` {
		t.Errorf("Unexpected JSON %s", data)
	}

	out := &named{name: "dyn.Thing"}
	if err := Deserialize(f, data, "json", &out); err != nil {
		t.Fatalf("Failed to deserialize: %v", err)
	}
	if out.Value != "v" {
		t.Errorf("Unexpected value %q", out.Value)
	}

	if _, err := Serialize(f, &named{name: "dyn.Other"}, "json"); !errors.Is(err, ErrNoSerializer) {
		t.Errorf("Expected ErrNoSerializer for unknown name, got %v", err)
	}
}

// TestIsolation tests that factories with separate registries do not share registrations
func TestIsolation(t *testing.T) {
	a := newTestFactory(t)
	b := New(typename.New(), reflection.New(), serializer.NewRegistry())
	_ = b.Serializers().RegisterGeneric("", serializer.NewJSONSerializer())

	if _, err := Serialize(a, Point{}, "json"); err != nil {
		t.Errorf("Expected factory a to serialize Point: %v", err)
	}
	if _, err := Serialize(b, Point{}, "json"); !errors.Is(err, ErrNoSerializer) {
		t.Errorf("Expected factory b to have no descriptor for Point, got %v", err)
	}
}

// TestMetrics tests the dispatch metrics
func TestMetrics(t *testing.T) {
	f := newTestFactory(t)
	_ = serializer.RegisterTyped[Point](f.Serializers(), "bin", binPoint{})

	_, _ = Serialize(f, Point{X: 1}, "json")
	_, _ = Serialize(f, Point{X: 1}, "json")
	_, _ = Serialize(f, Point{X: 1}, "bin")
	_, _ = Serialize(f, Point{}, "xml")
	var p Point
	_ = Deserialize(f, []byte{1}, "bin", &p)

	var buf bytes.Buffer
	f.WritePrometheus(&buf)
	out := buf.String()

	for _, line := range []string{
		`grl_dispatch_total{path="generic",format="json"} 2`,
		`grl_dispatch_total{path="typed",format="bin"} 2`,
		`grl_dispatch_total{path="none",format="xml"} 1`,
		`grl_serialize_errors_total{format="bin"} 1`,
	} {
		if !strings.Contains(out, line) {
			t.Errorf("Expected metrics to contain %q, got:\n%s", line, out)
		}
	}
	if !strings.Contains(out, `grl_payload_bytes_bucket{format="json"`) {
		t.Errorf("Expected payload histogram for json, got:\n%s", out)
	}
}

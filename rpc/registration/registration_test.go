package registration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/grl/rpc/common"
	"github.com/ValentinKolb/grl/rpc/descriptor"
	"github.com/ValentinKolb/grl/rpc/factory"
	"github.com/ValentinKolb/grl/rpc/reflection"
	"github.com/ValentinKolb/grl/rpc/serializer"
	"github.com/ValentinKolb/grl/rpc/serializer/typed"
	"github.com/ValentinKolb/grl/rpc/typename"
)

type Point struct {
	X int32
	Y int32
}

type tagged struct {
	Name  string `grl:"name,1"`
	Score uint32 `grl:"score,2"`
}

type declaredType struct {
	ID int64 `grl:"id,1"`
}

func init() {
	Declare(Struct[declaredType]("test.Declared"))
}

func pointHook() Hook {
	return Type[Point]("geo.Point", func(b *descriptor.Builder[Point]) {
		b.Int32("x", 1, func(p *Point) int32 { return p.X }, func(p *Point, v int32) { p.X = v }).
			Int32("y", 2, func(p *Point) int32 { return p.Y }, func(p *Point, v int32) { p.Y = v })
	})
}

// TestApply tests that hooks register types, descriptors and serializers
func TestApply(t *testing.T) {
	r := New(common.DefaultConfig())
	err := r.Apply(
		Defaults(),
		pointHook(),
		Struct[tagged](""),
		Typed[Point]("bin", typed.Funcs("bin",
			func(p Point) ([]byte, error) { return []byte{byte(p.X), byte(p.Y)}, nil },
			func(b []byte, p *Point) error { p.X, p.Y = int32(b[0]), int32(b[1]); return nil })),
	)
	if err != nil {
		t.Fatalf("Failed to apply hooks: %v", err)
	}

	if name := typename.NameOf[Point](r.TypeNames); name != "geo.Point" {
		t.Errorf("Expected type name geo.Point, got %q", name)
	}
	if !r.Reflection.Has("geo.Point") {
		t.Errorf("Expected descriptor for geo.Point")
	}
	taggedName := typename.DefaultNameOf[tagged]()
	if !r.Reflection.Has(taggedName) || typename.NameOf[tagged](r.TypeNames) != taggedName {
		t.Errorf("Expected tagged to be registered under %q", taggedName)
	}
	if len(r.Serializers.Formats()) != len(BuiltinFormats()) {
		t.Errorf("Expected all built-in formats, got %v", r.Serializers.Formats())
	}

	f := r.Factory()
	data, err := factory.Serialize(f, Point{X: 1, Y: 2}, "json")
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}
	if string(data) != `{"x":1,"y":2}` {
		t.Errorf("Unexpected JSON %s", data)
	}
	data, err = factory.Serialize(f, Point{X: 1, Y: 2}, "bin")
	if err != nil || len(data) != 2 {
		t.Errorf("Expected specialized bin serializer, got %v, %v", data, err)
	}
	data, err = factory.Serialize(f, tagged{Name: "n", Score: 3}, "proto")
	if err != nil {
		t.Fatalf("Failed to serialize tagged: %v", err)
	}
	var out tagged
	if err := factory.Deserialize(f, data, "proto", &out); err != nil || out != (tagged{Name: "n", Score: 3}) {
		t.Errorf("Unexpected round trip result %+v, %v", out, err)
	}
}

// TestApplyJoinsErrors tests that failing hooks do not stop the others
func TestApplyJoinsErrors(t *testing.T) {
	r := New(common.DefaultConfig())
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	err := r.Apply(
		func(*Registrar) error { return errA },
		pointHook(),
		nil,
		func(*Registrar) error { return errB },
		Descriptor(nil),
	)
	if !errors.Is(err, errA) || !errors.Is(err, errB) || !errors.Is(err, reflection.ErrNilDescriptor) {
		t.Errorf("Expected all errors to be joined, got %v", err)
	}
	if !r.Reflection.Has("geo.Point") {
		t.Errorf("Expected hook after a failing hook to be applied")
	}

	// builder errors surface through the hook
	err = r.Apply(Type[Point]("bad", func(b *descriptor.Builder[Point]) {
		b.Int32("x", 0, func(p *Point) int32 { return p.X }, func(p *Point, v int32) { p.X = v })
	}))
	if !errors.Is(err, descriptor.ErrInvalidField) {
		t.Errorf("Expected ErrInvalidField, got %v", err)
	}
}

// TestStrictRegistration tests that a strict configuration rejects duplicates
func TestStrictRegistration(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.StrictRegistration = true
	r := New(cfg)

	if err := r.Apply(Defaults(), pointHook()); err != nil {
		t.Fatalf("Failed to apply hooks: %v", err)
	}
	if err := r.Apply(Defaults()); !errors.Is(err, serializer.ErrConflictingRegistration) {
		t.Errorf("Expected ErrConflictingRegistration for formats, got %v", err)
	}
	if err := r.Apply(TypeName[Point]("other")); !errors.Is(err, typename.ErrConflictingRegistration) {
		t.Errorf("Expected ErrConflictingRegistration, got %v", err)
	}

	// lenient registrars overwrite
	lenient := New(common.DefaultConfig())
	if err := lenient.Apply(pointHook(), TypeName[Point]("other")); err != nil {
		t.Errorf("Expected lenient registrar to accept re-registration: %v", err)
	}
	if name := typename.NameOf[Point](lenient.TypeNames); name != "other" {
		t.Errorf("Expected last write to win, got %q", name)
	}
}

// TestApplyDeclared tests hooks declared from init functions
func TestApplyDeclared(t *testing.T) {
	a := New(common.DefaultConfig())
	b := New(common.DefaultConfig())
	if err := a.ApplyDeclared(); err != nil {
		t.Fatalf("Failed to apply declared hooks: %v", err)
	}
	if !a.Reflection.Has("test.Declared") {
		t.Errorf("Expected declared type in registrar a")
	}
	if b.Reflection.Has("test.Declared") {
		t.Errorf("Did not expect declared type in registrar b before ApplyDeclared")
	}
}

// TestApplyConfig tests loading defaults and schema files from the configuration
func TestApplyConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geo.hcl")
	src := "message \"geo.Line\" {\n  field \"length\" {\n    type   = \"double\"\n    number = 1\n  }\n}\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("Failed to write schema: %v", err)
	}

	cfg := common.DefaultConfig()
	cfg.SchemaFiles = []string{path, filepath.Join(t.TempDir(), "missing.hcl")}
	r := New(cfg)

	err := r.ApplyConfig()
	if err == nil {
		t.Errorf("Expected error for missing schema file")
	}
	if !r.Reflection.Has("geo.Line") {
		t.Errorf("Expected schema message to be registered despite the failing file")
	}
	if _, ok := r.Serializers.Generic("cbor"); !ok {
		t.Errorf("Expected built-in formats to be registered")
	}
}

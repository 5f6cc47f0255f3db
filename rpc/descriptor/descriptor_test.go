package descriptor_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ValentinKolb/grl/rpc/descriptor"
)

type point struct {
	X, Y int32
}

type userID int64

type profile struct {
	Name string
}

// taggedPoint is point with grl tags
type taggedPoint struct {
	X int32 `grl:"x,1"`
	Y int32 `grl:"y,2"`
}

type withTagged struct {
	P taggedPoint  `grl:"p,1"`
	Q *taggedPoint `grl:"q,2"`
}

type node struct {
	Value int32 `grl:"value,1"`
	Next  *node `grl:"next,2"`
}

func pointDescriptor(t *testing.T) *descriptor.MessageDescriptor {
	t.Helper()
	desc, err := descriptor.NewBuilder[point]("Point").
		Int32("x", 1, func(p *point) int32 { return p.X }, func(p *point, v int32) { p.X = v }).
		Int32("y", 2, func(p *point) int32 { return p.Y }, func(p *point, v int32) { p.Y = v }).
		Build()
	if err != nil {
		t.Fatalf("Build: unexpected error: %v", err)
	}
	return desc
}

func TestFieldTypeNames(t *testing.T) {
	for ft := descriptor.Int32; ft <= descriptor.Message; ft++ {
		parsed, err := descriptor.ParseFieldType(ft.String())
		if err != nil || parsed != ft {
			t.Errorf("ParseFieldType(%q) = (%v, %v), want %v", ft.String(), parsed, err, ft)
		}
	}
	if ft, err := descriptor.ParseFieldType("  uint64 "); err != nil || ft != descriptor.Uint64 {
		t.Errorf("ParseFieldType lower case = (%v, %v)", ft, err)
	}
	if _, err := descriptor.ParseFieldType("decimal"); !errors.Is(err, descriptor.ErrInvalidField) {
		t.Errorf("ParseFieldType(decimal): got %v, want ErrInvalidField", err)
	}
	if got := descriptor.FieldType(42).String(); got != "FieldType(42)" {
		t.Errorf("String() of unknown type = %q", got)
	}
}

func TestCheckValue(t *testing.T) {
	tests := []struct {
		typ   descriptor.FieldType
		value any
		ok    bool
	}{
		{descriptor.Int32, int32(1), true},
		{descriptor.Int32, int64(1), false},
		{descriptor.Bytes, []byte("x"), true},
		{descriptor.Bytes, "x", false},
		{descriptor.Float, float32(1.5), true},
		{descriptor.Double, float32(1.5), false},
		{descriptor.Message, nil, true},
		{descriptor.Message, &point{}, true},
		{descriptor.Message, point{}, false},
		{descriptor.String, nil, false},
	}
	for _, tt := range tests {
		err := descriptor.CheckValue(tt.typ, tt.value)
		if (err == nil) != tt.ok {
			t.Errorf("CheckValue(%s, %#v) = %v, want ok=%v", tt.typ, tt.value, err, tt.ok)
		}
	}
}

func TestBuilderAccessors(t *testing.T) {
	desc := pointDescriptor(t)

	if desc.Name != "Point" || len(desc.Fields) != 2 {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
	if desc.Fields[0].Name != "x" || desc.Fields[1].Name != "y" {
		t.Errorf("declaration order not preserved: %s, %s", desc.Fields[0].Name, desc.Fields[1].Name)
	}

	p := &point{X: 3, Y: 4}
	x, _ := desc.Field("x")
	v, err := x.Get(p)
	if err != nil || v != int32(3) {
		t.Errorf("Get(x) = (%v, %v), want 3", v, err)
	}

	y, _ := desc.FieldByNumber(2)
	if err := y.Set(p, int32(9)); err != nil || p.Y != 9 {
		t.Errorf("Set(y) = %v, p.Y = %d", err, p.Y)
	}
	if err := y.Set(p, nil); err != nil || p.Y != 0 {
		t.Errorf("Set(y, nil) = %v, p.Y = %d", err, p.Y)
	}
	if err := y.Set(p, "nine"); !errors.Is(err, descriptor.ErrValueType) {
		t.Errorf("Set(y, string): got %v, want ErrValueType", err)
	}
	if _, err := x.Get(&profile{}); !errors.Is(err, descriptor.ErrTypeMismatch) {
		t.Errorf("Get with wrong instance: got %v, want ErrTypeMismatch", err)
	}
	if _, err := x.Get(point{}); !errors.Is(err, descriptor.ErrTypeMismatch) {
		t.Errorf("Get with non-pointer: got %v, want ErrTypeMismatch", err)
	}

	if _, ok := desc.Field("z"); ok {
		t.Errorf("Field(z) found a field")
	}
	if _, ok := desc.FieldByNumber(3); ok {
		t.Errorf("FieldByNumber(3) found a field")
	}

	obj, err := desc.Instance()
	if err != nil || !desc.Accepts(obj) {
		t.Errorf("Instance() = (%T, %v), not accepted", obj, err)
	}
	if desc.Accepts(point{}) {
		t.Errorf("Accepts(point{}) = true, want false")
	}
}

func TestBuilderErrors(t *testing.T) {
	get := func(p *point) int32 { return p.X }
	set := func(p *point, v int32) { p.X = v }

	_, err := descriptor.NewBuilder[point]("").
		Int32("x", 1, get, set).
		Int32("x", 2, get, set).
		Int32("z", 1, get, set).
		Int32("", 3, get, set).
		Int32("n", 0, get, set).
		Int32("g", 4, nil, set).
		Build()

	if !errors.Is(err, descriptor.ErrDuplicateField) {
		t.Errorf("expected ErrDuplicateField in %v", err)
	}
	if !errors.Is(err, descriptor.ErrInvalidField) {
		t.Errorf("expected ErrInvalidField in %v", err)
	}
}

func TestBuilderMessageField(t *testing.T) {
	type line struct {
		From *point
		To   *point
	}
	pd := pointDescriptor(t)

	b := descriptor.NewBuilder[line]("Line")
	descriptor.MessageField(b, "from", 1, pd, func(l *line) *point { return l.From }, func(l *line, p *point) { l.From = p })
	descriptor.MessageField(b, "to", 2, pd, func(l *line) *point { return l.To }, func(l *line, p *point) { l.To = p })
	desc, err := b.Build()
	if err != nil {
		t.Fatalf("Build: unexpected error: %v", err)
	}

	l := &line{From: &point{X: 1}}
	from, _ := desc.Field("from")
	if v, err := from.Get(l); err != nil || v.(*point).X != 1 {
		t.Errorf("Get(from) = (%v, %v)", v, err)
	}
	to, _ := desc.Field("to")
	if v, err := to.Get(l); err != nil || v != nil {
		t.Errorf("Get(to) of nil pointer = (%#v, %v), want untyped nil", v, err)
	}
	if err := to.Set(l, &point{Y: 2}); err != nil || l.To.Y != 2 {
		t.Errorf("Set(to) = %v", err)
	}
	if err := to.Set(l, &profile{}); !errors.Is(err, descriptor.ErrValueType) {
		t.Errorf("Set(to, wrong type): got %v, want ErrValueType", err)
	}
}

func TestFromStruct(t *testing.T) {
	desc, err := descriptor.FromStruct[withTagged]("")
	if err != nil {
		t.Fatalf("FromStruct: unexpected error: %v", err)
	}
	if desc.Name != "descriptor_test.withTagged" {
		t.Errorf("default name = %q", desc.Name)
	}
	p, _ := desc.Field("p")
	if p.Type != descriptor.Message || p.Message == nil || len(p.Message.Fields) != 2 {
		t.Fatalf("nested descriptor not derived: %+v", p)
	}

	obj := &withTagged{P: taggedPoint{X: 5}}
	v, err := p.Get(obj)
	if err != nil || v.(*taggedPoint).X != 5 {
		t.Errorf("Get(p) = (%v, %v)", v, err)
	}
	if err := p.Set(obj, &taggedPoint{Y: 7}); err != nil || obj.P.Y != 7 || obj.P.X != 0 {
		t.Errorf("Set(p) = %v, obj.P = %+v", err, obj.P)
	}

	q, _ := desc.Field("q")
	if v, _ := q.Get(obj); v != nil {
		t.Errorf("Get(q) of nil pointer = %#v, want nil", v)
	}
}

func TestFromStructScalars(t *testing.T) {
	type scalars struct {
		ID     userID  `grl:"id,1"`
		Name   string  `grl:"name,2"`
		Score  float64 `grl:"3"`
		Avatar []byte  `grl:"avatar,4"`
		Skip   string  `grl:"-"`
	}
	desc, err := descriptor.FromStruct[scalars]("Scalars")
	if err != nil {
		t.Fatalf("FromStruct: unexpected error: %v", err)
	}

	names := make([]string, 0, len(desc.Fields))
	for _, f := range desc.Fields {
		names = append(names, f.Name)
	}
	if !reflect.DeepEqual(names, []string{"id", "name", "Score", "avatar"}) {
		t.Errorf("field names = %v", names)
	}

	s := &scalars{ID: 42}
	id, _ := desc.Field("id")
	if id.Type != descriptor.Int64 {
		t.Errorf("id type = %s, want INT64", id.Type)
	}
	if v, err := id.Get(s); err != nil || v != int64(42) {
		t.Errorf("Get(id) = (%#v, %v), want int64(42)", v, err)
	}
	if err := id.Set(s, int64(7)); err != nil || s.ID != 7 {
		t.Errorf("Set(id) = %v, s.ID = %d", err, s.ID)
	}
	if err := id.Set(s, userID(7)); !errors.Is(err, descriptor.ErrValueType) {
		t.Errorf("Set(id, userID): got %v, want ErrValueType", err)
	}
}

func TestFromStructRecursive(t *testing.T) {
	desc, err := descriptor.FromStruct[node]("Node")
	if err != nil {
		t.Fatalf("FromStruct: unexpected error: %v", err)
	}
	next, _ := desc.Field("next")
	if next.Message != desc {
		t.Errorf("recursive field does not point back to its own descriptor")
	}
}

func TestFromStructErrors(t *testing.T) {
	type badNumber struct {
		A int32 `grl:"a,x"`
	}
	type unsupported struct {
		A int `grl:"a,1"`
	}
	type unexported struct {
		a int32 `grl:"a,1"`
	}
	if _, err := descriptor.FromStruct[badNumber](""); !errors.Is(err, descriptor.ErrInvalidField) {
		t.Errorf("bad number: got %v", err)
	}
	if _, err := descriptor.FromStruct[unsupported](""); !errors.Is(err, descriptor.ErrInvalidField) {
		t.Errorf("unsupported kind: got %v", err)
	}
	if _, err := descriptor.FromStruct[unexported](""); !errors.Is(err, descriptor.ErrInvalidField) {
		t.Errorf("unexported: got %v", err)
	}
	if _, err := descriptor.FromStruct[int](""); !errors.Is(err, descriptor.ErrInvalidField) {
		t.Errorf("non-struct: got %v", err)
	}
}

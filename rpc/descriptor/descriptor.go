package descriptor

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrDuplicateField is returned when a field name or number is added twice
	ErrDuplicateField = errors.New("descriptor: duplicate field")
	// ErrInvalidField is returned for fields with an empty name, a non-positive
	// number, an unknown type or a missing accessor
	ErrInvalidField = errors.New("descriptor: invalid field")
	// ErrTypeMismatch is returned when an accessor is invoked on an instance of
	// a different type than the one it was bound to
	ErrTypeMismatch = errors.New("descriptor: accessor used with wrong instance type")
	// ErrValueType is returned when a setter receives a value that is not of the
	// field's canonical Go type
	ErrValueType = errors.New("descriptor: value has wrong type for field")
)

// Getter reads a field from obj. obj must be an instance of the type the
// getter was bound to (usually a pointer to a struct).
type Getter func(obj any) (any, error)

// Setter writes value to a field of obj. A nil value resets the field to its zero value.
type Setter func(obj any, value any) error

// FieldDescriptor describes a single serializable field
type FieldDescriptor struct {
	// Name is unique within its message
	Name string
	// Type is the wire type of the field
	Type FieldType
	// Number is unique within its message and used by number-keyed formats
	Number int
	// Message describes the nested type of a Message field, nil otherwise
	Message *MessageDescriptor
	// Get and Set are bound to the containing type
	Get Getter
	Set Setter
}

// MessageDescriptor describes the serializable shape of a type. Field order is
// the declaration order and is significant for order-dependent encodings.
//
// A descriptor is not safe for concurrent modification. Build it completely
// before registering it; registered descriptors are treated as read-only.
type MessageDescriptor struct {
	// Name is the display name of the message
	Name string
	// Fields in declaration order
	Fields []FieldDescriptor
	// New returns a fresh instance the accessors can be used with
	New func() any
	// Owner is the type of the instances the accessors accept, nil if unknown
	Owner reflect.Type
}

// AddField appends f after validating it against the fields already present
func (d *MessageDescriptor) AddField(f FieldDescriptor) error {
	if f.Name == "" {
		return fmt.Errorf("%w: empty name in message %s", ErrInvalidField, d.Name)
	}
	if f.Number <= 0 {
		return fmt.Errorf("%w: field %s.%s has number %d", ErrInvalidField, d.Name, f.Name, f.Number)
	}
	if !f.Type.Valid() {
		return fmt.Errorf("%w: field %s.%s has type %s", ErrInvalidField, d.Name, f.Name, f.Type)
	}
	if f.Get == nil || f.Set == nil {
		return fmt.Errorf("%w: field %s.%s has no accessor", ErrInvalidField, d.Name, f.Name)
	}
	if f.Type == Message && f.Message == nil {
		return fmt.Errorf("%w: message field %s.%s has no nested descriptor", ErrInvalidField, d.Name, f.Name)
	}
	for i := range d.Fields {
		if d.Fields[i].Name == f.Name {
			return fmt.Errorf("%w: name %q in message %s", ErrDuplicateField, f.Name, d.Name)
		}
		if d.Fields[i].Number == f.Number {
			return fmt.Errorf("%w: number %d in message %s", ErrDuplicateField, f.Number, d.Name)
		}
	}
	d.Fields = append(d.Fields, f)
	return nil
}

// Field returns the field with the given name
func (d *MessageDescriptor) Field(name string) (*FieldDescriptor, bool) {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// FieldByNumber returns the field with the given number
func (d *MessageDescriptor) FieldByNumber(number int) (*FieldDescriptor, bool) {
	for i := range d.Fields {
		if d.Fields[i].Number == number {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// Accepts reports whether obj can be used with the accessors of d
func (d *MessageDescriptor) Accepts(obj any) bool {
	if obj == nil {
		return false
	}
	return d.Owner == nil || reflect.TypeOf(obj) == d.Owner
}

// Instance returns a new instance of the described type
func (d *MessageDescriptor) Instance() (any, error) {
	if d.New == nil {
		return nil, fmt.Errorf("descriptor: message %s has no constructor", d.Name)
	}
	return d.New(), nil
}

package schema

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/ValentinKolb/grl/rpc/descriptor"
)

// Message is a dynamic, map-backed instance of a schema message. It names
// itself through TypeName, so one Go type serves every message of a schema.
//
// A Message is not safe for concurrent modification.
type Message struct {
	desc   *descriptor.MessageDescriptor
	values map[string]any
}

// messageType is the Owner of every schema descriptor
var messageType = reflect.TypeFor[*Message]()

// New creates an empty message described by desc. desc must come from this package.
func New(desc *descriptor.MessageDescriptor) (*Message, error) {
	if desc == nil || desc.Owner != messageType {
		return nil, fmt.Errorf("%w: not a schema descriptor", ErrInvalidSchema)
	}
	inst, err := desc.Instance()
	if err != nil {
		return nil, err
	}
	return inst.(*Message), nil
}

// TypeName returns the name of the schema message (implements typename.Namer).
// A Message not created by New has no name.
func (m *Message) TypeName() string {
	if m == nil || m.desc == nil {
		return ""
	}
	return m.desc.Name
}

// Descriptor returns the descriptor the message was created with
func (m *Message) Descriptor() *descriptor.MessageDescriptor {
	return m.desc
}

// Get returns the value of field. Unset fields yield their default value.
func (m *Message) Get(field string) (any, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	f, ok := m.desc.Field(field)
	if !ok {
		return nil, fmt.Errorf("%w: message %s has no field %q", descriptor.ErrInvalidField, m.desc.Name, field)
	}
	return f.Get(m)
}

// Set stores v in field. v must have the canonical Go type of the field, a
// nested message must be a *Message of the referenced schema message.
func (m *Message) Set(field string, v any) error {
	if err := m.check(); err != nil {
		return err
	}
	f, ok := m.desc.Field(field)
	if !ok {
		return fmt.Errorf("%w: message %s has no field %q", descriptor.ErrInvalidField, m.desc.Name, field)
	}
	return f.Set(m, v)
}

// Has reports whether field was set explicitly (including resets to zero)
func (m *Message) Has(field string) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[field]
	return ok
}

// Values returns the explicitly set fields. Nested messages are converted to maps.
func (m *Message) Values() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		if nested, ok := v.(*Message); ok {
			out[k] = nested.Values()
			continue
		}
		out[k] = v
	}
	return out
}

// String returns the message name followed by its set fields in sorted order
func (m *Message) String() string {
	if m == nil {
		return "<nil>"
	}
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := m.TypeName() + "{"
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s:%v", k, m.values[k])
	}
	return s + "}"
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// accessors binds a getter and setter for field name of desc. Unset fields
// read as def, which is the zero value unless the schema declares a default.
func accessors(desc *descriptor.MessageDescriptor, name string, typ descriptor.FieldType, def any) (descriptor.Getter, descriptor.Setter) {
	get := func(obj any) (any, error) {
		m, err := bound(desc, obj)
		if err != nil {
			return nil, err
		}
		if v, ok := m.values[name]; ok {
			return v, nil
		}
		if b, ok := def.([]byte); ok && b != nil {
			// callers may modify the returned slice
			return append([]byte(nil), b...), nil
		}
		return def, nil
	}
	set := func(obj any, value any) error {
		m, err := bound(desc, obj)
		if err != nil {
			return err
		}
		if value == nil {
			// explicit zero, unset fields would read as the default
			if typ == descriptor.Message {
				delete(m.values, name)
			} else {
				m.values[name] = descriptor.ZeroValue(typ)
			}
			return nil
		}
		if err := descriptor.CheckValue(typ, value); err != nil {
			return fmt.Errorf("%s.%s: %w", desc.Name, name, err)
		}
		if typ == descriptor.Message {
			nested, ok := value.(*Message)
			if !ok {
				return fmt.Errorf("%w: %s.%s needs *schema.Message, got %T", descriptor.ErrValueType, desc.Name, name, value)
			}
			if f, _ := desc.Field(name); f != nil && nested.desc != f.Message {
				return fmt.Errorf("%w: %s.%s needs %s, got %s", descriptor.ErrValueType, desc.Name, name, f.Message.Name, nested.desc.Name)
			}
		}
		m.values[name] = value
		return nil
	}
	return get, set
}

// bound asserts that obj is a message of desc
func bound(desc *descriptor.MessageDescriptor, obj any) (*Message, error) {
	m, ok := obj.(*Message)
	if !ok || m == nil {
		return nil, fmt.Errorf("%w: want *schema.Message, got %T", descriptor.ErrTypeMismatch, obj)
	}
	if m.desc != desc {
		return nil, fmt.Errorf("%w: want message %s, got %q", descriptor.ErrTypeMismatch, desc.Name, m.TypeName())
	}
	return m, nil
}

// check reports an error for messages not created by New
func (m *Message) check() error {
	if m == nil || m.desc == nil {
		return fmt.Errorf("%w: message has no descriptor, use New", ErrInvalidSchema)
	}
	return nil
}

package schema

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/grl/rpc/descriptor"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

var Logger = logger.GetLogger("schema")

// ErrInvalidSchema is returned for schema files that parse but do not describe valid messages
var ErrInvalidSchema = errors.New("schema: invalid schema")

// --------------------------------------------------------------------------
// HCL structure
// --------------------------------------------------------------------------

// fileRoot is the top level of a schema file
type fileRoot struct {
	Messages []*messageBlock `hcl:"message,block"`
}

type messageBlock struct {
	Name   string        `hcl:"name,label"`
	Fields []*fieldBlock `hcl:"field,block"`
}

type fieldBlock struct {
	Name    string     `hcl:"name,label"`
	Type    string     `hcl:"type"`
	Number  int        `hcl:"number"`
	Message string     `hcl:"message,optional"`
	Default *cty.Value `hcl:"default,optional"`
}

// --------------------------------------------------------------------------
// Loading
// --------------------------------------------------------------------------

// LoadFile parses the HCL schema file at path
func LoadFile(path string) ([]*descriptor.MessageDescriptor, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, diags)
	}
	return decode(file, path)
}

// Parse parses an HCL schema from src. filename is only used in error messages.
// The descriptors are returned in declaration order.
func Parse(src []byte, filename string) ([]*descriptor.MessageDescriptor, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse schema %s: %w", filename, diags)
	}
	return decode(file, filename)
}

// decode turns a parsed file into descriptors. Messages are created first so
// fields can reference any message of the file, including the enclosing one.
func decode(file *hcl.File, filename string) ([]*descriptor.MessageDescriptor, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode schema %s: %w", filename, diags)
	}

	byName := make(map[string]*descriptor.MessageDescriptor, len(root.Messages))
	descs := make([]*descriptor.MessageDescriptor, 0, len(root.Messages))
	for _, mb := range root.Messages {
		if mb.Name == "" {
			return nil, fmt.Errorf("%w: %s: message without name", ErrInvalidSchema, filename)
		}
		if _, ok := byName[mb.Name]; ok {
			return nil, fmt.Errorf("%w: %s: duplicate message %q", ErrInvalidSchema, filename, mb.Name)
		}
		desc := newDescriptor(mb.Name)
		byName[mb.Name] = desc
		descs = append(descs, desc)
	}

	var errs []error
	for i, mb := range root.Messages {
		desc := descs[i]
		for _, fb := range mb.Fields {
			if err := addField(desc, fb, byName); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", filename, err))
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	Logger.Debugf("loaded %d messages from %s", len(descs), filename)
	return descs, nil
}

// newDescriptor creates the descriptor of a schema message without fields
func newDescriptor(name string) *descriptor.MessageDescriptor {
	desc := &descriptor.MessageDescriptor{
		Name:  name,
		Owner: messageType,
	}
	desc.New = func() any {
		return &Message{desc: desc, values: make(map[string]any)}
	}
	return desc
}

// addField validates fb and adds it to desc
func addField(desc *descriptor.MessageDescriptor, fb *fieldBlock, byName map[string]*descriptor.MessageDescriptor) error {
	typ, err := descriptor.ParseFieldType(fb.Type)
	if err != nil {
		return fmt.Errorf("field %s.%s: %w", desc.Name, fb.Name, err)
	}

	var nested *descriptor.MessageDescriptor
	switch {
	case typ == descriptor.Message && fb.Message == "":
		return fmt.Errorf("%w: message field %s.%s needs a message attribute", ErrInvalidSchema, desc.Name, fb.Name)
	case typ == descriptor.Message:
		var ok bool
		if nested, ok = byName[fb.Message]; !ok {
			return fmt.Errorf("%w: field %s.%s references unknown message %q", ErrInvalidSchema, desc.Name, fb.Name, fb.Message)
		}
	case fb.Message != "":
		return fmt.Errorf("%w: field %s.%s of type %s cannot reference a message", ErrInvalidSchema, desc.Name, fb.Name, typ)
	}

	def := descriptor.ZeroValue(typ)
	if fb.Default != nil && !fb.Default.IsNull() {
		if def, err = defaultValue(typ, *fb.Default); err != nil {
			return fmt.Errorf("field %s.%s: %w", desc.Name, fb.Name, err)
		}
	}

	get, set := accessors(desc, fb.Name, typ, def)
	return desc.AddField(descriptor.FieldDescriptor{
		Name:    fb.Name,
		Type:    typ,
		Number:  fb.Number,
		Message: nested,
		Get:     get,
		Set:     set,
	})
}

// defaultValue converts a cty value to the canonical Go type of typ
func defaultValue(typ descriptor.FieldType, val cty.Value) (any, error) {
	var err error
	switch typ {
	case descriptor.Int32:
		var v int32
		err = gocty.FromCtyValue(val, &v)
		return v, wrapDefault(err)
	case descriptor.Int64:
		var v int64
		err = gocty.FromCtyValue(val, &v)
		return v, wrapDefault(err)
	case descriptor.Uint32:
		var v uint32
		err = gocty.FromCtyValue(val, &v)
		return v, wrapDefault(err)
	case descriptor.Uint64:
		var v uint64
		err = gocty.FromCtyValue(val, &v)
		return v, wrapDefault(err)
	case descriptor.Float:
		var v float32
		err = gocty.FromCtyValue(val, &v)
		return v, wrapDefault(err)
	case descriptor.Double:
		var v float64
		err = gocty.FromCtyValue(val, &v)
		return v, wrapDefault(err)
	case descriptor.String:
		var v string
		err = gocty.FromCtyValue(val, &v)
		return v, wrapDefault(err)
	case descriptor.Bool:
		var v bool
		err = gocty.FromCtyValue(val, &v)
		return v, wrapDefault(err)
	case descriptor.Bytes:
		var v string
		err = gocty.FromCtyValue(val, &v)
		return []byte(v), wrapDefault(err)
	default:
		return nil, fmt.Errorf("%w: %s fields cannot have a default", ErrInvalidSchema, typ)
	}
}

func wrapDefault(err error) error {
	if err != nil {
		return fmt.Errorf("%w: invalid default: %v", ErrInvalidSchema, err)
	}
	return nil
}

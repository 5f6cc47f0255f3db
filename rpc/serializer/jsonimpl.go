package serializer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/ValentinKolb/grl/rpc/descriptor"
	"github.com/bytedance/sonic"
)

// jsonAPI sorts object keys for deterministic output and keeps numbers as
// json.Number so 64 bit integers survive decoding
var jsonAPI = sonic.Config{
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// NewJSONSerializer creates a generic serializer producing JSON objects keyed by
// field name. Bytes are base64 encoded, nested messages are nested objects.
// NaN and the infinities are written as the strings "NaN", "Infinity" and
// "-Infinity" and accepted in that form by float fields.
func NewJSONSerializer() IGenericSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IGenericSerializer interface using sonic
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IGenericSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Name() string {
	return "json"
}

func (j jsonSerializerImpl) Serialize(obj any, desc *descriptor.MessageDescriptor) ([]byte, error) {
	if err := checkObject(obj, desc); err != nil {
		return nil, err
	}
	doc, err := toDocument(obj, desc)
	if err != nil {
		return nil, err
	}
	j.encodeFloats(doc, desc)
	return jsonAPI.Marshal(doc)
}

func (j jsonSerializerImpl) Deserialize(b []byte, obj any, desc *descriptor.MessageDescriptor) error {
	if err := checkObject(obj, desc); err != nil {
		return err
	}
	var doc map[string]any
	if err := jsonAPI.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return j.fromObject(doc, obj, desc)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// encodeFloats replaces the float values of doc with their shortest exact
// number literal. NaN and the infinities have no JSON number and are written
// as the strings "NaN", "Infinity" and "-Infinity".
func (j jsonSerializerImpl) encodeFloats(doc map[string]any, desc *descriptor.MessageDescriptor) {
	for i := range desc.Fields {
		f := &desc.Fields[i]
		switch v := doc[f.Name].(type) {
		case float32:
			doc[f.Name] = floatLiteral(float64(v), 32)
		case float64:
			doc[f.Name] = floatLiteral(v, 64)
		case map[string]any:
			if f.Type == descriptor.Message && f.Message != nil {
				j.encodeFloats(v, f.Message)
			}
		}
	}
}

func floatLiteral(f float64, bitSize int) any {
	switch {
	case math.IsNaN(f):
		return nanName
	case math.IsInf(f, 1):
		return posInfName
	case math.IsInf(f, -1):
		return negInfName
	}
	return json.Number(strconv.FormatFloat(f, 'g', -1, bitSize))
}

// fromObject writes every field present in doc into obj. JSON null resets a field.
func (j jsonSerializerImpl) fromObject(doc map[string]any, obj any, desc *descriptor.MessageDescriptor) error {
	for i := range desc.Fields {
		f := &desc.Fields[i]
		raw, ok := doc[f.Name]
		if !ok {
			continue
		}
		if raw == nil {
			if err := f.Set(obj, nil); err != nil {
				return err
			}
			continue
		}

		switch f.Type {
		case descriptor.Message:
			m, ok := raw.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: field %s is not an object", ErrMalformed, f.Name)
			}
			nested, err := newNested(f)
			if err != nil {
				return err
			}
			if err := j.fromObject(m, nested, f.Message); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
			if err := f.Set(obj, nested); err != nil {
				return err
			}
			continue
		case descriptor.Bytes:
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("%w: field %s is not a base64 string", ErrMalformed, f.Name)
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return fmt.Errorf("%w: field %s: %v", ErrMalformed, f.Name, err)
			}
			raw = b
		}

		if err := writeField(f, obj, raw); err != nil {
			return err
		}
	}
	return nil
}

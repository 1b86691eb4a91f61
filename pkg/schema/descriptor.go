package schema

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Descriptor names a record shape so it can be requested from a
// structured generation service and validated on the way back.
type Descriptor struct {
	Name        string
	Description string
	Schema      Schema
}

// Validate checks data against the descriptor's schema, filling defaults.
func (d Descriptor) Validate(data map[string]any) error {
	return Validate(d.Schema, data)
}

// OpenAPI renders the descriptor as an OpenAPI 3 schema object.
// The result is also a valid JSON Schema for the subset of types used here.
func (d Descriptor) OpenAPI() *openapi3.Schema {
	s := objectSchema(d.Schema)
	s.Title = d.Name
	s.Description = d.Description
	return s
}

// JSONSchema returns the OpenAPI rendering as a generic JSON value,
// suitable for embedding in provider request bodies.
func (d Descriptor) JSONSchema() (map[string]any, error) {
	raw, err := json.Marshal(d.OpenAPI())
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", d.Name, err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal schema %s: %w", d.Name, err)
	}
	return out, nil
}

func objectSchema(fields Schema) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	for _, name := range fields.Keys() {
		t := fields[name]
		s.WithProperty(name, toOpenAPI(t))
		if _, optional := defaultOf(t); !optional {
			s.Required = append(s.Required, name)
		}
	}
	return s
}

func toOpenAPI(t Type) *openapi3.Schema {
	switch v := t.(type) {
	case *StringType:
		return openapi3.NewStringSchema()
	case *IntType:
		return openapi3.NewIntegerSchema()
	case *FloatType:
		return openapi3.NewFloat64Schema()
	case *BoolType:
		return openapi3.NewBoolSchema()
	case *SliceType:
		return openapi3.NewArraySchema().WithItems(toOpenAPI(v.elemType))
	case *ObjectType:
		return objectSchema(v.fields)
	case *DefaultType:
		s := toOpenAPI(v.inner)
		s.Default = cloneDefault(v.value)
		return s
	case *DescribedType:
		s := toOpenAPI(v.inner)
		s.Description = v.text
		return s
	default:
		// Custom types accept anything as far as the generator is concerned.
		return &openapi3.Schema{}
	}
}

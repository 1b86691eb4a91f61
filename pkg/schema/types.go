package schema

import (
	"fmt"
	"reflect"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "[string]").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Scalars ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// JSON numbers decode as float64
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

// FloatType validates floating-point values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// --- Composites ---

// SliceType validates slices of a specific element type.
// Element failures are reported with an index path ("[2]" or "[2].field").
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return fmt.Errorf("expected slice, got %T", value)
	}

	var errs []error
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			errs = append(errs, nest(fmt.Sprintf("[%d]", i), err, elem)...)
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ObjectType validates a nested JSON object against its own Schema.
type ObjectType struct {
	fields Schema
}

func (t *ObjectType) Name() string { return "object" }

func (t *ObjectType) Validate(value any) error {
	m, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("expected object, got %T", value)
	}
	return Validate(t.fields, m)
}

// Fields returns the schema of the nested object.
func (t *ObjectType) Fields() Schema { return t.fields }

// DefaultType marks a field as optional. When the field is absent,
// Validate fills it with a copy of the default value.
type DefaultType struct {
	inner Type
	value any
}

func (t *DefaultType) Name() string { return t.inner.Name() }

func (t *DefaultType) Validate(value any) error { return t.inner.Validate(value) }

// DescribedType attaches a human-readable description to a type.
// It does not change validation; the text is carried into generated JSON schemas.
type DescribedType struct {
	inner Type
	text  string
}

func (t *DescribedType) Name() string { return t.inner.Name() }

func (t *DescribedType) Validate(value any) error { return t.inner.Validate(value) }

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a float type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Object creates a validator for a nested object with the given fields.
func Object(fields Schema) Type {
	return &ObjectType{fields: fields}
}

// Default makes t optional, substituting value when the field is absent.
func Default(t Type, value any) Type {
	return &DefaultType{inner: t, value: value}
}

// Describe attaches documentation to t.
func Describe(t Type, text string) Type {
	return &DescribedType{inner: t, text: text}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// defaultOf unwraps descriptions and reports whether t carries a default.
func defaultOf(t Type) (any, bool) {
	for {
		switch v := t.(type) {
		case *DescribedType:
			t = v.inner
		case *DefaultType:
			return cloneDefault(v.value), true
		default:
			return nil, false
		}
	}
}

// cloneDefault copies slice and map defaults so callers never share them.
func cloneDefault(v any) any {
	switch d := v.(type) {
	case []any:
		out := make([]any, len(d))
		copy(out, d)
		return out
	case []string:
		out := make([]any, len(d))
		for i, s := range d {
			out[i] = s
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(d))
		for k, val := range d {
			out[k] = val
		}
		return out
	default:
		return v
	}
}

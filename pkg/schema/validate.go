package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Schema is a map of field names to their expected types.
// Example: {"metric": String(), "value": Slice(String())}
type Schema map[string]Type

// Keys returns the field names in a stable order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks if data conforms to the schema.
// Absent fields declared with Default are filled in place; every other
// absent field is a "required" failure. All failures are aggregated,
// nested ones keyed by their path (e.g. "anomalies[0].potential_impact").
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	if data == nil {
		data = map[string]any{}
	}

	var errs []error
	for _, fieldName := range schema.Keys() {
		fieldType := schema[fieldName]

		value, exists := data[fieldName]
		if !exists {
			if def, ok := defaultOf(fieldType); ok {
				data[fieldName] = def
				continue
			}
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "required",
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, nest(fieldName, err, value)...)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// nest re-keys the failures of a composite value under prefix.
func nest(prefix string, err error, value any) []error {
	var aggr *AggregateError
	if !errors.As(err, &aggr) {
		return []error{&ValidationError{Key: prefix, Reason: err.Error(), Value: value}}
	}

	out := make([]error, 0, len(aggr.Errors))
	for _, e := range aggr.Errors {
		var ve *ValidationError
		if errors.As(e, &ve) {
			out = append(out, &ValidationError{
				Key:    joinPath(prefix, ve.Key),
				Reason: ve.Reason,
				Value:  ve.Value,
			})
			continue
		}
		out = append(out, fmt.Errorf("%s: %w", prefix, e))
	}
	return out
}

func joinPath(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case strings.HasPrefix(key, "["):
		return prefix + key
	default:
		return prefix + "." + key
	}
}

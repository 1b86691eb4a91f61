// Package schema validates structured payloads against a declared record shape.
//
// A Schema maps field names to types. Scalars (String, Int, Float, Bool) compose
// with Slice and Object into nested shapes; Default marks a field optional and
// Describe documents it:
//
//	anomaly := schema.Object(schema.Schema{
//	    "metric":    schema.String(),
//	    "timestamp": schema.Slice(schema.String()),
//	})
//
//	s := schema.Schema{
//	    "anomalies": schema.Default(schema.Slice(anomaly), []any{}),
//	    "summary":   schema.Default(schema.String(), "nothing to report"),
//	}
//
//	if err := schema.Validate(s, payload); err != nil {
//	    for _, key := range schema.FailedKeys(err) {
//	        // e.g. "anomalies[0].metric"
//	    }
//	}
//
// A Descriptor wraps a Schema with a name so it can be rendered as an
// OpenAPI/JSON schema (via kin-openapi) and sent to a generation service.
package schema

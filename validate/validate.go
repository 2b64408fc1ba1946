// Package validate wraps JSON Schema generation/validation for the
// payloads that cross the session engine boundary: inbound request
// params and outbound request results. The engine treats schema
// validation as an external collaborator; this package is the concrete
// one used by this repo's handler registrations, built on
// github.com/invopop/jsonschema.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Validator checks a decoded payload against a schema and returns a
// descriptive error on mismatch. MethodName identifies the method a
// handler/request-schema pair is for; when it is non-empty,
// session.SetRequestHandler checks it against the method string the
// caller supplies and rejects a mismatch rather than silently
// validating against the wrong schema.
type Validator interface {
	MethodName() string
	Validate(raw json.RawMessage) error
}

// SchemaValidator validates a raw JSON payload by unmarshaling it into
// a fresh value of type T and checking the result against a JSON Schema
// generated from T's struct tags via invopop/jsonschema's reflector.
type SchemaValidator[T any] struct {
	method string
	schema *jsonschema.Schema
}

// NewSchemaValidator builds a validator for method, generating its
// schema from T.
func NewSchemaValidator[T any](method string) *SchemaValidator[T] {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}
	var zero T
	schema := reflector.Reflect(zero)
	return &SchemaValidator[T]{method: method, schema: schema}
}

func (v *SchemaValidator[T]) MethodName() string { return v.method }

// Validate decodes raw into T with DisallowUnknownFields semantics and
// re-checks that every property the schema marks required is present.
// A full JSON-Schema evaluator is out of scope here; this performs the
// structural checks invopop/jsonschema's own output is sufficient to
// express: required-field presence and type shape via strict decoding.
func (v *SchemaValidator[T]) Validate(raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	var probe map[string]interface{}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("validate %s: payload is not a JSON object: %w", v.method, err)
	}

	for _, required := range v.schema.Required {
		if _, ok := probe[required]; !ok {
			return fmt.Errorf("validate %s: missing required field %q", v.method, required)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var out T
	if err := dec.Decode(&out); err != nil {
		return fmt.Errorf("validate %s: %w", v.method, err)
	}
	return nil
}

// Decode is a convenience for callers holding a raw result or params
// blob: it validates then returns the typed value.
func Decode[T any](v *SchemaValidator[T], raw json.RawMessage) (T, error) {
	var out T
	if err := v.Validate(raw); err != nil {
		return out, err
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", v.method, err)
	}
	return out, nil
}

// Package validate compiles a tool's parameter schema into a reusable
// Validator that decodes untyped request payloads into typed arguments.
// Compilation happens once per descriptor; Decode is stateless and safe for
// concurrent use.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/humcp/humcp/internal/schema"
)

// FieldError is a single per-parameter validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string { return e.Field + ": " + e.Message }

// Error carries every field error found in one decode attempt. Decode never
// fails fast: callers see all problems in a single round trip.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "invalid parameters: " + strings.Join(parts, "; ")
}

// Validator is a compiled parameter schema.
type Validator struct {
	params schema.Params
	known  map[string]schema.Parameter
}

// Compile builds a Validator from a parameter schema. The schema must
// already satisfy schema.Params.Validate; Compile re-checks so that a
// Validator can never be built from an inconsistent schema.
func Compile(params schema.Params) (*Validator, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	known := make(map[string]schema.Parameter, len(params))
	for _, p := range params {
		known[p.Name] = p
	}
	return &Validator{params: params, known: known}, nil
}

// Decode validates payload against the compiled schema and returns a fresh
// typed argument map. Declared parameters are coerced to their declared
// types, absent optional parameters receive their defaults, and unknown
// keys are rejected (closed schema). On failure the returned error is an
// *Error listing every offending field.
func (v *Validator) Decode(payload map[string]any) (map[string]any, error) {
	var fields []FieldError
	args := make(map[string]any, len(v.params))

	for _, p := range v.params {
		raw, present := payload[p.Name]
		if !present {
			if p.Required {
				fields = append(fields, FieldError{p.Name, "missing required parameter"})
				continue
			}
			if p.Default != nil {
				args[p.Name] = p.Default
			}
			continue
		}
		val, err := coerce(p, raw)
		if err != nil {
			fields = append(fields, FieldError{p.Name, err.Error()})
			continue
		}
		args[p.Name] = val
	}

	// Unknown keys are caller typos; reject them in deterministic order.
	var unknown []string
	for key := range payload {
		if _, ok := v.known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		fields = append(fields, FieldError{key, "unknown parameter"})
	}

	if len(fields) > 0 {
		return nil, &Error{Fields: fields}
	}
	return args, nil
}

// Params returns the schema this validator was compiled from.
func (v *Validator) Params() schema.Params { return v.params }

// coerce checks raw against the declared parameter type and converts it to
// the canonical Go representation.
func coerce(p schema.Parameter, raw any) (any, error) {
	switch p.Type {
	case schema.TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, typeMismatch("string", raw)
		}
		if len(p.Enum) > 0 && !contains(p.Enum, s) {
			return nil, fmt.Errorf("must be one of [%s], got %q", strings.Join(p.Enum, ", "), s)
		}
		return s, nil

	case schema.TypeInteger:
		n, ok := asInt64(raw)
		if !ok {
			return nil, typeMismatch("integer", raw)
		}
		return n, nil

	case schema.TypeNumber:
		f, ok := asFloat64(raw)
		if !ok {
			return nil, typeMismatch("number", raw)
		}
		return f, nil

	case schema.TypeBoolean:
		// Only the two canonical forms; no truthy coercion.
		b, ok := raw.(bool)
		if !ok {
			return nil, typeMismatch("boolean", raw)
		}
		return b, nil

	case schema.TypeArray:
		a, ok := raw.([]any)
		if !ok {
			return nil, typeMismatch("array", raw)
		}
		return a, nil

	case schema.TypeObject:
		o, ok := raw.(map[string]any)
		if !ok {
			return nil, typeMismatch("object", raw)
		}
		return o, nil
	}
	return nil, fmt.Errorf("unknown type %q", p.Type)
}

func typeMismatch(want string, got any) error {
	return fmt.Errorf("expected %s, got %s", want, typeName(got))
}

// typeName reports the JSON-level type of a decoded value for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// asInt64 converts numeric input to int64, rejecting non-integral values.
// JSON decoding yields float64 or json.Number depending on decoder settings;
// both are accepted as long as the value is a whole number.
func asInt64(raw any) (int64, bool) {
	switch n := raw.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		// "3.0" parses as float but is still integral.
		if f, err := n.Float64(); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int64(f), true
		}
		return 0, false
	}
	return 0, false
}

func asFloat64(raw any) (float64, bool) {
	switch n := raw.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

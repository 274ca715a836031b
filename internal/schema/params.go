package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParamType is the declared type of a single tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

var knownTypes = map[ParamType]bool{
	TypeString:  true,
	TypeInteger: true,
	TypeNumber:  true,
	TypeBoolean: true,
	TypeArray:   true,
	TypeObject:  true,
}

// Parameter describes one named tool input.
type Parameter struct {
	Name        string
	Type        ParamType
	Required    bool
	Default     any
	Description string
	// Enum restricts a string parameter to a fixed set of literals.
	Enum []string
}

// Params is the ordered parameter schema of a tool. Order is declaration
// order and is preserved through JSON marshalling and validation output.
type Params []Parameter

// Validate checks the schema invariants: known types, unique names, enum
// only on strings, and that a parameter carrying a default is optional.
func (ps Params) Validate() error {
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		if p.Name == "" {
			return fmt.Errorf("parameter with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("parameter %q declared twice", p.Name)
		}
		seen[p.Name] = true
		if !knownTypes[p.Type] {
			return fmt.Errorf("parameter %q has unknown type %q", p.Name, p.Type)
		}
		if len(p.Enum) > 0 && p.Type != TypeString {
			return fmt.Errorf("parameter %q: enum requires type string, got %q", p.Name, p.Type)
		}
		if p.Default != nil && p.Required {
			return fmt.Errorf("parameter %q is required but has a default", p.Name)
		}
	}
	return nil
}

// Get returns the parameter with the given name.
func (ps Params) Get(name string) (Parameter, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Required returns the names of all required parameters, in order.
func (ps Params) RequiredNames() []string {
	var names []string
	for _, p := range ps {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// MarshalJSON renders the schema as a JSON Schema object:
//
//	{"type":"object","properties":{...},"required":[...]}
//
// Properties are written in declaration order, which encoding/json does not
// guarantee for maps, hence the manual encoder.
func (ps Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"object","properties":{`)
	for i, p := range ps {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		prop, err := json.Marshal(p.property())
		if err != nil {
			return nil, err
		}
		buf.Write(prop)
	}
	buf.WriteString(`},"required":[`)
	for i, name := range ps.RequiredNames() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
	}
	buf.WriteString(`]}`)
	return buf.Bytes(), nil
}

// property is the JSON Schema fragment for a single parameter.
type property struct {
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Default     any       `json:"default,omitempty"`
}

func (p Parameter) property() property {
	return property{
		Type:        p.Type,
		Description: p.Description,
		Enum:        p.Enum,
		Default:     p.Default,
	}
}

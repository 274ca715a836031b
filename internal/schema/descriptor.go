// Package schema contains the core contracts shared across humcp packages:
// the tool descriptor, the parameter schema, and the response envelope.
// Concrete tool implementations live in internal/tools; this package is the
// single canonical source of truth for the shapes they share.
package schema

import (
	"context"
	"fmt"
)

// Handler is the callable behind a tool. It receives arguments that have
// already been validated and decoded against the tool's parameter schema
// and returns an arbitrary JSON-serializable result or an error.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Descriptor is the immutable registration record for one tool.
// Descriptors are built once during discovery and never mutated; the
// registry hands out copies by value.
type Descriptor struct {
	// Name uniquely identifies the tool across the whole registry.
	Name string
	// Category groups tools for listing and filtering. Left empty, it is
	// defaulted from the discovery source and ultimately falls back to
	// "uncategorized".
	Category string
	// Summary is the one-line description used in listings.
	Summary string
	// Description is the full documentation shown by introspection.
	// Empty means "use Summary".
	Description string
	// Params describes the tool's input, in declaration order.
	Params Params
	// Handler executes the tool. Owned exclusively by this descriptor.
	Handler Handler
}

// Doc returns the full description, falling back to the summary.
func (d Descriptor) Doc() string {
	if d.Description != "" {
		return d.Description
	}
	return d.Summary
}

// Validate checks the structural invariants of the descriptor. Violations
// are startup errors: a descriptor that fails here must never be served.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor has no name")
	}
	if d.Handler == nil {
		return fmt.Errorf("tool %q has no handler", d.Name)
	}
	if err := d.Params.Validate(); err != nil {
		return fmt.Errorf("tool %q: %w", d.Name, err)
	}
	return nil
}

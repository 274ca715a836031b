// Package registry holds the process-wide tool index. The registry has a
// strict two-phase lifecycle: a Builder accumulates descriptors during
// startup, then Build freezes them into an immutable Registry. Nothing can
// be registered or removed after Build, which is what makes concurrent
// reads safe without locks.
package registry

import (
	"errors"
	"fmt"

	"github.com/humcp/humcp/internal/schema"
)

// ErrDuplicate reports a second registration under an already-taken name.
// It is a startup error: the process must not reach serving state.
var ErrDuplicate = errors.New("duplicate tool name")

// ErrNotFound reports a lookup for a name the registry does not hold.
var ErrNotFound = errors.New("tool not found")

// Registry is the frozen name → descriptor index. Insertion order is
// preserved both across categories and within each category.
type Registry struct {
	byName     map[string]schema.Descriptor
	order      []string
	byCategory map[string][]string
	categories []string
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (schema.Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return schema.Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return d, nil
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }

// Names returns all tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Categories returns all category names in first-seen order.
func (r *Registry) Categories() []string {
	return append([]string(nil), r.categories...)
}

// ListByCategory returns the descriptors of one category in registration
// order. An unknown category yields an empty slice.
func (r *Registry) ListByCategory(category string) []schema.Descriptor {
	names := r.byCategory[category]
	out := make([]schema.Descriptor, 0, len(names))
	for _, n := range names {
		out = append(out, r.byName[n])
	}
	return out
}

// All returns every descriptor grouped by category, in first-seen category
// order and registration order within each group.
func (r *Registry) All() map[string][]schema.Descriptor {
	out := make(map[string][]schema.Descriptor, len(r.categories))
	for _, c := range r.categories {
		out[c] = r.ListByCategory(c)
	}
	return out
}

// Builder accumulates descriptors during the init phase.
// Call Build to produce the immutable Registry ready for serving.
type Builder struct {
	byName     map[string]schema.Descriptor
	order      []string
	byCategory map[string][]string
	categories []string
}

// NewBuilder returns a fresh Builder.
func NewBuilder() *Builder {
	return &Builder{
		byName:     make(map[string]schema.Descriptor),
		byCategory: make(map[string][]string),
	}
}

// Register adds a descriptor. A name collision or a structurally invalid
// descriptor is an error; callers treat it as fatal and abort startup.
func (b *Builder) Register(d schema.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := b.byName[d.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, d.Name)
	}
	if d.Category == "" {
		d.Category = "uncategorized"
	}
	b.byName[d.Name] = d
	b.order = append(b.order, d.Name)
	if _, seen := b.byCategory[d.Category]; !seen {
		b.categories = append(b.categories, d.Category)
	}
	b.byCategory[d.Category] = append(b.byCategory[d.Category], d.Name)
	return nil
}

// Build produces the frozen Registry. The builder's internal maps are copied
// so later misuse of the builder cannot reach the registry.
func (b *Builder) Build() *Registry {
	byName := make(map[string]schema.Descriptor, len(b.byName))
	for k, v := range b.byName {
		byName[k] = v
	}
	byCategory := make(map[string][]string, len(b.byCategory))
	for k, v := range b.byCategory {
		byCategory[k] = append([]string(nil), v...)
	}
	return &Registry{
		byName:     byName,
		order:      append([]string(nil), b.order...),
		byCategory: byCategory,
		categories: append([]string(nil), b.categories...),
	}
}

// Package catalog implements manifest-driven tool discovery. Enumeration is
// separated from loading: a manifest lists the sources first, then each
// source is loaded exactly once, in manifest order, so startup logs are
// reproducible and a load failure is attributable to a specific source.
package catalog

import (
	"fmt"
	"log/slog"

	"github.com/humcp/humcp/internal/schema"
)

// Source is one loadable unit of tools. Name doubles as the default
// category for descriptors that do not declare one, mirroring how a tool's
// source grouping names its category.
type Source struct {
	Name string
	Load func() ([]schema.Descriptor, error)
}

// Discover loads every source once and returns the collected candidate
// descriptors in discovery order. Any source that fails to load aborts
// discovery: a partially loaded catalog is never served.
func Discover(sources []Source) ([]schema.Descriptor, error) {
	var candidates []schema.Descriptor
	for _, src := range sources {
		if src.Load == nil {
			return nil, fmt.Errorf("source %q has no loader", src.Name)
		}
		ds, err := src.Load()
		if err != nil {
			return nil, fmt.Errorf("load source %q: %w", src.Name, err)
		}
		for _, d := range ds {
			if d.Category == "" {
				d.Category = src.Name
			}
			candidates = append(candidates, d)
		}
		slog.Debug("Loaded tool source", "source", src.Name, "tools", len(ds))
	}
	slog.Info("Discovered tools", "sources", len(sources), "candidates", len(candidates))
	return candidates, nil
}

// Package tools hosts the builtin tool packs and the discovery manifest
// that enumerates them. Each pack is a catalog source; the source name is
// the default category for its descriptors.
package tools

import (
	"github.com/humcp/humcp/internal/catalog"
	"github.com/humcp/humcp/internal/config"
	"github.com/humcp/humcp/internal/schema"
)

// BuiltinSources returns the discovery manifest for the builtin packs.
// Order here is discovery order; keep it stable so startup logs are
// reproducible.
func BuiltinSources(cfg *config.Config) []catalog.Source {
	workspace := cfg.WorkspacePath()
	allowedDir := ""
	if cfg.Tools.RestrictToWorkspace {
		allowedDir = workspace
	}

	return []catalog.Source{
		{
			Name: "local",
			Load: func() ([]schema.Descriptor, error) {
				var ds []schema.Descriptor
				ds = append(ds, calculatorTools()...)
				ds = append(ds, shellTools(workspace, cfg.Tools.Exec.Timeout, cfg.Tools.RestrictToWorkspace)...)
				ds = append(ds, filesystemTools(workspace, allowedDir)...)
				return ds, nil
			},
		},
		{
			Name: "data",
			Load: func() ([]schema.Descriptor, error) {
				return csvTools(cfg.Tools.CSV.Files), nil
			},
		},
		{
			Name: "search",
			Load: func() ([]schema.Descriptor, error) {
				return webTools(cfg.Tools.Web.Search.APIKey, cfg.Tools.Web.Search.MaxResults), nil
			},
		},
	}
}

package filter

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where Load looks when no path is configured.
const DefaultConfigPath = "config/tools.yaml"

// Load reads a filter rule from a YAML document. A missing file or an
// empty document means admit-all. A document that fails to parse, or a
// rule with malformed patterns, is a startup error.
func Load(path string) (Rule, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No filter config, admitting all tools", "path", path)
			return Rule{}, nil
		}
		return Rule{}, fmt.Errorf("read filter config %s: %w", path, err)
	}

	var rule Rule
	if err := yaml.Unmarshal(data, &rule); err != nil {
		return Rule{}, fmt.Errorf("parse filter config %s: %w", path, err)
	}
	if err := rule.Validate(); err != nil {
		return Rule{}, fmt.Errorf("filter config %s: %w", path, err)
	}
	slog.Info("Loaded filter config", "path", path)
	return rule, nil
}

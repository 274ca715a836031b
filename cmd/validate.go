package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/humcp/humcp/internal/catalog"
	"github.com/humcp/humcp/internal/config"
	"github.com/humcp/humcp/internal/filter"
	"github.com/humcp/humcp/internal/tools"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the tool filter config against the discovered catalog",
	RunE:  runValidate,
}

func runValidate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPathFlag)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	candidates, err := catalog.Discover(tools.BuiltinSources(cfg))
	if err != nil {
		return fmt.Errorf("discovery: %w", err)
	}

	rule, err := filter.Load(cfg.FilterPath)
	if err != nil {
		return err
	}

	warnings, err := rule.ValidateAgainst(candidates)
	for _, w := range warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if err != nil {
		return err
	}

	admitted := rule.Apply(candidates)
	fmt.Printf("ok: %d/%d tools admitted\n", len(admitted), len(candidates))
	return nil
}

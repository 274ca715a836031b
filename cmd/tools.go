package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/humcp/humcp/internal/config"
	"github.com/humcp/humcp/internal/dependency"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the admitted tools, grouped by category",
	RunE:  runTools,
}

func runTools(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPathFlag)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	reg := container.Registry()
	fmt.Printf("%d tools in %d categories\n\n", reg.Len(), len(reg.Categories()))
	for _, category := range reg.Categories() {
		fmt.Printf("%s:\n", category)
		for _, d := range reg.ListByCategory(category) {
			fmt.Printf("  %-28s %s\n", d.Name, d.Summary)
		}
		fmt.Println()
	}
	return nil
}

// Package cmd implements the humcp CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

// configPathFlag overrides the default config file location for all
// subcommands.
var configPathFlag string

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "humcp",
	Short: "humcp is a tool registry server with REST and MCP surfaces",
	Long: "humcp hosts a catalog of schema-described tools and exposes it " +
		"through auto-generated REST endpoints and a structured invocation protocol.",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Config file path (default ~/.humcp/config.json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(validateCmd)
}

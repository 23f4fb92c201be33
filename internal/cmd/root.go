package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for pathrunner
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pathrunner",
		Short: "Walk project trees and run commands over the matched files",
		Long: `Pathrunner locates the project root above each starting path, filters
the tree through the root's ignore file and an inclusion rule, and runs
a command over every matched file on a pool of parallel workers.

Configuration is loaded from .pathrunner/config.yaml if present.
CLI flags override configuration file settings.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewWalkCommand())
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

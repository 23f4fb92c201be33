package cmd

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/harrison/pathrunner"
	"github.com/harrison/pathrunner/internal/config"
	"github.com/spf13/cobra"
)

// NewWalkCommand creates the walk command
func NewWalkCommand() *cobra.Command {
	var (
		configPath string
		ignoreFile string
		sorted     bool
	)

	cmd := &cobra.Command{
		Use:   "walk [path ...]",
		Short: "List the files a run would cover",
		Long: `Walk each starting path and print every file that passes the ignore
and inclusion filters, one per line. With no arguments the current
directory is walked.

Filesystem enumeration order is not guaranteed; use --sort when a
stable listing is needed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ignore-file") {
				cfg.IgnoreFile = ignoreFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			runner := newRunner(cfg)

			paths := args
			if len(paths) == 0 {
				paths = []string{"."}
			}

			var files []string
			for _, path := range paths {
				for file, err := range runner.Walk(path) {
					if err != nil {
						return err
					}
					files = append(files, file)
				}
			}

			if sorted {
				sort.Strings(files)
			}
			for _, file := range files {
				fmt.Fprintln(cmd.OutOrStdout(), file)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default .pathrunner/config.yaml)")
	cmd.Flags().StringVar(&ignoreFile, "ignore-file", "", "ignore file name looked up in the project root")
	cmd.Flags().BoolVar(&sorted, "sort", false, "sort the listing")

	return cmd
}

// loadConfig loads the explicit config file when given, otherwise the
// conventional per-project location.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	return config.LoadConfigFromDir(".")
}

// newRunner builds a pathrunner.Runner from the effective configuration.
func newRunner(cfg *config.Config) *pathrunner.Runner {
	workers := cfg.MaxWorkers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	return pathrunner.NewRunner(
		pathrunner.WithRootMarkers(cfg.RootMarkers...),
		pathrunner.WithIgnoreFile(cfg.IgnoreFile),
		pathrunner.WithIncludeExtensions(cfg.IncludeExtensions...),
		pathrunner.WithExecutorFactory(func() pathrunner.Executor {
			return pathrunner.NewWorkerExecutor(workers)
		}),
	)
}

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrison/pathrunner/internal/history"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	var (
		configPath string
		dbPath     string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `List recent runs recorded to the history database, newest first.
With a run ID argument, show that run's per-file results instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			path := cfg.History.DBPath
			if cmd.Flags().Changed("db") {
				path = dbPath
			}

			store, err := history.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()

			if len(args) == 1 {
				results, err := store.RunResults(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(results) == 0 {
					return fmt.Errorf("no results for run %s", args[0])
				}
				for _, r := range results {
					status := "ok"
					if !r.OK {
						status = "fail"
					}
					fmt.Fprintf(out, "%-4s %s (%s)\n", status, r.Path, r.Duration.Round(time.Millisecond))
					if !r.OK && r.Error != "" {
						fmt.Fprintf(out, "     %s\n", r.Error)
					}
				}
				return nil
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "no recorded runs")
				return nil
			}

			for _, run := range runs {
				fmt.Fprintf(out, "%s  %s  %d file(s), %d failed, %s  [%s]  %s\n",
					run.ID,
					run.StartedAt.Format("2006-01-02 15:04:05"),
					run.TotalFiles, run.Failed,
					run.Duration.Round(time.Millisecond),
					run.Command,
					strings.Join(run.Roots, " "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default .pathrunner/config.yaml)")
	cmd.Flags().StringVar(&dbPath, "db", "", "history database path (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")

	return cmd
}

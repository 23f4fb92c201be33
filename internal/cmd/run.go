package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/harrison/pathrunner"
	"github.com/harrison/pathrunner/internal/filelock"
	"github.com/harrison/pathrunner/internal/history"
	"github.com/harrison/pathrunner/internal/logger"
	"github.com/spf13/cobra"
)

// fileResult is the recorded outcome of the command for one file. A
// non-zero exit is data, not a task fault: the batch keeps going and the
// failure shows up in the summary, the JSON export, and the history.
type fileResult struct {
	OK       bool          `json:"ok"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var (
		configPath string
		ignoreFile string
		execute    string
		maxWorkers int
		logLevel   string
		output     string
		noHistory  bool
	)

	cmd := &cobra.Command{
		Use:   "run --exec <command> [path ...]",
		Short: "Run a command over every matched file",
		Long: `Walk each starting path, gather all matched files, and run the given
command once per file on a pool of parallel workers. The token {} in the
command is replaced with the file path; without it the path is appended
as the last argument.

All walked files are batched into a single worker-pool invocation, so
pool startup is paid once however many starting paths are given.

Examples:
  # Count lines of every Python file in the project
  pathrunner run --exec "wc -l {}"

  # Lint two trees with eight workers
  pathrunner run --exec "flake8 {}" --max-workers 8 src/ tools/

  # Export per-file results as JSON
  pathrunner run --exec "black --check {}" --output results.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(execute) == "" {
				return fmt.Errorf("--exec is required")
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			var workersFlag *int
			var levelFlag *string
			if cmd.Flags().Changed("max-workers") {
				workersFlag = &maxWorkers
			}
			if cmd.Flags().Changed("log-level") {
				levelFlag = &logLevel
			}
			var ignoreFlag *string
			if cmd.Flags().Changed("ignore-file") {
				ignoreFlag = &ignoreFile
			}
			cfg.MergeWithFlags(workersFlag, levelFlag, ignoreFlag)
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			runner := newRunner(cfg)

			paths := args
			if len(paths) == 0 {
				paths = []string{"."}
			}

			started := time.Now()
			log.Debugf("walking %s", strings.Join(paths, ", "))

			results, err := pathrunner.WalkAndRunWith(cmd.Context(), runner, paths,
				runFileCommand(cmd.Context(), execute))
			if err != nil {
				var te *pathrunner.TaskError
				if errors.As(err, &te) {
					return fmt.Errorf("command failed to start for %s: %w", te.Path, te.Err)
				}
				return err
			}
			duration := time.Since(started)

			failed := 0
			for path, result := range results {
				if result.OK {
					log.Debugf("ok   %s", path)
				} else {
					failed++
					log.Warnf("fail %s: %s", path, result.Error)
				}
			}
			log.LogSummary(logger.Summary{Total: len(results), Failed: failed, Duration: duration})

			if output != "" {
				if err := exportResults(output, results); err != nil {
					return err
				}
				log.Infof("wrote results to %s", output)
			}

			if cfg.History.Enabled && !noHistory {
				if err := recordHistory(cmd.Context(), cfg.History.DBPath, cfg.History.KeepRuns,
					paths, execute, results, failed, started, duration); err != nil {
					// History is best-effort bookkeeping; the run itself
					// succeeded.
					log.Warnf("failed to record history: %v", err)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default .pathrunner/config.yaml)")
	cmd.Flags().StringVar(&ignoreFile, "ignore-file", "", "ignore file name looked up in the project root")
	cmd.Flags().StringVar(&execute, "exec", "", "command to run once per file ({} is replaced with the path)")
	cmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "maximum concurrent commands (0 = number of CPUs)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log verbosity (trace, debug, info, warn, error)")
	cmd.Flags().StringVar(&output, "output", "", "write per-file results to this JSON file")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "skip recording this run to history")

	return cmd
}

// runFileCommand binds the --exec template into the per-file function.
// Exit failures become fileResult data; failures to start the command at
// all (e.g. binary not found) surface as task errors and abort the run.
func runFileCommand(ctx context.Context, template string) pathrunner.Func[fileResult] {
	return func(path string) (fileResult, error) {
		argv := buildArgv(template, path)

		started := time.Now()
		command := exec.CommandContext(ctx, argv[0], argv[1:]...)
		out, err := command.CombinedOutput()
		result := fileResult{
			OK:       err == nil,
			Output:   strings.TrimSpace(string(out)),
			Duration: time.Since(started),
		}

		if err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return fileResult{}, err
			}
			result.Error = err.Error()
		}
		return result, nil
	}
}

// buildArgv splits the command template and substitutes {} with the
// path, appending the path when no placeholder is present.
func buildArgv(template, path string) []string {
	fields := strings.Fields(template)
	substituted := false
	argv := make([]string, 0, len(fields)+1)
	for _, field := range fields {
		if field == "{}" {
			argv = append(argv, path)
			substituted = true
			continue
		}
		argv = append(argv, strings.ReplaceAll(field, "{}", path))
		if strings.Contains(field, "{}") {
			substituted = true
		}
	}
	if !substituted {
		argv = append(argv, path)
	}
	return argv
}

// exportResults writes the result mapping as JSON under a file lock, so
// concurrent invocations sharing an output path do not interleave.
func exportResults(path string, results map[string]fileResult) error {
	type entry struct {
		Path string `json:"path"`
		fileResult
	}

	entries := make([]entry, 0, len(results))
	for p, r := range results {
		entries = append(entries, entry{Path: p, fileResult: r})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return filelock.LockAndWrite(path, append(data, '\n'))
}

// recordHistory persists the run and prunes old entries.
func recordHistory(ctx context.Context, dbPath string, keep int, roots []string, command string,
	results map[string]fileResult, failed int, started time.Time, duration time.Duration,
) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records := make([]history.Result, 0, len(results))
	for path, result := range results {
		records = append(records, history.Result{
			Path:     path,
			OK:       result.OK,
			Output:   result.Output,
			Error:    result.Error,
			Duration: result.Duration,
		})
	}

	_, err = store.RecordRun(ctx, history.Run{
		StartedAt:  started,
		Roots:      roots,
		Command:    command,
		TotalFiles: len(results),
		Failed:     failed,
		Duration:   duration,
	}, records)
	if err != nil {
		return err
	}

	return store.Prune(ctx, keep)
}

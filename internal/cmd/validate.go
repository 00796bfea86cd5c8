package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/docval/internal/config"
	"github.com/harrison/docval/internal/executor"
	"github.com/harrison/docval/internal/extractor"
	"github.com/harrison/docval/internal/filelock"
	"github.com/harrison/docval/internal/history"
	"github.com/harrison/docval/internal/logger"
	"github.com/harrison/docval/internal/models"
	"github.com/harrison/docval/internal/report"
	"github.com/harrison/docval/internal/rules"
)

// NewValidateCommand creates and returns the validate subcommand.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Extract, execute and check documentation examples",
		Long: `Extract every example from the given files, directories or globs,
run each one in an isolated interpreter process under the configured
timeout, apply the convention rules, and print the aggregated report.

Supports multiple input modes:
  - Single file:  docval validate docs/usage.md
  - Directory:    docval validate docs/
  - Globs:        docval validate 'docs/**/*.md' src/**/*.py

Exit code: 0 when clean, 1 on any execution failure or error-severity
finding, 2 when the run itself could not be completed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args)
		},
		SilenceUsage: true,
	}

	cmd.Flags().Bool("fast", false, "skip rules that need runtime artifacts (examples still execute)")
	cmd.Flags().Duration("timeout", 0, "per-example execution timeout (overrides config)")
	cmd.Flags().Float64("tolerance", 0, "relative numeric tolerance for session output (overrides config)")
	cmd.Flags().Int("workers", 0, "concurrent executions (overrides config; 0 = NumCPU)")
	cmd.Flags().String("python", "", "interpreter binary (overrides config)")
	cmd.Flags().String("output", "", "also write the JSON report to this file")
	cmd.Flags().Bool("no-history", false, "do not record this run in the history database")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return infraFailure(err)
	}
	mergeValidateFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return infraFailure(err)
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	filelock.SetDefaultMonitor(func(path string, m filelock.LockMetrics) {
		if m.TimedOut {
			log.Warnf("gave up waiting for lock %s after %s (%d attempts)", path, m.Wait, m.Attempts)
			return
		}
		log.Debugf("acquired lock %s in %s (%d attempts)", path, m.Wait, m.Attempts)
	})
	defer filelock.SetDefaultMonitor(nil)

	fileLog, err := openRunLog(cfg)
	if err != nil {
		log.Warnf("run log disabled: %v", err)
	} else {
		defer fileLog.Close()
		log.Debugf("run log: %s", fileLog.RunFile())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fast, _ := cmd.Flags().GetBool("fast")
	rep, err := validateOnce(ctx, cfg, args, fast, log)
	if err != nil {
		if fileLog != nil {
			fileLog.Errorf("run aborted: %v", err)
		}
		return infraFailure(err)
	}

	report.WriteText(cmd.OutOrStdout(), rep)
	logRunReport(fileLog, args, rep)

	if outputPath, _ := cmd.Flags().GetString("output"); outputPath != "" {
		var buf bytes.Buffer
		if err := report.WriteJSON(&buf, rep); err != nil {
			return infraFailure(err)
		}
		if err := filelock.LockAndWrite(outputPath, buf.Bytes()); err != nil {
			return infraFailure(err)
		}
		log.Infof("wrote JSON report to %s", outputPath)
	}

	noHistory, _ := cmd.Flags().GetBool("no-history")
	if cfg.History.Enabled && !noHistory {
		recordHistory(ctx, cfg, rep, log)
	}

	if !rep.Clean() {
		return contentFailure()
	}
	return nil
}

// validateOnce runs the full pipeline: discover, extract, execute, check.
func validateOnce(ctx context.Context, cfg *config.Config, paths []string, fast bool, log *logger.ConsoleLogger) (*models.Report, error) {
	files, err := extractor.DiscoverInputs(paths)
	if err != nil {
		return nil, err
	}
	log.Debugf("discovered %d documentation files", len(files))

	extraction, err := extractor.New().ExtractFiles(files)
	if err != nil {
		return nil, err
	}
	log.Infof("extracted %d examples from %d files", len(extraction.Examples), len(files))
	for _, w := range extraction.Warnings {
		log.Warnf("extraction: %s", w)
	}

	runner, err := executor.NewRunner(cfg.Python, cfg.Timeout, cfg.Tolerance)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	pool := executor.NewPool(runner, cfg.Workers, log)
	results, err := pool.ExecuteAll(ctx, extraction.Examples)
	if err != nil {
		return nil, err
	}

	ruleSet := rules.DefaultRules()
	if fast {
		ruleSet = rules.StaticOnly(ruleSet)
	}

	outcomes := make([]models.ExampleOutcome, len(extraction.Examples))
	for i, ex := range extraction.Examples {
		outcomes[i] = models.ExampleOutcome{
			Example:    ex,
			Result:     results[i],
			Violations: rules.Apply(ruleSet, ex, results[i]),
		}
	}

	return report.Build(outcomes, extraction.Warnings), nil
}

// openRunLog creates the per-run log file under the configured log
// directory, defaulting to logs/ in the docval home.
func openRunLog(cfg *config.Config) (*logger.FileLogger, error) {
	dir := cfg.LogDir
	if dir == "" {
		home, err := config.Home()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, "logs")
	}
	return logger.NewFileLoggerWithDirAndLevel(dir, cfg.LogLevel)
}

// logRunReport records the run's outcome in the run log file. The run log
// is a convenience trail, never the report of record.
func logRunReport(fileLog *logger.FileLogger, paths []string, rep *models.Report) {
	if fileLog == nil {
		return
	}

	s := rep.Summary
	fileLog.Infof("run %s over %s", rep.RunID, strings.Join(paths, " "))
	fileLog.Infof("validated %d examples: %d passed, %d failed, %d timed out",
		s.TotalExamples, s.Successes, s.Failures, s.TimedOut)
	for _, out := range rep.Results {
		if out.Result.Succeeded() {
			continue
		}
		fileLog.Errorf("%s [%s] %s: %s",
			out.Example.Location(), out.Example.Kind, out.Result.ErrorKind, out.Result.ErrorMessage)
	}
	if rep.Clean() {
		fileLog.Infof("result: PASS")
	} else {
		fileLog.Infof("result: FAIL")
	}
}

// mergeValidateFlags applies explicitly-set flags over the file config.
func mergeValidateFlags(cmd *cobra.Command, cfg *config.Config) {
	var timeout *time.Duration
	var tolerance *float64
	var workers *int
	var python *string

	if cmd.Flags().Changed("timeout") {
		v, _ := cmd.Flags().GetDuration("timeout")
		timeout = &v
	}
	if cmd.Flags().Changed("tolerance") {
		v, _ := cmd.Flags().GetFloat64("tolerance")
		tolerance = &v
	}
	if cmd.Flags().Changed("workers") {
		v, _ := cmd.Flags().GetInt("workers")
		workers = &v
	}
	if cmd.Flags().Changed("python") {
		v, _ := cmd.Flags().GetString("python")
		python = &v
	}
	cfg.MergeWithFlags(timeout, tolerance, workers, python)
}

// recordHistory persists the run. History problems are reported but never
// change the validation verdict.
func recordHistory(ctx context.Context, cfg *config.Config, rep *models.Report, log *logger.ConsoleLogger) {
	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		log.Warnf("history disabled for this run: %v", err)
		return
	}
	defer store.Close()

	if err := store.RecordRun(ctx, rep); err != nil && !errors.Is(err, context.Canceled) {
		log.Warnf("failed to record run: %v", err)
		return
	}
	if pruned, err := store.Prune(ctx, cfg.History.KeepRuns); err != nil {
		log.Warnf("failed to prune history: %v", err)
	} else if pruned > 0 {
		log.Debugf("pruned %d old runs", pruned)
	}
}

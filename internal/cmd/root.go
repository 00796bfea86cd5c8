// Package cmd wires the docval CLI: extract, validate and history
// subcommands over the extraction/execution/rules pipeline.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/docval/internal/config"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// ExitError carries the process exit code for a completed command.
// Code 1 means the documentation failed validation; code 2 means the
// tool itself could not finish the run.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// contentFailure signals exit code 1: the run finished but the
// documentation is not clean. The report has already been printed.
func contentFailure() error {
	return &ExitError{Code: 1}
}

// infraFailure signals exit code 2: the run could not be completed.
func infraFailure(err error) error {
	return &ExitError{Code: 2, Err: err}
}

// NewRootCommand creates and returns the root cobra command for docval.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docval",
		Short: "Validate executable examples embedded in documentation",
		Long: `docval extracts code examples from Markdown, reStructuredText and
Python docstrings, executes each one in an isolated interpreter process,
checks the results against domain convention rules, and aggregates
everything into a single report.

Exit code: 0 when all examples pass, 1 when any example fails or an
error-severity finding is raised, 2 when the tool itself fails.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text; errors
		// are printed by main with the proper exit code.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "config file (default .docval/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "log verbosity: trace, debug, info, warn, error")

	cmd.AddCommand(NewExtractCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// loadConfig resolves the effective configuration for a command: the
// --config file when given, .docval/config.yaml otherwise, with the
// --log-level flag applied on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadConfig(path)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

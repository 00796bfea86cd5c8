package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/harrison/docval/internal/history"
)

// NewHistoryCommand creates and returns the history subcommand group.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded validation runs",
		Long: `Query the run-history database written by validate. Runs are
recorded with their summary counts plus one row per failed example, so
trends can be inspected without keeping old report files around.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryFailuresCommand())
	cmd.AddCommand(newHistoryFilesCommand())

	return cmd
}

// openHistory opens the configured history database.
func openHistory(cmd *cobra.Command) (*history.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return history.NewStore(cfg.History.DBPath)
}

func newHistoryListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return infraFailure(err)
			}
			defer store.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return infraFailure(err)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs.")
				return nil
			}

			for _, run := range runs {
				verdict := "FAIL"
				if run.Clean {
					verdict = "PASS"
				}
				fmt.Fprintf(out, "%s  %s  %s  %d examples, %d failed, %d timed out, %d error findings\n",
					run.GeneratedAt.Format("2006-01-02 15:04:05"), run.RunID, verdict,
					run.TotalExamples, run.Failures, run.TimedOut, run.ErrorViolations)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 10, "maximum number of runs to show (0 = all)")
	return cmd
}

func newHistoryFailuresCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "failures <run-id>",
		Short: "Show the failed examples of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return infraFailure(err)
			}
			defer store.Close()

			failures, err := store.GetFailures(cmd.Context(), args[0])
			if err != nil {
				return infraFailure(err)
			}

			out := cmd.OutOrStdout()
			if len(failures) == 0 {
				fmt.Fprintln(out, "No failures recorded for this run.")
				return nil
			}
			for _, f := range failures {
				fmt.Fprintf(out, "%s:%d-%d  [%s]  %s  %s\n",
					f.SourceFile, f.StartLine, f.EndLine, f.Kind, f.ErrorKind, f.ErrorMessage)
			}
			return nil
		},
		SilenceUsage: true,
	}
}

func newHistoryFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Rank source files by total failures across retained runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd)
			if err != nil {
				return infraFailure(err)
			}
			defer store.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			counts, err := store.TopFailingFiles(cmd.Context(), limit)
			if err != nil {
				return infraFailure(err)
			}

			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintln(out, "No recorded failures.")
				return nil
			}

			type entry struct {
				file string
				n    int
			}
			entries := make([]entry, 0, len(counts))
			for file, n := range counts {
				entries = append(entries, entry{file, n})
			}
			sort.Slice(entries, func(i, j int) bool {
				if entries[i].n != entries[j].n {
					return entries[i].n > entries[j].n
				}
				return entries[i].file < entries[j].file
			})

			for _, e := range entries {
				fmt.Fprintf(out, "%4d  %s\n", e.n, e.file)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 10, "maximum number of files to show")
	return cmd
}

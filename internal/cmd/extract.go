package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/docval/internal/extractor"
	"github.com/harrison/docval/internal/filelock"
)

// NewExtractCommand creates and returns the extract subcommand.
func NewExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <path>...",
		Short: "List the examples found in documentation without running them",
		Long: `Extract every example from the given files, directories or globs and
print what was found: provenance, kind and size. Nothing is executed.

Useful for checking what validate would run, and for piping the example
inventory into other tools with --json.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args)
		},
		SilenceUsage: true,
	}

	cmd.Flags().Bool("json", false, "emit the examples as JSON")
	cmd.Flags().String("output", "", "also write the JSON inventory to this file")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	files, err := extractor.DiscoverInputs(args)
	if err != nil {
		return infraFailure(err)
	}

	extraction, err := extractor.New().ExtractFiles(files)
	if err != nil {
		return infraFailure(err)
	}

	out := cmd.OutOrStdout()

	if outputPath, _ := cmd.Flags().GetString("output"); outputPath != "" {
		data, err := json.MarshalIndent(extraction, "", "  ")
		if err != nil {
			return infraFailure(err)
		}
		if err := filelock.LockAndWrite(outputPath, append(data, '\n')); err != nil {
			return infraFailure(err)
		}
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(extraction); err != nil {
			return infraFailure(err)
		}
		return nil
	}

	for _, ex := range extraction.Examples {
		lines := ex.EndLine - ex.StartLine + 1
		fmt.Fprintf(out, "%s  %s  %d line%s\n", ex.Location(), ex.Kind, lines, plural(lines))
	}
	fmt.Fprintf(out, "\n%d example%s in %d file%s",
		len(extraction.Examples), plural(len(extraction.Examples)), len(files), plural(len(files)))
	if len(extraction.Warnings) > 0 {
		fmt.Fprintf(out, ", %d extraction warning%s", len(extraction.Warnings), plural(len(extraction.Warnings)))
	}
	fmt.Fprintln(out)

	for _, w := range extraction.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}

	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

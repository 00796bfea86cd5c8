package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/harrison/docval/internal/models"
)

var (
	failColor    = color.New(color.FgRed, color.Bold)
	passColor    = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
)

func severityColor(s models.Severity) *color.Color {
	switch s {
	case models.SeverityError:
		return errorColor
	case models.SeverityWarning:
		return warningColor
	default:
		return infoColor
	}
}

// WriteText renders the human-readable report: a one-line summary,
// execution failures, rule findings grouped by severity, extraction
// warnings, and the verdict. Colors are controlled globally through
// color.NoColor, which the CLI sets from TTY detection.
func WriteText(w io.Writer, r *models.Report) {
	s := r.Summary
	fmt.Fprintf(w, "Validated %d example%s: %d passed, %d failed, %d timed out (%.1f%% success)\n",
		s.TotalExamples, plural(s.TotalExamples), s.Successes, s.Failures, s.TimedOut, s.SuccessRate*100)

	writeOutcomes(w, r)
	writeFailures(w, r)
	writeFindings(w, r)
	writeWarnings(w, r)

	fmt.Fprintln(w)
	if r.Clean() {
		passColor.Fprintln(w, "Result: PASS")
	} else {
		failColor.Fprintln(w, "Result: FAIL")
	}
}

// writeOutcomes lists every example with its status, one line each.
// Nothing is dropped from the text view, passing examples included.
func writeOutcomes(w io.Writer, r *models.Report) {
	if len(r.Results) == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, out := range r.Results {
		switch out.Result.Status {
		case models.StatusSuccess:
			passColor.Fprint(w, "  pass  ")
		case models.StatusTimedOut:
			failColor.Fprint(w, "  time  ")
		default:
			failColor.Fprint(w, "  FAIL  ")
		}
		fmt.Fprintf(w, "%s [%s]", out.Example.Location(), out.Example.Kind)
		if out.Result.ErrorKind != models.ErrKindNone {
			fmt.Fprintf(w, " %s", out.Result.ErrorKind)
		}
		if n := len(out.Violations); n > 0 {
			fmt.Fprintf(w, " (%d finding%s)", n, plural(n))
		}
		fmt.Fprintln(w)
	}
}

func writeFailures(w io.Writer, r *models.Report) {
	var failed []models.ExampleOutcome
	for _, out := range r.Results {
		if !out.Result.Succeeded() {
			failed = append(failed, out)
		}
	}
	if len(failed) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Execution failures:")
	for _, out := range failed {
		errorColor.Fprintf(w, "  %s [%s] %s\n", out.Example.Location(), out.Example.Kind, out.Result.ErrorKind)
		if out.Result.ErrorMessage != "" {
			fmt.Fprintf(w, "      %s\n", out.Result.ErrorMessage)
		}
	}
}

func writeFindings(w io.Writer, r *models.Report) {
	total := 0
	for _, out := range r.Results {
		total += len(out.Violations)
	}
	if total == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rule findings:")
	// Severity groups keep the most actionable findings on top; within a
	// group, discovery order.
	for _, severity := range []models.Severity{models.SeverityError, models.SeverityWarning, models.SeverityInfo} {
		for _, out := range r.Results {
			for _, v := range out.Violations {
				if v.Severity != severity {
					continue
				}
				severityColor(severity).Fprintf(w, "  %s %s %s\n", out.Example.Location(), severity, v.RuleID)
				fmt.Fprintf(w, "      %s\n", v.Message)
				if v.Evidence != "" {
					dimColor.Fprintf(w, "      > %s\n", v.Evidence)
				}
			}
		}
	}
}

func writeWarnings(w io.Writer, r *models.Report) {
	if len(r.Warnings) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Extraction warnings:")
	for _, warn := range r.Warnings {
		warningColor.Fprintf(w, "  %s:%d %s\n", warn.SourceFile, warn.Line, warn.Message)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

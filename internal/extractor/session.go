package extractor

import (
	"strings"

	"github.com/harrison/docval/internal/models"
)

// parsedSession is the outcome of parsing one doctest-style block: the
// reassembled code with prompt markers stripped, and the expected output
// lines that followed the prompts.
type parsedSession struct {
	code     string
	expected string
}

// parseSession parses a doctest-style interactive block. lines are the raw
// block lines and baseLine is the 1-based file line number of lines[0],
// used for warning provenance.
//
// Returns nil when the block holds no prompt lines at all (pure narrative,
// not an example) or when it is malformed; malformed blocks additionally
// produce a warning. Parsing never fails hard: a bad block is skipped and
// extraction continues.
func parseSession(file string, lines []string, baseLine int) (*parsedSession, []models.Warning) {
	var codeLines []string
	var outputLines []string
	var warnings []models.Warning
	sawPrompt := false

	for i, raw := range lines {
		trimmed := strings.TrimLeft(raw, " \t")

		switch {
		case strings.HasPrefix(trimmed, ">>>"):
			sawPrompt = true
			codeLines = append(codeLines, stripPrompt(trimmed, ">>>"))

		case strings.HasPrefix(trimmed, "..."):
			// A continuation marker is only valid after a prompt.
			if !sawPrompt {
				warnings = append(warnings, models.Warning{
					SourceFile: file,
					Line:       baseLine + i,
					Message:    "continuation line without a preceding prompt; block skipped",
				})
				return nil, warnings
			}
			codeLines = append(codeLines, stripPrompt(trimmed, "..."))

		case strings.TrimSpace(trimmed) == "":
			// Blank lines separate statements; doctest treats them as
			// output terminators, so nothing accumulates.

		default:
			// Non-prompt, non-blank line: expected output if a prompt
			// came before it, narrative otherwise.
			if sawPrompt {
				outputLines = append(outputLines, strings.TrimRight(trimmed, " \t"))
			}
		}
	}

	if !sawPrompt {
		return nil, warnings
	}

	code := strings.Join(codeLines, "\n")
	if strings.TrimSpace(code) == "" {
		warnings = append(warnings, models.Warning{
			SourceFile: file,
			Line:       baseLine,
			Message:    "session block has prompts but no code; block skipped",
		})
		return nil, warnings
	}

	return &parsedSession{
		code:     code + "\n",
		expected: strings.Join(outputLines, "\n"),
	}, warnings
}

// stripPrompt removes a prompt or continuation marker plus its single
// following space, if present.
func stripPrompt(line, marker string) string {
	rest := strings.TrimPrefix(line, marker)
	return strings.TrimPrefix(rest, " ")
}

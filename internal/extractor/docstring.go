package extractor

import (
	"strings"

	"github.com/harrison/docval/internal/models"
)

// extractDocstrings scans a Python module for triple-quoted docstrings and
// emits one docstring-session example per doctest block found inside them.
//
// The scan is deliberately line-based rather than a full Python parse:
// docstring examples live at a fixed lexical shape (triple quotes, prompt
// prefixes) and a resilient scanner degrades to warnings where a parser
// would abort on the first malformed file.
func extractDocstrings(file string, content []byte) ([]models.Example, []models.Warning) {
	var examples []models.Example
	var warnings []models.Warning

	lines := strings.Split(string(content), "\n")

	inDocstring := false
	delim := ""
	var docLines []string
	docStart := 0

	flush := func() {
		ex, w := sessionsFromDocstring(file, docLines, docStart)
		examples = append(examples, ex...)
		warnings = append(warnings, w...)
		docLines = nil
	}

	for i, line := range lines {
		lineNo := i + 1

		if !inDocstring {
			d, rest, ok := openingDelimiter(line)
			if !ok {
				continue
			}
			// Single-line docstring: opener and closer on the same line.
			if idx := strings.Index(rest, d); idx >= 0 {
				continue
			}
			inDocstring = true
			delim = d
			docStart = lineNo + 1
			continue
		}

		if strings.Contains(line, delim) {
			inDocstring = false
			flush()
			continue
		}

		docLines = append(docLines, line)
	}

	if inDocstring {
		warnings = append(warnings, models.Warning{
			SourceFile: file,
			Line:       docStart - 1,
			Message:    "unterminated docstring; trailing content skipped",
		})
	}

	return examples, warnings
}

// openingDelimiter detects a triple-quote opener on a line, tolerating
// string prefixes such as r""" or u'''. Returns the delimiter, the text
// after it, and whether one was found.
func openingDelimiter(line string) (string, string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	trimmed = strings.TrimLeft(trimmed, "rRuUbB")

	for _, d := range []string{`"""`, `'''`} {
		if strings.HasPrefix(trimmed, d) {
			return d, trimmed[len(d):], true
		}
	}
	return "", "", false
}

// sessionsFromDocstring splits a docstring body into blank-line-separated
// blocks and parses each block that begins with a doctest prompt. Blocks
// with no prompt lines are narrative and emit nothing.
func sessionsFromDocstring(file string, docLines []string, baseLine int) ([]models.Example, []models.Warning) {
	var examples []models.Example
	var warnings []models.Warning

	blockStart := -1
	var block []string

	emit := func(end int) {
		if blockStart < 0 {
			return
		}
		// Narrative headers ("Examples", underlines) often sit in the
		// same block as the prompts; parse from the first prompt or
		// continuation marker so parseSession still sees an orphan
		// continuation as malformed.
		if p := firstMarkerLine(block); p >= 0 {
			startLine := baseLine + blockStart + p
			parsed, w := parseSession(file, block[p:], startLine)
			warnings = append(warnings, w...)
			if parsed != nil {
				examples = append(examples, models.Example{
					SourceFile:     file,
					StartLine:      startLine,
					EndLine:        baseLine + end,
					Kind:           models.KindDocstringSession,
					CodeText:       parsed.code,
					ExpectedOutput: parsed.expected,
				})
			}
		}
		blockStart = -1
		block = nil
	}

	for i, line := range docLines {
		if strings.TrimSpace(line) == "" {
			emit(i - 1)
			continue
		}
		if blockStart < 0 {
			blockStart = i
		}
		block = append(block, line)
	}
	emit(len(docLines) - 1)

	return examples, warnings
}

// firstMarkerLine returns the index of the first prompt or continuation
// line in a block, or -1 when the block holds neither. A block with only
// continuation markers is still returned so it can be reported as
// malformed; a block with no ">>>" anywhere and no "..." is narrative.
func firstMarkerLine(block []string) int {
	hasPrompt := false
	for _, line := range block {
		if strings.HasPrefix(strings.TrimSpace(line), ">>>") {
			hasPrompt = true
			break
		}
	}
	if !hasPrompt {
		return -1
	}
	for i, line := range block {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, ">>>") || strings.HasPrefix(t, "...") {
			return i
		}
	}
	return -1
}

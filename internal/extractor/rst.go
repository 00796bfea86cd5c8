package extractor

import (
	"regexp"
	"strings"

	"github.com/harrison/docval/internal/models"
)

// codeDirectiveRegex matches Sphinx code directives with an optional
// language argument, e.g. ".. code-block:: python".
var codeDirectiveRegex = regexp.MustCompile(`^\.\.\s+(code-block|code|sourcecode|ipython)::\s*(\S*)\s*$`)

// rstPythonLangs lists directive language arguments treated as Python.
var rstPythonLangs = map[string]bool{
	"":        true,
	"python":  true,
	"python3": true,
	"pycon":   true,
}

// extractRST pulls code regions out of a reStructuredText document. Two
// region forms are recognized:
//
//   - code directives (".. code-block:: python") with their indented body
//   - bare literal blocks introduced by "::", but only when the body is a
//     doctest transcript; arbitrary literal blocks are as likely to be
//     shell output or data as code
func extractRST(file string, content []byte) ([]models.Example, []models.Warning) {
	var examples []models.Example
	var warnings []models.Warning

	lines := strings.Split(string(content), "\n")

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		directive := codeDirectiveRegex.FindStringSubmatch(trimmed)
		literal := directive == nil && strings.HasSuffix(trimmed, "::") && trimmed != ".."

		if directive == nil && !literal {
			continue
		}
		if directive != nil && !rstPythonLangs[strings.ToLower(directive[2])] {
			continue
		}

		body, bodyStart, next := indentedBlock(lines, i)
		i = next - 1
		if len(body) == 0 {
			continue
		}

		code := dedent(body)
		startLine := bodyStart + 1
		endLine := bodyStart + len(body)

		if looksLikeSession(code) {
			parsed, sessWarnings := parseSession(file, body, startLine)
			warnings = append(warnings, sessWarnings...)
			if parsed == nil {
				continue
			}
			code = parsed.code
		} else if literal {
			// Bare literal block with no prompts: not reliably code.
			continue
		}

		if strings.TrimSpace(code) == "" {
			continue
		}

		examples = append(examples, models.Example{
			SourceFile: file,
			StartLine:  startLine,
			EndLine:    endLine,
			Kind:       models.KindProseBlock,
			CodeText:   code,
		})
	}

	return examples, warnings
}

// indentedBlock collects the indented body following the region opener at
// lines[start]. Directive option lines (":linenos:") and leading blanks are
// skipped. Returns the body lines, the 0-based index of the first body
// line, and the index scanning should resume at.
func indentedBlock(lines []string, start int) ([]string, int, int) {
	baseIndent := indentOf(lines[start])

	j := start + 1
	// Skip blank lines and directive options between opener and body.
	for j < len(lines) {
		t := strings.TrimSpace(lines[j])
		if t == "" || (strings.HasPrefix(t, ":") && strings.Count(t, ":") >= 2) {
			j++
			continue
		}
		break
	}

	if j >= len(lines) || indentOf(lines[j]) <= baseIndent {
		return nil, j, j
	}

	bodyStart := j
	end := j
	for j < len(lines) {
		if strings.TrimSpace(lines[j]) == "" {
			j++
			continue
		}
		if indentOf(lines[j]) <= baseIndent {
			break
		}
		end = j
		j++
	}

	return lines[bodyStart : end+1], bodyStart, j
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// dedent strips the common leading whitespace of all non-blank lines.
func dedent(lines []string) string {
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if in := indentOf(line); minIndent < 0 || in < minIndent {
			minIndent = in
		}
	}
	if minIndent < 0 {
		minIndent = 0
	}

	var sb strings.Builder
	for _, line := range lines {
		if len(line) >= minIndent {
			sb.WriteString(line[minIndent:])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

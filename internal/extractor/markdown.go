package extractor

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/harrison/docval/internal/models"
)

// markdownExtractor pulls fenced code blocks out of Markdown documents
// using the goldmark AST.
type markdownExtractor struct {
	markdown goldmark.Markdown
}

func newMarkdownExtractor() *markdownExtractor {
	return &markdownExtractor{
		markdown: goldmark.New(),
	}
}

// pythonFences lists the fence info strings treated as executable Python.
// An empty info string is included: unlabeled fences in scientific docs are
// overwhelmingly Python and skipping them would under-validate.
var pythonFences = map[string]bool{
	"":        true,
	"python":  true,
	"python3": true,
	"py":      true,
	"pycon":   true,
}

// extract walks the document AST and emits one prose-block example per
// Python fenced code region, with line-range provenance computed from the
// fence's source segments.
func (m *markdownExtractor) extract(file string, source []byte) ([]models.Example, []models.Warning) {
	var examples []models.Example
	var warnings []models.Warning

	doc := m.markdown.Parser().Parse(text.NewReader(source))
	index := newLineIndex(source)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		lang := strings.ToLower(string(fcb.Language(source)))
		if !pythonFences[lang] {
			return ast.WalkContinue, nil
		}

		segments := fcb.Lines()
		if segments.Len() == 0 {
			return ast.WalkContinue, nil
		}

		// Segment.Value has a pointer receiver, so each segment needs a
		// local before the call.
		var sb strings.Builder
		for i := 0; i < segments.Len(); i++ {
			seg := segments.At(i)
			sb.Write(seg.Value(source))
		}

		first := segments.At(0)
		last := segments.At(segments.Len() - 1)
		startLine := index.lineAt(first.Start)
		endLine := index.lineAt(last.Stop - 1)
		code := sb.String()

		// Fenced blocks written as interactive transcripts carry prompt
		// markers that are not executable. Strip them so execution
		// failures reflect the code, not the rendering. The transcript's
		// output lines are narration here, not an assertion target.
		if looksLikeSession(code) {
			lines := strings.Split(strings.TrimRight(code, "\n"), "\n")
			parsed, sessWarnings := parseSession(file, lines, startLine)
			warnings = append(warnings, sessWarnings...)
			if parsed == nil {
				return ast.WalkContinue, nil
			}
			code = parsed.code
		}

		if strings.TrimSpace(code) == "" {
			return ast.WalkContinue, nil
		}

		examples = append(examples, models.Example{
			SourceFile: file,
			StartLine:  startLine,
			EndLine:    endLine,
			Kind:       models.KindProseBlock,
			CodeText:   code,
		})
		return ast.WalkContinue, nil
	})

	return examples, warnings
}

// looksLikeSession reports whether the first non-blank line of a code
// region is a doctest prompt.
func looksLikeSession(code string) bool {
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return strings.HasPrefix(trimmed, ">>>")
	}
	return false
}

// lineIndex maps byte offsets in a source buffer to 1-based line numbers.
type lineIndex struct {
	starts []int
}

func newLineIndex(source []byte) *lineIndex {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (li *lineIndex) lineAt(offset int) int {
	if offset < 0 {
		offset = 0
	}
	// First line start strictly greater than offset; the offset's line is
	// the one before it.
	n := sort.Search(len(li.starts), func(i int) bool {
		return li.starts[i] > offset
	})
	return n
}

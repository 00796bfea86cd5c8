package executor

import (
	"regexp"

	"github.com/harrison/docval/internal/models"
)

// exceptionKinds maps Python exception type names reported by the harness
// to the closed error-kind taxonomy. Subclass names the interpreter raises
// in practice are listed explicitly; anything unlisted falls through to the
// output patterns and finally to OtherRuntimeError.
var exceptionKinds = map[string]models.ErrorKind{
	"SyntaxError":         models.ErrKindSyntaxError,
	"IndentationError":    models.ErrKindSyntaxError,
	"TabError":            models.ErrKindSyntaxError,
	"ImportError":         models.ErrKindImportError,
	"ModuleNotFoundError": models.ErrKindImportError,
	"NameError":           models.ErrKindNameError,
	"UnboundLocalError":   models.ErrKindNameError,
	"TypeError":           models.ErrKindTypeError,
	"AttributeError":      models.ErrKindAttributeError,
}

// errorOutputPattern pairs a regex over raw error text with an error kind.
// Used as a fallback when only stderr text is available, e.g. when the
// harness itself died before writing a structured result.
type errorOutputPattern struct {
	Pattern string
	Kind    models.ErrorKind
}

// knownErrorPatterns is scanned in order; first match wins. Matching is
// case-insensitive via the (?i) prefix applied at compile time.
var knownErrorPatterns = []errorOutputPattern{
	{Pattern: `syntax.?error|unexpected (token|EOF|indent)`, Kind: models.ErrKindSyntaxError},
	{Pattern: `no module named|cannot import name|import.?error`, Kind: models.ErrKindImportError},
	{Pattern: `name .* is not defined|name.?error`, Kind: models.ErrKindNameError},
	{Pattern: `type.?error|unsupported operand|not callable`, Kind: models.ErrKindTypeError},
	{Pattern: `has no attribute|attribute.?error`, Kind: models.ErrKindAttributeError},
}

var compiledErrorPatterns = func() []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(knownErrorPatterns))
	for i, p := range knownErrorPatterns {
		compiled[i] = regexp.MustCompile("(?i)" + p.Pattern)
	}
	return compiled
}()

// ClassifyError maps an exception type name and message to an error kind.
// The type name reported by the harness is authoritative; the message is
// only consulted when the type is unknown.
func ClassifyError(exceptionType, message string) models.ErrorKind {
	if kind, ok := exceptionKinds[exceptionType]; ok {
		return kind
	}
	return classifyOutput(message)
}

// classifyOutput classifies raw error text against the pattern table.
func classifyOutput(output string) models.ErrorKind {
	if output == "" {
		return models.ErrKindOtherRuntime
	}
	for i := range compiledErrorPatterns {
		if compiledErrorPatterns[i].MatchString(output) {
			return knownErrorPatterns[i].Kind
		}
	}
	return models.ErrKindOtherRuntime
}

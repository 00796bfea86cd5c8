package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/harrison/docval/internal/models"
)

// canonicalColumnLevels is the required naming for three-level DataFrame
// columns: measurement, component, species.
var canonicalColumnLevels = []string{"M", "C", "S"}

// canonicalIndexName is the required name for datetime indexes.
const canonicalIndexName = "Epoch"

// ColumnLevelsRule inspects captured DataFrames and requires that any
// three-level column structure names its levels M, C, S. DataFrames with
// other level counts are out of scope for the convention and pass.
type ColumnLevelsRule struct{}

func (r *ColumnLevelsRule) ID() string    { return "multiindex-level-names" }
func (r *ColumnLevelsRule) Runtime() bool { return true }

func (r *ColumnLevelsRule) Validate(ex models.Example, res models.ExecutionResult) []models.Violation {
	if !res.Succeeded() || len(res.CapturedNamespace) == 0 {
		return nil
	}

	var violations []models.Violation
	for _, name := range sortedNames(res.CapturedNamespace) {
		value := res.CapturedNamespace[name]
		if value.ColumnLevels != 3 {
			continue
		}
		if levelsMatch(value.ColumnNames, canonicalColumnLevels) {
			continue
		}
		violations = append(violations, models.Violation{
			ExampleID: ex.ID,
			RuleID:    r.ID(),
			Severity:  models.SeverityWarning,
			Message: fmt.Sprintf("%s has three column levels named %s; the convention names them (\"M\", \"C\", \"S\")",
				name, formatLevels(value.ColumnNames)),
			Evidence: value.TypeName,
		})
	}
	return violations
}

func levelsMatch(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func formatLevels(names []string) string {
	if len(names) == 0 {
		return "(unnamed)"
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func sortedNames(ns map[string]models.NamespaceValue) []string {
	names := make([]string, 0, len(ns))
	for name := range ns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// chainedBracketRegex matches two adjacent quoted-label subscripts, the
// chained-indexing shape pandas warns about. Positional or slice
// subscripts are left alone.
var chainedBracketRegex = regexp.MustCompile(`\[\s*['"][^'"]+['"]\s*\]\s*\[\s*['"]`)

// ChainedIndexingRule flags chained label subscripts on source text.
// Chained indexing on a hierarchical frame may return a copy, so writes
// through it are silently lost; a cross-section (.xs) is the reliable
// spelling.
type ChainedIndexingRule struct{}

func (r *ChainedIndexingRule) ID() string    { return "chained-indexing" }
func (r *ChainedIndexingRule) Runtime() bool { return false }

func (r *ChainedIndexingRule) Validate(ex models.Example, _ models.ExecutionResult) []models.Violation {
	var violations []models.Violation
	for _, line := range strings.Split(ex.CodeText, "\n") {
		if !chainedBracketRegex.MatchString(line) {
			continue
		}
		violations = append(violations, models.Violation{
			ExampleID: ex.ID,
			RuleID:    r.ID(),
			Severity:  models.SeverityInfo,
			Message:   "chained label indexing may operate on a copy; prefer a cross-section, e.g. df.xs('v', level='M')",
			Evidence:  strings.TrimSpace(line),
		})
	}
	return violations
}

// TimeIndexRule requires datetime indexes on captured values to carry the
// canonical Epoch name.
type TimeIndexRule struct{}

func (r *TimeIndexRule) ID() string    { return "time-index-name" }
func (r *TimeIndexRule) Runtime() bool { return true }

func (r *TimeIndexRule) Validate(ex models.Example, res models.ExecutionResult) []models.Violation {
	if !res.Succeeded() || len(res.CapturedNamespace) == 0 {
		return nil
	}

	var violations []models.Violation
	for _, name := range sortedNames(res.CapturedNamespace) {
		value := res.CapturedNamespace[name]
		if !value.IsDatetimeIndex || value.IndexName == canonicalIndexName {
			continue
		}
		indexName := value.IndexName
		if indexName == "" {
			indexName = "unnamed"
		}
		violations = append(violations, models.Violation{
			ExampleID: ex.ID,
			RuleID:    r.ID(),
			Severity:  models.SeverityWarning,
			Message: fmt.Sprintf("%s has a datetime index named %q; the convention names it %q",
				name, indexName, canonicalIndexName),
			Evidence: value.TypeName,
		})
	}
	return violations
}

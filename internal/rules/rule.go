// Package rules implements the pluggable domain-compliance checks layered
// on top of bare execution success: physics conventions and DataFrame
// structural conventions.
//
// Rules are deliberately heuristic. Static analysis of arbitrary
// documentation snippets cannot achieve certainty, so findings carry an
// error/warning/info severity instead of a binary verdict: CI gates on
// error only, the rest surfaces for human review.
//
// New checks are added by implementing Rule; nothing in the executor or
// reporter changes when the rule set grows.
package rules

import (
	"sort"

	"github.com/harrison/docval/internal/models"
)

// Rule is one domain-compliance check. Implementations must be total
// functions over any (Example, ExecutionResult) pair: a rule that cannot
// make sense of its input returns no violations, it never panics or
// errors. Rules must not mutate their inputs.
type Rule interface {
	// ID identifies the rule in violations and reports.
	ID() string

	// Runtime reports whether the rule inspects post-execution artifacts
	// (the captured namespace). Runtime rules are skipped in fast mode
	// and are inert for examples that did not run successfully.
	Runtime() bool

	// Validate inspects the example and its execution result and returns
	// zero or more findings.
	Validate(ex models.Example, res models.ExecutionResult) []models.Violation
}

// DefaultRules returns the full built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		&ThermalSpeedRule{},
		&UnitConsistencyRule{},
		&MissingDataRule{},
		&AlfvenSpeedRule{},
		&ColumnLevelsRule{},
		&ChainedIndexingRule{},
		&TimeIndexRule{},
	}
}

// StaticOnly filters a rule set down to its static rules.
func StaticOnly(ruleSet []Rule) []Rule {
	var static []Rule
	for _, r := range ruleSet {
		if !r.Runtime() {
			static = append(static, r)
		}
	}
	return static
}

// Apply runs every rule against one example and returns the combined
// findings sorted by severity (error first), then rule ID. A rule that
// panics contributes nothing: validators fail open, execution results
// fail closed.
func Apply(ruleSet []Rule, ex models.Example, res models.ExecutionResult) []models.Violation {
	var violations []models.Violation
	for _, r := range ruleSet {
		violations = append(violations, safeValidate(r, ex, res)...)
	}

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Severity != violations[j].Severity {
			return violations[i].Severity.Rank() < violations[j].Severity.Rank()
		}
		return violations[i].RuleID < violations[j].RuleID
	})

	return violations
}

func safeValidate(r Rule, ex models.Example, res models.ExecutionResult) (out []models.Violation) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
		}
	}()
	return r.Validate(ex, res)
}

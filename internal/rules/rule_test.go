package rules

import (
	"testing"

	"github.com/harrison/docval/internal/models"
)

// panickyRule stands in for a buggy validator.
type panickyRule struct{}

func (r *panickyRule) ID() string    { return "panicky" }
func (r *panickyRule) Runtime() bool { return false }
func (r *panickyRule) Validate(models.Example, models.ExecutionResult) []models.Violation {
	panic("validator bug")
}

func TestDefaultRulesHaveUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range DefaultRules() {
		if seen[r.ID()] {
			t.Errorf("Duplicate rule ID %s", r.ID())
		}
		seen[r.ID()] = true
	}
	if len(seen) != 7 {
		t.Errorf("Expected 7 built-in rules, got %d", len(seen))
	}
}

func TestStaticOnlyDropsRuntimeRules(t *testing.T) {
	static := StaticOnly(DefaultRules())
	for _, r := range static {
		if r.Runtime() {
			t.Errorf("Rule %s is runtime but survived the static filter", r.ID())
		}
	}
	if len(static) != 5 {
		t.Errorf("Expected 5 static rules, got %d", len(static))
	}
}

func TestApplySortsBySeverityThenRule(t *testing.T) {
	// One snippet that trips an error, a warning and an info finding.
	ex := proseExample("w = sqrt(3 * k * T / m)\ndensity = -999\nv = df['v']['x']\n")

	violations := Apply(DefaultRules(), ex, models.ExecutionResult{Status: models.StatusSuccess})
	if len(violations) != 3 {
		t.Fatalf("Expected 3 violations, got %d: %v", len(violations), violations)
	}

	wantOrder := []models.Severity{models.SeverityError, models.SeverityWarning, models.SeverityInfo}
	for i, want := range wantOrder {
		if violations[i].Severity != want {
			t.Errorf("Violation %d: expected severity %s, got %s", i, want, violations[i].Severity)
		}
	}
	if violations[0].RuleID != "thermal-speed-convention" {
		t.Errorf("Expected the convention error first, got %s", violations[0].RuleID)
	}
}

func TestApplyFailsOpenOnPanic(t *testing.T) {
	ruleSet := []Rule{&panickyRule{}, &MissingDataRule{}}
	ex := proseExample("density = 0\n")

	violations := Apply(ruleSet, ex, models.ExecutionResult{})
	if len(violations) != 1 {
		t.Fatalf("Panicking rule must contribute nothing, got %v", violations)
	}
	if violations[0].RuleID != "missing-data-convention" {
		t.Errorf("Surviving violation from wrong rule: %s", violations[0].RuleID)
	}
}

func TestApplyEmptyForCleanExample(t *testing.T) {
	ex := proseExample("w = np.sqrt(2 * k * T / m)\nprint(w)\n")
	if got := Apply(DefaultRules(), ex, models.ExecutionResult{Status: models.StatusSuccess}); len(got) != 0 {
		t.Errorf("Clean snippet should produce no violations, got %v", got)
	}
}

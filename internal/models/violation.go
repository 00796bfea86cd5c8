package models

// Severity grades a rule finding. Heuristic rules can be wrong, so findings
// are stratified rather than binary pass/fail: CI gates on error severity
// only, while warning and info surface for human review.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// severityRank orders severities for report sorting, most severe first.
var severityRank = map[Severity]int{
	SeverityError:   0,
	SeverityWarning: 1,
	SeverityInfo:    2,
}

// Rank returns the sort rank of the severity (lower is more severe).
// Unknown severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Violation is one domain-rule finding against an example. A violation can
// exist even when execution succeeded (correct-running but physically
// nonsensical code) or without execution at all (static pattern rules).
type Violation struct {
	ExampleID string   `json:"example_id"`
	RuleID    string   `json:"rule_id"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Evidence  string   `json:"evidence,omitempty"`
}

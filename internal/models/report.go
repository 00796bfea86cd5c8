package models

import "time"

// ExampleOutcome pairs one example with its execution result and any rule
// violations. Outcomes appear in the report in extractor discovery order,
// regardless of worker completion order.
type ExampleOutcome struct {
	Example    Example         `json:"example"`
	Result     ExecutionResult `json:"result"`
	Violations []Violation     `json:"violations"`
}

// Summary holds the aggregate counts for a run.
type Summary struct {
	TotalExamples int     `json:"total_examples"`
	Successes     int     `json:"successes"`
	Failures      int     `json:"failures"`
	TimedOut      int     `json:"timed_out"`
	SuccessRate   float64 `json:"success_rate"`

	// FailuresByKind counts failed examples per error kind. TimedOut
	// examples are counted under the TimedOut kind as well.
	FailuresByKind map[ErrorKind]int `json:"failures_by_kind"`

	// ViolationsBySeverity counts rule findings per severity.
	ViolationsBySeverity map[Severity]int `json:"violations_by_severity"`

	ExtractionWarnings int `json:"extraction_warnings"`
}

// Report is the terminal aggregate of a validation run, immutable once
// built. GeneratedAt and RunID are the only fields allowed to differ
// between two runs on identical input.
type Report struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Summary     Summary          `json:"summary"`
	Results     []ExampleOutcome `json:"results"`
	Warnings    []Warning        `json:"warnings,omitempty"`
}

// Clean reports whether the run had no execution failures and no
// error-severity violations. Clean maps to process exit code 0.
func (r *Report) Clean() bool {
	if r.Summary.Failures > 0 || r.Summary.TimedOut > 0 {
		return false
	}
	return r.Summary.ViolationsBySeverity[SeverityError] == 0
}

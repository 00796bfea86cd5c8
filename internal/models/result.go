package models

import "time"

// Execution status constants
const (
	StatusSuccess  = "success"   // Snippet ran to completion
	StatusFailed   = "failed"    // Snippet raised or output mismatched
	StatusTimedOut = "timed_out" // Hard timeout expired; worker was killed
)

// ErrorKind is the closed taxonomy for classified execution failures.
type ErrorKind string

const (
	ErrKindNone              ErrorKind = ""
	ErrKindSyntaxError       ErrorKind = "SyntaxError"
	ErrKindImportError       ErrorKind = "ImportError"
	ErrKindNameError         ErrorKind = "NameError"
	ErrKindTypeError         ErrorKind = "TypeError"
	ErrKindAttributeError    ErrorKind = "AttributeError"
	ErrKindAssertionMismatch ErrorKind = "AssertionMismatch"
	ErrKindTimedOut          ErrorKind = "TimedOut"
	ErrKindOtherRuntime      ErrorKind = "OtherRuntimeError"
)

// NamespaceValue is the structural descriptor the execution harness
// serializes for one top-level binding created by a snippet. Runtime rule
// validators inspect these descriptors; no live Python values ever cross
// the process boundary.
type NamespaceValue struct {
	TypeName        string   `json:"type_name"`
	Repr            string   `json:"repr"`
	ColumnLevels    int      `json:"column_levels,omitempty"`
	ColumnNames     []string `json:"column_names,omitempty"`
	IndexName       string   `json:"index_name,omitempty"`
	IsDatetimeIndex bool     `json:"is_datetime_index,omitempty"`
}

// ExecutionResult is the outcome of running one Example in isolation.
// Exactly one result exists per example per run. CapturedNamespace is
// populated only on success; a timed-out example never has one.
type ExecutionResult struct {
	ExampleID         string                    `json:"example_id"`
	Status            string                    `json:"status"`
	ErrorKind         ErrorKind                 `json:"error_kind,omitempty"`
	ErrorMessage      string                    `json:"error_message,omitempty"`
	Stdout            string                    `json:"stdout,omitempty"`
	Stderr            string                    `json:"stderr,omitempty"`
	Duration          time.Duration             `json:"duration"`
	CapturedNamespace map[string]NamespaceValue `json:"-"`

	// Traceback is kept for debugging but deliberately excluded from the
	// primary report path to keep reports terse.
	Traceback string `json:"-"`
}

// Succeeded reports whether the example ran cleanly.
func (r ExecutionResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

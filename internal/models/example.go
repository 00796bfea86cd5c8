// Package models defines the core data types shared across the docval
// pipeline: extracted examples, execution results, rule violations, and the
// final report. All types are plain values created once per run and never
// mutated in place, which keeps parallel execution and report diffing safe.
package models

import "fmt"

// ExampleKind identifies where an example came from and how it is checked.
type ExampleKind string

const (
	// KindProseBlock is a fenced or directive code region in a prose
	// document. Prose blocks have no expected output.
	KindProseBlock ExampleKind = "prose-block"

	// KindDocstringSession is a doctest-style interactive session found in
	// a Python docstring. Session examples carry the expected output that
	// followed the prompt lines.
	KindDocstringSession ExampleKind = "docstring-session"
)

// Example is one extracted, directly executable code snippet with
// provenance. CodeText has all prompt/continuation markers and narrative
// lines already stripped, so a downstream execution failure reflects a real
// code defect rather than an extraction artifact.
type Example struct {
	ID             string      `json:"id"`
	SourceFile     string      `json:"source_file"`
	StartLine      int         `json:"start_line"`
	EndLine        int         `json:"end_line"`
	Kind           ExampleKind `json:"kind"`
	CodeText       string      `json:"code_text"`
	ExpectedOutput string      `json:"expected_output,omitempty"`
}

// Location returns the example's provenance as "file:start-end" for error
// reporting.
func (e Example) Location() string {
	return fmt.Sprintf("%s:%d-%d", e.SourceFile, e.StartLine, e.EndLine)
}

// Warning records a non-fatal extraction problem, such as a malformed
// session block. Warnings are reported but never abort extraction.
type Warning struct {
	SourceFile string `json:"source_file"`
	Line       int    `json:"line"`
	Message    string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.SourceFile, w.Line, w.Message)
}

package model

import "fmt"

// DiagnosticKind identifies a non-fatal problem found while merging records.
type DiagnosticKind string

const (
	DiagUnknownStudent    DiagnosticKind = "unknown_student"
	DiagUnknownInstructor DiagnosticKind = "unknown_instructor"
	DiagUnknownTag        DiagnosticKind = "unknown_tag"
	DiagUnknownMajor      DiagnosticKind = "unknown_major"
	DiagMalformedSource   DiagnosticKind = "malformed_source"
)

// Diagnostic is a recoverable issue. The offending record's effect is dropped
// and processing continues.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind"`
	Source  string         `json:"source" yaml:"source"`
	Line    int            `json:"line,omitempty" yaml:"line,omitempty"`
	Subject string         `json:"subject" yaml:"subject"`
	Message string         `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s line %d: %s", d.Source, d.Line, d.Message)
	}
	return d.Message
}

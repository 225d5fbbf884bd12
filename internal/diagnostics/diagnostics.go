// Package diagnostics defines the Diagnostic record shared by the static
// analyzers (C4) and the session-wide collector (C9), per spec.md §3/§4.9.
package diagnostics

import "sort"

// Severity is one of the four totally ordered diagnostic severities.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// AttributionType says who is responsible for a diagnosed problem.
type AttributionType string

const (
	AttributionSpec   AttributionType = "spec"
	AttributionSDK    AttributionType = "sdk"
	AttributionServer AttributionType = "server"
)

// Attribution is the {type, confidence, reasoning} triple every
// Diagnostic must carry.
type Attribution struct {
	Type      AttributionType
	Confidence float64
	Reasoning string
}

// Diagnostic is one analyzer or per-request finding.
type Diagnostic struct {
	Code        string
	Severity    Severity
	Pointer     string
	Message     string
	Attribution Attribution
	Suggestion  string
	Related     []string
}

// SortBySeverity sorts diags by severity ascending (error < warning <
// info < hint), stable so intra-bucket order (e.g. analyzer emission
// order) is preserved, per spec.md §4.4.
func SortBySeverity(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].Severity < diags[j].Severity
	})
}

// ValidationIssue is a per-request validation finding (spec.md §3). It is
// data, never thrown; callers decide the consequence.
type ValidationIssue struct {
	Path     string
	Message  string
	Expected string
	Actual   string
}

// Package diagnostic defines the finding value type produced by every
// checker and analysis, plus the aggregator that normalizes findings into
// the engine's single ordered output sequence.
package diagnostic

import (
	"github.com/l3aro/pycritic/pkg/pyast"
)

// Severity classifies how serious a finding is, loosely following the
// error / warning / convention split familiar from classroom linters.
type Severity string

const (
	SeverityError      Severity = "error"
	SeverityWarning    Severity = "warning"
	SeverityConvention Severity = "convention"
	SeverityInfo       Severity = "info"
)

// RuleAnalysisIncomplete is the rule id attributed to findings that report
// the analysis itself degraded: an unmodeled construct, a failed checker,
// or a unit that could not be analyzed at all.
const RuleAnalysisIncomplete = "analysis-incomplete"

// Diagnostic is a single reported finding. It is an immutable value: once
// emitted by a checker it is never modified, only collected and sorted.
type Diagnostic struct {
	Rule     string      `json:"rule" msgpack:"rule"`
	Severity Severity    `json:"severity" msgpack:"severity"`
	Span     pyast.Span  `json:"span" msgpack:"span"`
	Message  string      `json:"message" msgpack:"message"`
	Fix      string      `json:"fix,omitempty" msgpack:"fix,omitempty"`
}

// Counts tallies diagnostics per severity level for a whole file.
type Counts map[Severity]int

// Tally computes severity counts over a diagnostic sequence.
func Tally(diags []Diagnostic) Counts {
	counts := make(Counts)
	for _, d := range diags {
		counts[d.Severity]++
	}
	return counts
}

// Report is the engine's output for one analyzed file: the ordered
// diagnostic sequence plus aggregate severity counts, in a shape the
// renderer can iterate without re-deriving spans.
type Report struct {
	Path        string       `json:"path" msgpack:"path"`
	Diagnostics []Diagnostic `json:"diagnostics" msgpack:"diagnostics"`
	Counts      Counts       `json:"counts" msgpack:"counts"`
}

package diagnostic

import (
	"fmt"
	"sort"
)

// Aggregator collects the diagnostic streams from all checkers and
// analyses for one analyzed unit of work. Exact duplicates (same rule id
// and span) are dropped on arrival; Result freezes and orders the
// sequence. An aggregator is single-use: after Result the run is over and
// a fresh pipeline is needed to produce more findings.
type Aggregator struct {
	seen  map[string]struct{}
	diags []Diagnostic
	done  bool
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]struct{})}
}

// Add appends findings, dropping exact (rule, span) duplicates. Adding
// after Result is a programming error and is ignored.
func (a *Aggregator) Add(diags ...Diagnostic) {
	if a.done {
		return
	}
	for _, d := range diags {
		key := fmt.Sprintf("%s@%d:%d-%d:%d", d.Rule,
			d.Span.StartLine, d.Span.StartCol, d.Span.EndLine, d.Span.EndCol)
		if _, dup := a.seen[key]; dup {
			continue
		}
		a.seen[key] = struct{}{}
		a.diags = append(a.diags, d)
	}
}

// Len returns the number of distinct findings collected so far.
func (a *Aggregator) Len() int { return len(a.diags) }

// Result finalizes the run and returns the findings ordered by source span
// start position, ties broken by rule identifier lexical order. The
// ordering is total, so identical input always yields an identical
// sequence.
func (a *Aggregator) Result() []Diagnostic {
	a.done = true
	sort.SliceStable(a.diags, func(i, j int) bool {
		di, dj := a.diags[i], a.diags[j]
		if di.Span.StartLine != dj.Span.StartLine {
			return di.Span.StartLine < dj.Span.StartLine
		}
		if di.Span.StartCol != dj.Span.StartCol {
			return di.Span.StartCol < dj.Span.StartCol
		}
		return di.Rule < dj.Rule
	})
	return a.diags
}

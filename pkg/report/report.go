// Package report renders analysis reports for people and for tools: a
// colorized text layout for terminals and a stable JSON encoding for
// editors and CI.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/l3aro/pycritic/pkg/diagnostic"
)

// Renderer writes a sequence of file reports to a writer.
type Renderer interface {
	Render(w io.Writer, reports []*diagnostic.Report) error
}

// New returns the renderer for a format name.
func New(format string, color bool) (Renderer, error) {
	switch format {
	case "text", "":
		return &Text{Color: color, ShowFix: true}, nil
	case "json":
		return &JSON{Indent: true}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

// Text renders reports in a line-oriented human layout, one section per
// file with findings, ending with a run summary.
type Text struct {
	Color   bool
	ShowFix bool
}

var severityColors = map[diagnostic.Severity]string{
	diagnostic.SeverityError:      "\033[31m",
	diagnostic.SeverityWarning:    "\033[33m",
	diagnostic.SeverityConvention: "\033[36m",
	diagnostic.SeverityInfo:       "\033[37m",
}

func (t *Text) paint(sev diagnostic.Severity, s string) string {
	if !t.Color {
		return s
	}
	return severityColors[sev] + s + "\033[0m"
}

// Render writes the text report.
func (t *Text) Render(w io.Writer, reports []*diagnostic.Report) error {
	total := make(diagnostic.Counts)
	clean := 0
	for _, r := range reports {
		if len(r.Diagnostics) == 0 {
			clean++
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\n", r.Path); err != nil {
			return err
		}
		for _, d := range r.Diagnostics {
			line := fmt.Sprintf("  %d:%d  %-10s  %s  %s",
				d.Span.StartLine, d.Span.StartCol, d.Severity, d.Rule, d.Message)
			if _, err := fmt.Fprintln(w, t.paint(d.Severity, line)); err != nil {
				return err
			}
			if t.ShowFix && d.Fix != "" {
				if _, err := fmt.Fprintf(w, "          hint: %s\n", d.Fix); err != nil {
					return err
				}
			}
		}
		fmt.Fprintln(w)
		for sev, n := range r.Counts {
			total[sev] += n
		}
	}

	_, err := fmt.Fprintf(w, "%d files checked, %d clean; %d errors, %d warnings, %d conventions\n",
		len(reports), clean,
		total[diagnostic.SeverityError],
		total[diagnostic.SeverityWarning],
		total[diagnostic.SeverityConvention])
	return err
}

// JSON renders reports as a JSON array, one object per file, in input
// order. The encoding is the diagnostic package's wire shape verbatim.
type JSON struct {
	Indent bool
}

// Render writes the JSON report.
func (j *JSON) Render(w io.Writer, reports []*diagnostic.Report) error {
	enc := json.NewEncoder(w)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	if reports == nil {
		reports = []*diagnostic.Report{}
	}
	return enc.Encode(reports)
}

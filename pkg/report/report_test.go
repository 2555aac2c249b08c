package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/pyast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReports() []*diagnostic.Report {
	diags := []diagnostic.Diagnostic{
		{
			Rule:     "possibly-undefined",
			Severity: diagnostic.SeverityError,
			Span:     pyast.Span{StartLine: 4, StartCol: 11, EndLine: 4, EndCol: 12},
			Message:  `"x" might be used before it is assigned`,
			Fix:      "assign the variable on every path before this use",
		},
		{
			Rule:     "bare-except",
			Severity: diagnostic.SeverityWarning,
			Span:     pyast.Span{StartLine: 8, StartCol: 0, EndLine: 9, EndCol: 8},
			Message:  "this bare except catches every exception",
		},
	}
	return []*diagnostic.Report{
		{Path: "messy.py", Diagnostics: diags, Counts: diagnostic.Tally(diags)},
		{Path: "clean.py", Counts: diagnostic.Counts{}},
	}
}

func TestNewSelectsRenderer(t *testing.T) {
	r, err := New("text", false)
	require.NoError(t, err)
	assert.IsType(t, &Text{}, r)

	r, err = New("", false)
	require.NoError(t, err)
	assert.IsType(t, &Text{}, r, "empty format defaults to text")

	r, err = New("json", false)
	require.NoError(t, err)
	assert.IsType(t, &JSON{}, r)

	_, err = New("xml", false)
	assert.Error(t, err)
}

func TestTextRender(t *testing.T) {
	var buf bytes.Buffer
	r := &Text{ShowFix: true}
	require.NoError(t, r.Render(&buf, sampleReports()))
	out := buf.String()

	assert.Contains(t, out, "messy.py\n")
	assert.Contains(t, out, "4:11")
	assert.Contains(t, out, "possibly-undefined")
	assert.Contains(t, out, "hint: assign the variable")
	assert.NotContains(t, out, "clean.py", "files without findings get no section")
	assert.Contains(t, out, "2 files checked, 1 clean; 1 errors, 1 warnings, 0 conventions")
	assert.NotContains(t, out, "\033[", "no escape codes without color")
}

func TestTextRenderWithColor(t *testing.T) {
	var buf bytes.Buffer
	r := &Text{Color: true}
	require.NoError(t, r.Render(&buf, sampleReports()))
	assert.Contains(t, buf.String(), "\033[31m", "errors render in red")
}

func TestTextRenderHidesFixesWhenAskedTo(t *testing.T) {
	var buf bytes.Buffer
	r := &Text{ShowFix: false}
	require.NoError(t, r.Render(&buf, sampleReports()))
	assert.NotContains(t, buf.String(), "hint:")
}

func TestTextRenderAllClean(t *testing.T) {
	var buf bytes.Buffer
	r := &Text{}
	reports := []*diagnostic.Report{{Path: "a.py"}, {Path: "b.py"}}
	require.NoError(t, r.Render(&buf, reports))
	assert.Equal(t, "2 files checked, 2 clean; 0 errors, 0 warnings, 0 conventions\n", buf.String())
}

func TestJSONRender(t *testing.T) {
	var buf bytes.Buffer
	r := &JSON{}
	require.NoError(t, r.Render(&buf, sampleReports()))

	var decoded []struct {
		Path        string `json:"path"`
		Diagnostics []struct {
			Rule     string `json:"rule"`
			Severity string `json:"severity"`
			Message  string `json:"message"`
		} `json:"diagnostics"`
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	require.Len(t, decoded, 2)
	assert.Equal(t, "messy.py", decoded[0].Path)
	require.Len(t, decoded[0].Diagnostics, 2)
	assert.Equal(t, "possibly-undefined", decoded[0].Diagnostics[0].Rule)
	assert.Equal(t, "error", decoded[0].Diagnostics[0].Severity)
	assert.Equal(t, 1, decoded[0].Counts["error"])
	assert.Equal(t, "clean.py", decoded[1].Path)
}

func TestJSONRenderEmptyIsAnArray(t *testing.T) {
	var buf bytes.Buffer
	r := &JSON{}
	require.NoError(t, r.Render(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

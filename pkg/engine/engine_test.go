package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/l3aro/pycritic/pkg/cache"
	"github.com/l3aro/pycritic/pkg/checkers"
	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messySource = `def f(a):
    if a:
        x = 1
    return x

try:
    risky()
except:
    pass
`

func rulesOf(r *diagnostic.Report) []string {
	var rules []string
	for _, d := range r.Diagnostics {
		rules = append(rules, d.Rule)
	}
	return rules
}

func TestAnalyzeSourceFindsProblems(t *testing.T) {
	e := New(Options{})
	report, err := e.AnalyzeSource("messy.py", []byte(messySource))
	require.NoError(t, err)

	assert.Equal(t, "messy.py", report.Path)
	rules := rulesOf(report)
	assert.Contains(t, rules, "possibly-undefined")
	assert.Contains(t, rules, "bare-except")
	assert.Equal(t, diagnostic.Tally(report.Diagnostics), report.Counts)
}

func TestCleanSourceHasNoFindings(t *testing.T) {
	src := `def add(a, b):
    return a + b
`
	e := New(Options{})
	report, err := e.AnalyzeSource("clean.py", []byte(src))
	require.NoError(t, err)
	assert.Empty(t, report.Diagnostics)
}

func TestMalformedSourceYieldsSingleFinding(t *testing.T) {
	src := `def broken(:
    if x
        x = 1
`
	e := New(Options{})
	report, err := e.AnalyzeSource("broken.py", []byte(src))
	require.NoError(t, err, "a parse failure is a finding, not an error")

	require.Len(t, report.Diagnostics, 1, "no partial results accompany a failed parse")
	d := report.Diagnostics[0]
	assert.Equal(t, diagnostic.RuleAnalysisIncomplete, d.Rule)
	assert.Equal(t, diagnostic.SeverityError, d.Severity)
	assert.Equal(t, 1, report.Counts[diagnostic.SeverityError])
}

func TestDiagnosticsAreOrderedBySpan(t *testing.T) {
	e := New(Options{})
	report, err := e.AnalyzeSource("messy.py", []byte(messySource))
	require.NoError(t, err)

	for i := 1; i < len(report.Diagnostics); i++ {
		prev, cur := report.Diagnostics[i-1].Span, report.Diagnostics[i].Span
		before := prev.StartLine < cur.StartLine ||
			(prev.StartLine == cur.StartLine && prev.StartCol <= cur.StartCol)
		assert.True(t, before, "diagnostics %d and %d out of order", i-1, i)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	e := New(Options{})
	first, err := e.AnalyzeSource("messy.py", []byte(messySource))
	require.NoError(t, err)
	second, err := e.AnalyzeSource("messy.py", []byte(messySource))
	require.NoError(t, err)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestDisabledRulesAreFiltered(t *testing.T) {
	e := New(Options{DisabledRules: []string{"bare-except", "possibly-undefined"}})
	report, err := e.AnalyzeSource("messy.py", []byte(messySource))
	require.NoError(t, err)

	rules := rulesOf(report)
	assert.NotContains(t, rules, "bare-except")
	assert.NotContains(t, rules, "possibly-undefined")
}

func TestHighComplexityGetsExactCFGNumbers(t *testing.T) {
	// Four alternating branches push E-N+2 past a limit of 4.
	src := `def tangle(a, b, c, d):
    if a:
        x = 1
    if b:
        x = 2
    if c:
        x = 3
    if d:
        x = 4
    return 0
`
	e := New(Options{Checkers: checkers.Options{MaxComplexity: 4}})
	report, err := e.AnalyzeSource("tangle.py", []byte(src))
	require.NoError(t, err)
	assert.Contains(t, rulesOf(report), "high-complexity")
}

func TestCacheHitSkipsReanalysis(t *testing.T) {
	c := cache.New(10)
	e := New(Options{Cache: c, ConfigFingerprint: "fp"})

	first, err := e.AnalyzeSource("messy.py", []byte(messySource))
	require.NoError(t, err)
	second, err := e.AnalyzeSource("messy.py", []byte(messySource))
	require.NoError(t, err)

	assert.Same(t, first, second, "the second call returns the cached report")
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCacheMissOnDifferentFingerprint(t *testing.T) {
	c := cache.New(10)

	e1 := New(Options{Cache: c, ConfigFingerprint: "depth=3"})
	_, err := e1.AnalyzeSource("a.py", []byte(messySource))
	require.NoError(t, err)

	e2 := New(Options{Cache: c, ConfigFingerprint: "depth=4"})
	_, err = e2.AnalyzeSource("a.py", []byte(messySource))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
}

func TestAnalyzeFilesKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"c.py", "a.py", "b.py"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x = 1\n"), 0o644))
		paths = append(paths, p)
	}

	e := New(Options{Workers: 3})
	reports, err := e.AnalyzeFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for i, p := range paths {
		assert.Equal(t, p, reports[i].Path)
	}
}

func TestAnalyzeFilesPropagatesReadErrors(t *testing.T) {
	e := New(Options{})
	_, err := e.AnalyzeFiles(context.Background(), []string{"/nonexistent/nope.py"})
	assert.Error(t, err)
}

func TestGlobalRebindingIsReported(t *testing.T) {
	src := `y = 0

def bump():
    global y
    y = y + 1
`
	e := New(Options{})
	report, err := e.AnalyzeSource("globals.py", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"forbidden-construct"}, rulesOf(report))
}

func TestUnmodeledConstructIsReportedNotFatal(t *testing.T) {
	src := `def f(x):
    match x:
        case 1:
            return 1
    return 0
`
	e := New(Options{})
	report, err := e.AnalyzeSource("match.py", []byte(src))
	require.NoError(t, err)
	assert.Contains(t, rulesOf(report), diagnostic.RuleAnalysisIncomplete)
}

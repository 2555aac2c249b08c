package cfg

import (
	"testing"

	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/pyast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rulesOf(diags []diagnostic.Diagnostic) []string {
	var rules []string
	for _, d := range diags {
		rules = append(rules, d.Rule)
	}
	return rules
}

func findRule(diags []diagnostic.Diagnostic, rule string) (diagnostic.Diagnostic, bool) {
	for _, d := range diags {
		if d.Rule == rule {
			return d, true
		}
	}
	return diagnostic.Diagnostic{}, false
}

func TestUnreachableAfterReturn(t *testing.T) {
	src := `def f():
    return 1
    x = 2
`
	g, _ := buildUnit(t, src, "f")
	diags := Analyze(g, nil)

	d, ok := findRule(diags, RuleUnreachableCode)
	require.True(t, ok)
	assert.Equal(t, 3, d.Span.StartLine, "span points at the first dead statement")
}

func TestGuardedReturnIsClean(t *testing.T) {
	src := `def f(a):
    if a:
        return 1
    return 2
`
	g, _ := buildUnit(t, src, "f")
	assert.Empty(t, Analyze(g, nil))
}

func TestInconsistentReturns(t *testing.T) {
	src := `def f(a):
    if a:
        return a
    return
`
	g, _ := buildUnit(t, src, "f")
	diags := Analyze(g, nil)

	assert.Equal(t, []string{RuleInconsistentReturns}, rulesOf(diags))
	d := diags[0]
	assert.Equal(t, diagnostic.SeverityWarning, d.Severity)
	assert.Equal(t, 4, d.Span.StartLine, "flagged at the bare return")
}

func TestMissingReturnOnFallOff(t *testing.T) {
	src := `def f(a):
    if a:
        return 1
    x = 2
`
	g, _ := buildUnit(t, src, "f")
	diags := Analyze(g, nil)

	d, ok := findRule(diags, RuleMissingReturn)
	require.True(t, ok)
	assert.Equal(t, diagnostic.SeverityError, d.Severity)
	assert.Equal(t, 1, d.Span.StartLine, "reported at the function name")
}

func TestAnnotatedFunctionNeverReturningValue(t *testing.T) {
	src := `def f(a) -> int:
    x = a + 1
`
	g, _ := buildUnit(t, src, "f")
	diags := Analyze(g, nil)

	_, ok := findRule(diags, RuleMissingReturn)
	assert.True(t, ok)
}

func TestInfiniteLoopIsNotMissingReturn(t *testing.T) {
	src := `def serve(q) -> int:
    while True:
        q.step()
`
	g, _ := buildUnit(t, src, "serve")
	diags := Analyze(g, nil)

	_, ok := findRule(diags, RuleMissingReturn)
	assert.False(t, ok, "an empty exit set is an intentional infinite loop")
}

func TestModuleUnitSkipsReturnChecks(t *testing.T) {
	g, _ := buildUnit(t, "x = 1\n", "<module>")
	assert.Empty(t, CheckReturns(g))
}

func TestOneIterationLoop(t *testing.T) {
	src := `def first(items):
    for item in items:
        return item
`
	g, _ := buildUnit(t, src, "first")
	diags := Analyze(g, nil)

	d, ok := findRule(diags, RuleOneIteration)
	require.True(t, ok)
	assert.Equal(t, 2, d.Span.StartLine, "reported at the loop statement")
}

func TestLoopWithConditionalBreakIsFine(t *testing.T) {
	src := `def f(items):
    for item in items:
        if item:
            break
        log(item)
`
	g, _ := buildUnit(t, src, "f")
	_, ok := findRule(Analyze(g, nil), RuleOneIteration)
	assert.False(t, ok)
}

func TestDeadBranchWithConstantCondition(t *testing.T) {
	src := `def f():
    x = 1
    if False:
        x = 2
    return x
`
	g, _ := buildUnit(t, src, "f")

	// The builder stores the condition node as the branch block's last
	// statement; mark it constant-false directly.
	constants := map[pyast.NodeID]bool{}
	for _, b := range g.Blocks {
		for _, e := range b.Out {
			if e.Kind == EdgeTrue && len(b.Stmts) > 0 {
				constants[b.Stmts[len(b.Stmts)-1]] = false
			}
		}
	}

	diags := DeadBranches(g, constants)
	require.Len(t, diags, 1)
	assert.Equal(t, RuleDeadBranch, diags[0].Rule)
	assert.Equal(t, 4, diags[0].Span.StartLine, "points into the dead arm")
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	src := `def f(a):
    if a:
        return a
    return
    x = 1
`
	g, _ := buildUnit(t, src, "f")
	first := Analyze(g, nil)
	second := Analyze(g, nil)
	assert.Equal(t, first, second)
}

func TestDominatorsOnDiamond(t *testing.T) {
	src := `def f(a):
    if a:
        x = 1
    else:
        x = 2
    return x
`
	g, _ := buildUnit(t, src, "f")
	dom := Dominators(g)

	// The join block is the one holding the return.
	var join BlockID = NoBlock
	for _, b := range g.Blocks {
		if b.Return != ReturnNone {
			join = b.ID
		}
	}
	require.NotEqual(t, NoBlock, join)

	assert.True(t, dom[join][g.Entry], "entry dominates everything")
	assert.True(t, dom[join][join])
	assert.Len(t, dom[join], 2, "neither arm dominates the join")
}

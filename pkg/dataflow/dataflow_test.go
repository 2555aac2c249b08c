package dataflow

import (
	"testing"

	"github.com/l3aro/pycritic/pkg/cfg"
	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/pyast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyzeUnit(t *testing.T, src, name string) []diagnostic.Diagnostic {
	t.Helper()
	tree, err := pyast.Parse("test.py", []byte(src))
	require.NoError(t, err)
	for _, u := range tree.Units() {
		if u.Name == name {
			g, _ := cfg.Build(tree, u)
			return Analyze(g)
		}
	}
	t.Fatalf("unit %q not found", name)
	return nil
}

func rulesOf(diags []diagnostic.Diagnostic) []string {
	var rules []string
	for _, d := range diags {
		rules = append(rules, d.Rule)
	}
	return rules
}

func TestPossiblyUndefinedOnOneBranch(t *testing.T) {
	src := `def f(a):
    if a:
        x = 1
    return x
`
	diags := analyzeUnit(t, src, "f")

	require.Equal(t, []string{RulePossiblyUndefined}, rulesOf(diags))
	d := diags[0]
	assert.Equal(t, diagnostic.SeverityError, d.Severity)
	assert.Equal(t, 4, d.Span.StartLine)
	assert.Contains(t, d.Message, `"x"`)
}

func TestAssignedOnBothBranchesIsDefinite(t *testing.T) {
	src := `def f(a):
    if a:
        x = 1
    else:
        x = 2
    return x
`
	assert.Empty(t, analyzeUnit(t, src, "f"))
}

func TestParametersAreAlwaysDefined(t *testing.T) {
	src := `def f(a, b):
    return a + b
`
	assert.Empty(t, analyzeUnit(t, src, "f"))
}

func TestNamesNeverAssignedAreIgnored(t *testing.T) {
	// len and helper are builtins or enclosing-scope reads, not ours.
	src := `def f(items):
    return helper(len(items))
`
	assert.Empty(t, analyzeUnit(t, src, "f"))
}

func TestUseBeforeAssignmentInStraightLine(t *testing.T) {
	src := `def f():
    y = x + 1
    x = 2
    return y + x
`
	diags := analyzeUnit(t, src, "f")
	require.Len(t, diags, 1)
	assert.Equal(t, RulePossiblyUndefined, diags[0].Rule)
	assert.Equal(t, 2, diags[0].Span.StartLine)
}

func TestLoopDefinedNameMayBeUndefinedAfter(t *testing.T) {
	src := `def f(items):
    for item in items:
        found = item
    return found
`
	diags := analyzeUnit(t, src, "f")
	require.Len(t, diags, 1)
	assert.Equal(t, RulePossiblyUndefined, diags[0].Rule)
	assert.Equal(t, 4, diags[0].Span.StartLine, "the loop may run zero times")
}

func TestGlobalDeclarationSuppressesUndefined(t *testing.T) {
	src := `def f():
    global counter
    counter = counter + 1
    return counter
`
	assert.Empty(t, analyzeUnit(t, src, "f"))
}

func TestImportCountsAsDefinition(t *testing.T) {
	src := `def f():
    import json
    return json.dumps({})
`
	assert.Empty(t, analyzeUnit(t, src, "f"))
}

func TestRedundantAssignmentOverwrittenUnused(t *testing.T) {
	src := `def f():
    x = 1
    x = 2
    return x
`
	diags := analyzeUnit(t, src, "f")

	require.Equal(t, []string{RuleRedundantAssignment}, rulesOf(diags))
	d := diags[0]
	assert.Equal(t, diagnostic.SeverityWarning, d.Severity)
	assert.Equal(t, 2, d.Span.StartLine, "the first assignment is the dead one")
}

func TestRedundantAssignmentAtFunctionEnd(t *testing.T) {
	src := `def f(a):
    result = a * 2
    done = True
`
	diags := analyzeUnit(t, src, "f")
	assert.Len(t, rulesOf(diags), 2, "both values die at the end of the function")
}

func TestCallOnRightHandSideIsNotRedundant(t *testing.T) {
	src := `def f():
    x = launch()
    x = 2
    return x
`
	assert.Empty(t, analyzeUnit(t, src, "f"), "the call may have effects")
}

func TestCapturedNameIsNotRedundant(t *testing.T) {
	src := `def f():
    x = 1
    def g():
        return x
    return g
`
	assert.Empty(t, analyzeUnit(t, src, "f"))
}

func TestGlobalAssignmentIsNotRedundant(t *testing.T) {
	src := `def f():
    global state
    state = 1
`
	assert.Empty(t, analyzeUnit(t, src, "f"))
}

func TestValueUsedOnOnePathIsLive(t *testing.T) {
	src := `def f(a):
    x = 1
    if a:
        return x
    return 0
`
	assert.Empty(t, analyzeUnit(t, src, "f"))
}

func TestAugmentedAssignmentReadsFirst(t *testing.T) {
	src := `def f():
    total += 1
    return total
`
	diags := analyzeUnit(t, src, "f")
	require.NotEmpty(t, diags)
	assert.Equal(t, RulePossiblyUndefined, diags[0].Rule)
	assert.Equal(t, 2, diags[0].Span.StartLine)
}

func TestTryBodyAssignmentMayNotLand(t *testing.T) {
	src := `def f():
    try:
        x = fetch()
    except ValueError:
        pass
    return x
`
	diags := analyzeUnit(t, src, "f")

	require.Equal(t, []string{RulePossiblyUndefined}, rulesOf(diags))
	assert.Equal(t, 6, diags[0].Span.StartLine, "the exception may fire before the assignment lands")
}

func TestAssignedBeforeTryIsDefinite(t *testing.T) {
	src := `def f():
    x = 0
    try:
        x = fetch()
    except ValueError:
        pass
    return x
`
	assert.Empty(t, analyzeUnit(t, src, "f"))
}

func TestHandlerAssignmentCoversTheExceptionPath(t *testing.T) {
	src := `def f():
    try:
        x = fetch()
    except ValueError:
        x = 0
    return x
`
	assert.Empty(t, analyzeUnit(t, src, "f"))
}

func TestModuleUnitSkipsLiveness(t *testing.T) {
	// Module-level names are the module's public surface; only definite
	// assignment runs here.
	src := "x = 1\nx = 2\n"
	tree, err := pyast.Parse("test.py", []byte(src))
	require.NoError(t, err)
	units := tree.Units()
	require.Len(t, units, 1)
	g, _ := cfg.Build(tree, units[0])
	assert.Empty(t, Analyze(g))
}

func TestWalrusDefines(t *testing.T) {
	src := `def f(items):
    if (n := len(items)) > 3:
        return n
    return 0
`
	assert.Empty(t, analyzeUnit(t, src, "f"))
}

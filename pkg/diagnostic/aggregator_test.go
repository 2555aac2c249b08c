package diagnostic

import (
	"testing"

	"github.com/l3aro/pycritic/pkg/pyast"
	"github.com/stretchr/testify/assert"
)

func diag(rule string, line, col int) Diagnostic {
	return Diagnostic{
		Rule:     rule,
		Severity: SeverityWarning,
		Span:     pyast.Span{StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		Message:  "m",
	}
}

func TestAggregatorDedupesRuleAndSpan(t *testing.T) {
	agg := NewAggregator()
	agg.Add(diag("unreachable-code", 3, 0))
	agg.Add(diag("unreachable-code", 3, 0)) // exact duplicate
	agg.Add(diag("dead-branch", 3, 0))      // same span, different rule

	assert.Equal(t, 2, agg.Len())
}

func TestAggregatorOrdersBySpanThenRule(t *testing.T) {
	agg := NewAggregator()
	agg.Add(diag("naming-convention", 5, 4))
	agg.Add(diag("unreachable-code", 2, 0))
	agg.Add(diag("bare-except", 5, 4))
	agg.Add(diag("dead-branch", 5, 0))

	got := agg.Result()
	var keys []string
	for _, d := range got {
		keys = append(keys, d.Rule)
	}
	assert.Equal(t, []string{"unreachable-code", "dead-branch", "bare-except", "naming-convention"}, keys)
}

func TestAggregatorResultFreezes(t *testing.T) {
	agg := NewAggregator()
	agg.Add(diag("bare-except", 1, 0))
	_ = agg.Result()

	agg.Add(diag("dead-branch", 2, 0))
	assert.Equal(t, 1, agg.Len(), "adds after Result are ignored")
}

func TestAggregatorIsDeterministic(t *testing.T) {
	build := func() []Diagnostic {
		agg := NewAggregator()
		agg.Add(diag("b-rule", 1, 0))
		agg.Add(diag("a-rule", 1, 0))
		agg.Add(diag("c-rule", 1, 0))
		return agg.Result()
	}
	assert.Equal(t, build(), build())
}

func TestTally(t *testing.T) {
	counts := Tally([]Diagnostic{
		{Severity: SeverityError},
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityConvention},
	})
	assert.Equal(t, 2, counts[SeverityError])
	assert.Equal(t, 1, counts[SeverityWarning])
	assert.Equal(t, 1, counts[SeverityConvention])
	assert.Equal(t, 0, counts[SeverityInfo])
}

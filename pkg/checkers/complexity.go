package checkers

import (
	"fmt"

	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/pyast"
)

// HighComplexity flags functions whose cyclomatic complexity exceeds the
// configured limit. The engine feeds the context exact CFG-derived numbers;
// when a function has none (its graph was skipped), a branch count over the
// AST stands in.
type HighComplexity struct{}

func (HighComplexity) Rule() Rule {
	return Rule{
		ID:       "high-complexity",
		Severity: diagnostic.SeverityWarning,
		Doc:      "functions with too many independent paths are hard to test and reason about",
	}
}

func (HighComplexity) Kinds() []pyast.Kind {
	return []pyast.Kind{pyast.KindFunctionDef}
}

func (c HighComplexity) Check(ctx *Context, id pyast.NodeID) {
	complexity, exact := ctx.Complexity[id]
	if !exact {
		complexity = branchCount(ctx.Tree, id)
	}
	if complexity <= ctx.Options.MaxComplexity {
		return
	}
	span := ctx.Tree.Span(id)
	if name := ctx.Tree.ChildByRole(id, pyast.RoleName); name != pyast.NoNode {
		span = ctx.Tree.Span(name)
	}
	ctx.Emit(diagnostic.Diagnostic{
		Rule:     c.Rule().ID,
		Severity: c.Rule().Severity,
		Span:     span,
		Message:  fmt.Sprintf("this function has cyclomatic complexity %d, above the limit of %d", complexity, ctx.Options.MaxComplexity),
		Fix:      "split the function into smaller pieces with one job each",
	})
}

// branchCount approximates cyclomatic complexity as one plus the number of
// decision points in the function body, not descending into nested
// functions.
func branchCount(t *pyast.Tree, def pyast.NodeID) int {
	body := t.ChildByRole(def, pyast.RoleBody)
	if body == pyast.NoNode {
		return 1
	}
	count := 1
	t.Walk(body, func(id pyast.NodeID) bool {
		switch t.Kind(id) {
		case pyast.KindFunctionDef, pyast.KindLambda:
			return false
		case pyast.KindIf, pyast.KindElif, pyast.KindWhile, pyast.KindFor,
			pyast.KindExcept, pyast.KindBoolOp, pyast.KindCondExpr,
			pyast.KindIfClause:
			count++
		}
		return true
	})
	return count
}

// ConstantCondition flags branch and loop conditions the folding pass
// proved constant. The `while True:` idiom is left alone when the literal
// True is spelled out; anything less direct still counts.
type ConstantCondition struct{}

func (ConstantCondition) Rule() Rule {
	return Rule{
		ID:       "constant-condition",
		Severity: diagnostic.SeverityConvention,
		Doc:      "a condition that always evaluates the same way is either a bug or clutter",
	}
}

func (ConstantCondition) Kinds() []pyast.Kind {
	return []pyast.Kind{pyast.KindIf, pyast.KindElif, pyast.KindWhile}
}

func (c ConstantCondition) Check(ctx *Context, id pyast.NodeID) {
	cond := ctx.Tree.ChildByRole(id, pyast.RoleCondition)
	if cond == pyast.NoNode {
		return
	}
	if ctx.Tree.Kind(id) == pyast.KindWhile && ctx.Tree.Kind(cond) == pyast.KindTrue {
		return
	}
	truth, known := ctx.Constants[cond]
	if !known {
		return
	}
	ctx.Emit(diagnostic.Diagnostic{
		Rule:     c.Rule().ID,
		Severity: c.Rule().Severity,
		Span:     ctx.Tree.Span(cond),
		Message:  fmt.Sprintf("this condition is always %v", truth),
		Fix:      "replace the condition with something that can vary, or drop the branch",
	})
}

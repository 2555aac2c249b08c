package cfg

import (
	"fmt"

	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/pyast"
)

// Rule identifiers for the control-flow analyses.
const (
	RuleUnreachableCode     = "unreachable-code"
	RuleDeadBranch          = "dead-branch"
	RuleMissingReturn       = "missing-return"
	RuleInconsistentReturns = "inconsistent-returns"
	RuleOneIteration        = "one-iteration"
)

// Analyze runs every control-flow analysis over the graph and returns the
// combined findings. constants carries the AST constant-folding results
// (condition node -> truth value) used by dead-branch detection; pass nil
// to skip it. Analyses never mutate the graph, so Analyze is idempotent.
func Analyze(g *Graph, constants map[pyast.NodeID]bool) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	diags = append(diags, Unreachable(g)...)
	diags = append(diags, DeadBranches(g, constants)...)
	diags = append(diags, CheckReturns(g)...)
	diags = append(diags, OneIteration(g)...)
	return diags
}

// Reachable computes the set of blocks reachable from entry by forward
// traversal over all edge kinds, including exception and loop-back edges.
func Reachable(g *Graph) map[BlockID]bool {
	visited := make(map[BlockID]bool, len(g.Blocks))
	stack := []BlockID{g.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, e := range g.Blocks[id].Out {
			if !visited[e.To] {
				stack = append(stack, e.To)
			}
		}
	}
	return visited
}

// Unreachable reports every non-empty block entry cannot reach. The span
// is taken from the block's first statement so students see the first
// dead line, not the construct that made it dead.
func Unreachable(g *Graph) []diagnostic.Diagnostic {
	reachable := Reachable(g)
	var diags []diagnostic.Diagnostic
	for _, b := range g.Blocks {
		if reachable[b.ID] {
			continue
		}
		span, ok := g.FirstSpan(b.ID)
		if !ok {
			continue
		}
		diags = append(diags, diagnostic.Diagnostic{
			Rule:     RuleUnreachableCode,
			Severity: diagnostic.SeverityWarning,
			Span:     span,
			Message:  "this code can never run: every path to it has already returned, raised, or jumped away",
			Fix:      "remove the dead code or restructure the statement above it",
		})
	}
	return diags
}

// DeadBranches marks the untaken side of branches whose condition the AST
// constant-folding pass proved constant. The target block is reported as
// unreachable even when the generic traversal can reach it.
func DeadBranches(g *Graph, constants map[pyast.NodeID]bool) []diagnostic.Diagnostic {
	if len(constants) == 0 {
		return nil
	}
	var diags []diagnostic.Diagnostic
	for _, b := range g.Blocks {
		if len(b.Stmts) == 0 {
			continue
		}
		cond := b.Stmts[len(b.Stmts)-1]
		truth, known := constants[cond]
		if !known {
			continue
		}
		for _, e := range b.Out {
			dead := (e.Kind == EdgeTrue && !truth) || (e.Kind == EdgeFalse && truth)
			if !dead {
				continue
			}
			span, ok := g.FirstSpan(e.To)
			if !ok {
				span = g.tree.Span(cond)
			}
			diags = append(diags, diagnostic.Diagnostic{
				Rule:     RuleDeadBranch,
				Severity: diagnostic.SeverityWarning,
				Span:     span,
				Message:  fmt.Sprintf("this branch can never run: its condition is always %v", truth),
				Fix:      "remove the branch or fix the condition so it can vary",
			})
		}
	}
	return diags
}

// CheckReturns verifies return-path coverage for function units: when some
// paths return a value, every path must. A function with an empty exit set
// (an intentional infinite loop) is left alone, as is a pure side-effect
// function that never returns a value anywhere.
func CheckReturns(g *Graph) []diagnostic.Diagnostic {
	if g.Unit.Kind != pyast.UnitFunction {
		return nil
	}
	reachable := Reachable(g)

	var valueReturns, bareReturns []*Block
	for _, b := range g.Blocks {
		if !reachable[b.ID] {
			continue
		}
		switch b.Return {
		case ReturnValue:
			valueReturns = append(valueReturns, b)
		case ReturnBare:
			bareReturns = append(bareReturns, b)
		}
	}

	defSpan := g.tree.Span(g.Unit.Def)
	if name := g.tree.ChildByRole(g.Unit.Def, pyast.RoleName); name != pyast.NoNode {
		defSpan = g.tree.Span(name)
	}

	var diags []diagnostic.Diagnostic
	if len(valueReturns) > 0 {
		for _, b := range bareReturns {
			span := g.tree.Span(b.Stmts[len(b.Stmts)-1])
			diags = append(diags, diagnostic.Diagnostic{
				Rule:     RuleInconsistentReturns,
				Severity: diagnostic.SeverityWarning,
				Span:     span,
				Message:  "this bare return gives back None while other paths in the function return a value",
				Fix:      "return an explicit value here, or None if that is intended",
			})
		}
		if g.FallOff != NoBlock {
			diags = append(diags, diagnostic.Diagnostic{
				Rule:     RuleMissingReturn,
				Severity: diagnostic.SeverityError,
				Span:     defSpan,
				Message:  fmt.Sprintf("function %q returns a value on some paths but can fall off the end without one", g.Unit.Name),
				Fix:      "add a return statement to every path through the function",
			})
		}
	} else if g.Unit.ReturnAnnotated && len(g.Exits) > 0 {
		diags = append(diags, diagnostic.Diagnostic{
			Rule:     RuleMissingReturn,
			Severity: diagnostic.SeverityError,
			Span:     defSpan,
			Message:  fmt.Sprintf("function %q declares a return type but never returns a value", g.Unit.Name),
			Fix:      "return a value of the annotated type, or drop the annotation",
		})
	}
	return diags
}

// OneIteration flags loops whose body can never come back to the header:
// every path through the body breaks, returns, or raises, so the loop
// runs at most one iteration. Loop-back edges originating in unreachable
// code, or from blocks the header does not dominate, do not count.
func OneIteration(g *Graph) []diagnostic.Diagnostic {
	reachable := Reachable(g)
	dom := Dominators(g)

	var diags []diagnostic.Diagnostic
	for _, lh := range g.LoopHeads {
		if !reachable[lh.Header] {
			continue
		}
		loopsBack := false
		for _, b := range g.Blocks {
			if !reachable[b.ID] || !dom[b.ID][lh.Header] {
				continue
			}
			for _, e := range b.Out {
				if e.Kind == EdgeLoopBack && e.To == lh.Header {
					loopsBack = true
					break
				}
			}
			if loopsBack {
				break
			}
		}
		if loopsBack {
			continue
		}
		diags = append(diags, diagnostic.Diagnostic{
			Rule:     RuleOneIteration,
			Severity: diagnostic.SeverityWarning,
			Span:     g.tree.Span(lh.Node),
			Message:  "this loop stops after its first iteration: every path through the body leaves the loop",
			Fix:      "move the break or return under a condition, or drop the loop",
		})
	}
	return diags
}

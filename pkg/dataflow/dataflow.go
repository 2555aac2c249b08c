// Package dataflow runs variable-level data-flow analyses over the
// control-flow graph of a single unit: definite assignment (is every use
// preceded by an assignment on every path?) and liveness (is any assigned
// value never read?). Both are classic worklist fixed points; the scoping
// model is a deliberate approximation of Python's, erring toward silence
// rather than false alarms.
package dataflow

import (
	"container/list"
	"fmt"

	"github.com/l3aro/pycritic/pkg/cfg"
	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/pyast"
)

// Rule identifiers for the data-flow analyses.
const (
	RulePossiblyUndefined   = "possibly-undefined"
	RuleRedundantAssignment = "redundant-assignment"
)

// Analyze runs definite assignment over any unit and liveness over function
// units, returning the combined findings. The graph is not mutated.
func Analyze(g *cfg.Graph) []diagnostic.Diagnostic {
	a := newAnalysis(g)
	diags := a.definiteAssignment()
	if g.Unit.Kind == pyast.UnitFunction {
		diags = append(diags, a.redundantAssignments()...)
	}
	return diags
}

type refKind uint8

const (
	refUse refKind = iota
	refDef
)

// ref is one variable occurrence inside a statement, in evaluation order.
type ref struct {
	name string
	node pyast.NodeID
	kind refKind
}

type analysis struct {
	g    *cfg.Graph
	tree *pyast.Tree

	reachable map[cfg.BlockID]bool

	// incoming holds each block's in-edges with their kinds; definite
	// assignment treats exception edges differently from normal ones.
	incoming map[cfg.BlockID][]cfg.Edge

	// refs[block] holds the block's variable occurrences, statement by
	// statement, in source evaluation order.
	refs map[cfg.BlockID][]ref

	// candidates are names assigned somewhere in the unit. Uses of names
	// never assigned here (builtins, enclosing-scope reads) are not ours
	// to judge.
	candidates map[string]bool

	// declared holds names the unit marked global or nonlocal; their
	// definition site lives outside this graph.
	declared map[string]bool

	// captured holds names referenced inside nested function or lambda
	// bodies. A value kept only for a closure is not redundant.
	captured map[string]bool
}

func newAnalysis(g *cfg.Graph) *analysis {
	a := &analysis{
		g:          g,
		tree:       g.Tree(),
		reachable:  cfg.Reachable(g),
		incoming:   make(map[cfg.BlockID][]cfg.Edge, len(g.Blocks)),
		refs:       make(map[cfg.BlockID][]ref, len(g.Blocks)),
		candidates: make(map[string]bool),
		declared:   make(map[string]bool),
		captured:   make(map[string]bool),
	}
	for _, b := range g.Blocks {
		for _, e := range b.Out {
			a.incoming[e.To] = append(a.incoming[e.To], e)
		}
	}
	for _, b := range g.Blocks {
		var rs []ref
		for _, stmt := range b.Stmts {
			rs = append(rs, a.stmtRefs(stmt)...)
		}
		a.refs[b.ID] = rs
		for _, r := range rs {
			if r.kind == refDef {
				a.candidates[r.name] = true
			}
		}
	}
	for _, p := range g.Unit.Params {
		a.candidates[p] = true
	}
	a.collectCaptured(g.Unit.Body)
	return a
}

// definiteAssignment is a forward must-analysis: a name is definitely
// assigned at a point only when every reachable path to it assigns the
// name first. in(entry) is the parameter set; elsewhere the in-set is the
// intersection of what the predecessors guarantee.
func (a *analysis) definiteAssignment() []diagnostic.Diagnostic {
	entry := make(map[string]bool, len(a.g.Unit.Params))
	for _, p := range a.g.Unit.Params {
		entry[p] = true
	}

	in := make(map[cfg.BlockID]map[string]bool, len(a.g.Blocks))
	out := make(map[cfg.BlockID]map[string]bool, len(a.g.Blocks))
	for _, b := range a.g.Blocks {
		if !a.reachable[b.ID] {
			continue
		}
		if b.ID == a.g.Entry {
			in[b.ID] = copyNames(entry)
		} else {
			// Optimistic start: assume everything assigned, let the
			// intersection whittle it down.
			full := make(map[string]bool, len(a.candidates))
			for name := range a.candidates {
				full[name] = true
			}
			in[b.ID] = full
		}
		out[b.ID] = a.transfer(b.ID, in[b.ID])
	}

	worklist := list.New()
	queued := make(map[cfg.BlockID]bool)
	for _, b := range a.g.Blocks {
		if a.reachable[b.ID] && b.ID != a.g.Entry {
			worklist.PushBack(b.ID)
			queued[b.ID] = true
		}
	}

	for worklist.Len() > 0 {
		front := worklist.Front()
		worklist.Remove(front)
		id := front.Value.(cfg.BlockID)
		queued[id] = false

		nextIn := a.join(id, in, out, entry)
		nextOut := a.transfer(id, nextIn)
		if namesEqual(nextIn, in[id]) && namesEqual(nextOut, out[id]) {
			continue
		}
		in[id] = nextIn
		out[id] = nextOut
		for _, e := range a.g.Block(id).Out {
			if a.reachable[e.To] && !queued[e.To] {
				worklist.PushBack(e.To)
				queued[e.To] = true
			}
		}
	}

	var diags []diagnostic.Diagnostic
	reported := make(map[pyast.NodeID]bool)
	for _, b := range a.g.Blocks {
		if !a.reachable[b.ID] {
			continue
		}
		cur := copyNames(in[b.ID])
		for _, r := range a.refs[b.ID] {
			switch r.kind {
			case refDef:
				cur[r.name] = true
			case refUse:
				if !a.candidates[r.name] || a.declared[r.name] || cur[r.name] || reported[r.node] {
					continue
				}
				reported[r.node] = true
				diags = append(diags, diagnostic.Diagnostic{
					Rule:     RulePossiblyUndefined,
					Severity: diagnostic.SeverityError,
					Span:     a.tree.Span(r.node),
					Message:  fmt.Sprintf("%q might be used before it is assigned: some path reaches this line without setting it", r.name),
					Fix:      "assign the variable on every path before this use, or give it an initial value up front",
				})
			}
		}
	}
	return diags
}

// join intersects what the predecessors guarantee on entry to a block. A
// normal edge delivers the predecessor's out-set; an exception edge
// delivers its in-set, because the exception may fire before any
// assignment in the protected block lands.
func (a *analysis) join(id cfg.BlockID, in, out map[cfg.BlockID]map[string]bool, entry map[string]bool) map[string]bool {
	if id == a.g.Entry {
		return copyNames(entry)
	}
	var result map[string]bool
	for _, e := range a.incoming[id] {
		if !a.reachable[e.From] {
			continue
		}
		contrib := out[e.From]
		if e.Kind == cfg.EdgeException {
			contrib = in[e.From]
		}
		if result == nil {
			result = copyNames(contrib)
			continue
		}
		for name := range result {
			if !contrib[name] {
				delete(result, name)
			}
		}
	}
	if result == nil {
		result = make(map[string]bool)
	}
	return result
}

func (a *analysis) transfer(id cfg.BlockID, in map[string]bool) map[string]bool {
	out := copyNames(in)
	for _, r := range a.refs[id] {
		if r.kind == refDef {
			out[r.name] = true
		}
	}
	return out
}

// redundantAssignments is a backward liveness pass over function units. An
// assignment to a plain local whose value no later statement on any path
// can read is dead weight, unless the right-hand side can have effects of
// its own or the name escapes into a closure.
func (a *analysis) redundantAssignments() []diagnostic.Diagnostic {
	liveIn := make(map[cfg.BlockID]map[string]bool, len(a.g.Blocks))
	for _, b := range a.g.Blocks {
		if a.reachable[b.ID] {
			liveIn[b.ID] = make(map[string]bool)
		}
	}

	changed := true
	for changed {
		changed = false
		for i := len(a.g.Blocks) - 1; i >= 0; i-- {
			b := a.g.Blocks[i]
			if !a.reachable[b.ID] {
				continue
			}
			live := a.liveOut(b.ID, liveIn)
			rs := a.refs[b.ID]
			for j := len(rs) - 1; j >= 0; j-- {
				switch rs[j].kind {
				case refDef:
					delete(live, rs[j].name)
				case refUse:
					live[rs[j].name] = true
				}
			}
			for name := range a.exceptionLive(b.ID, liveIn) {
				live[name] = true
			}
			if !namesEqual(live, liveIn[b.ID]) {
				liveIn[b.ID] = live
				changed = true
			}
		}
	}

	var diags []diagnostic.Diagnostic
	for _, b := range a.g.Blocks {
		if !a.reachable[b.ID] {
			continue
		}
		live := a.liveOut(b.ID, liveIn)
		exc := a.exceptionLive(b.ID, liveIn)
		for i := len(b.Stmts) - 1; i >= 0; i-- {
			stmt := b.Stmts[i]
			rs := a.stmtRefs(stmt)
			if name, ok := a.simpleAssignTarget(stmt); ok &&
				!live[name] && !exc[name] && !a.captured[name] && !a.declared[name] {
				diags = append(diags, diagnostic.Diagnostic{
					Rule:     RuleRedundantAssignment,
					Severity: diagnostic.SeverityWarning,
					Span:     a.tree.Span(stmt),
					Message:  fmt.Sprintf("the value assigned to %q here is never used before it is overwritten or goes out of scope", name),
					Fix:      "remove the assignment, or use the value before replacing it",
				})
			}
			for j := len(rs) - 1; j >= 0; j-- {
				switch rs[j].kind {
				case refDef:
					delete(live, rs[j].name)
				case refUse:
					live[rs[j].name] = true
				}
			}
		}
	}
	return diags
}

func (a *analysis) liveOut(id cfg.BlockID, liveIn map[cfg.BlockID]map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for _, e := range a.g.Block(id).Out {
		if e.Kind == cfg.EdgeException {
			continue
		}
		for name := range liveIn[e.To] {
			out[name] = true
		}
	}
	return out
}

// exceptionLive collects the names live on entry to the block's exception
// successors. The handler can take over after any statement, so the
// block's own kills never retire these names.
func (a *analysis) exceptionLive(id cfg.BlockID, liveIn map[cfg.BlockID]map[string]bool) map[string]bool {
	live := make(map[string]bool)
	for _, e := range a.g.Block(id).Out {
		if e.Kind != cfg.EdgeException {
			continue
		}
		for name := range liveIn[e.To] {
			live[name] = true
		}
	}
	return live
}

// simpleAssignTarget reports whether stmt is `name = expr` for a single
// bare identifier target with an effect-free right-hand side.
func (a *analysis) simpleAssignTarget(stmt pyast.NodeID) (string, bool) {
	if a.tree.Kind(stmt) == pyast.KindExprStmt {
		if kids := a.tree.Children(stmt); len(kids) == 1 {
			return a.simpleAssignTarget(kids[0])
		}
		return "", false
	}
	if a.tree.Kind(stmt) != pyast.KindAssign {
		return "", false
	}
	left := a.tree.ChildByRole(stmt, pyast.RoleLeft)
	right := a.tree.ChildByRole(stmt, pyast.RoleRight)
	if left == pyast.NoNode || a.tree.Kind(left) != pyast.KindIdentifier {
		return "", false
	}
	if right != pyast.NoNode && a.hasEffects(right) {
		return "", false
	}
	return a.tree.Text(left), true
}

// hasEffects reports whether evaluating the expression could do observable
// work: calls, awaits disguised as calls, or walrus bindings.
func (a *analysis) hasEffects(id pyast.NodeID) bool {
	effects := false
	a.tree.Walk(id, func(n pyast.NodeID) bool {
		switch a.tree.Kind(n) {
		case pyast.KindCall, pyast.KindNamedExpr:
			effects = true
			return false
		case pyast.KindLambda, pyast.KindFunctionDef, pyast.KindClassDef:
			return false
		}
		return !effects
	})
	return effects
}

func copyNames(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		if v {
			out[k] = v
		}
	}
	return out
}

func namesEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

package checkers

import (
	"fmt"

	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/pyast"
)

// ComprehensionShadowing flags comprehension iteration variables that reuse
// a name already bound in the enclosing function or module. The
// comprehension gets its own scope in Python 3, so the outer name is
// untouched, which is exactly what trips students up when they expect the
// loop variable to leak.
type ComprehensionShadowing struct{}

func (ComprehensionShadowing) Rule() Rule {
	return Rule{
		ID:       "shadowing-in-comprehension",
		Severity: diagnostic.SeverityWarning,
		Doc:      "a comprehension variable that reuses an outer name hides it inside the comprehension",
	}
}

func (ComprehensionShadowing) Kinds() []pyast.Kind {
	return []pyast.Kind{pyast.KindForInClause}
}

func (c ComprehensionShadowing) Check(ctx *Context, id pyast.NodeID) {
	t := ctx.Tree
	comp := enclosingComprehension(t, id)
	if comp == pyast.NoNode {
		return
	}
	scope := t.Ancestor(comp, pyast.KindFunctionDef)
	if scope == pyast.NoNode {
		scope = t.Root()
	}
	bound := scopeBindings(t, scope, comp)

	target := t.ChildByRole(id, pyast.RoleLeft)
	if target == pyast.NoNode {
		return
	}
	t.Walk(target, func(n pyast.NodeID) bool {
		if t.Kind(n) != pyast.KindIdentifier {
			return true
		}
		name := t.Text(n)
		if !bound[name] {
			return true
		}
		ctx.Emit(diagnostic.Diagnostic{
			Rule:     c.Rule().ID,
			Severity: c.Rule().Severity,
			Span:     t.Span(n),
			Message:  fmt.Sprintf("the comprehension variable %q shadows a name from the enclosing scope", name),
			Fix:      "pick a fresh name for the comprehension variable",
		})
		return true
	})
}

func enclosingComprehension(t *pyast.Tree, id pyast.NodeID) pyast.NodeID {
	for cur := t.Parent(id); cur != pyast.NoNode; cur = t.Parent(cur) {
		if t.Kind(cur).IsComprehension() {
			return cur
		}
	}
	return pyast.NoNode
}

// scopeBindings collects the names bound directly in a scope: parameters,
// assignment targets, and for-loop targets. The comprehension under
// inspection and any nested functions are skipped.
func scopeBindings(t *pyast.Tree, scope, skip pyast.NodeID) map[string]bool {
	bound := make(map[string]bool)
	addTargets := func(target pyast.NodeID) {
		if target == pyast.NoNode {
			return
		}
		t.Walk(target, func(n pyast.NodeID) bool {
			if t.Kind(n) == pyast.KindIdentifier {
				bound[t.Text(n)] = true
			}
			return true
		})
	}

	if t.Kind(scope) == pyast.KindFunctionDef {
		if params := t.ChildByRole(scope, pyast.RoleParameters); params != pyast.NoNode {
			addTargets(params)
		}
	}
	body := scope
	if b := t.ChildByRole(scope, pyast.RoleBody); b != pyast.NoNode {
		body = b
	}
	t.Walk(body, func(n pyast.NodeID) bool {
		if n == skip {
			return false
		}
		switch t.Kind(n) {
		case pyast.KindFunctionDef, pyast.KindLambda, pyast.KindClassDef:
			return n == scope
		case pyast.KindAssign, pyast.KindNamedExpr, pyast.KindFor:
			addTargets(t.ChildByRole(n, pyast.RoleLeft))
		}
		return true
	})
	return bound
}

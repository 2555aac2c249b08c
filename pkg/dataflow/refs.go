package dataflow

import (
	"github.com/l3aro/pycritic/pkg/pyast"
)

// stmtRefs extracts the variable occurrences of one block statement in
// evaluation order: right-hand sides before the targets they feed. Compound
// statements appear in blocks as their own header node, so nested bodies
// (KindBlock children) are never descended into here; the builder already
// placed their statements in other blocks.
func (a *analysis) stmtRefs(stmt pyast.NodeID) []ref {
	t := a.tree
	var rs []ref
	switch t.Kind(stmt) {
	case pyast.KindExprStmt:
		// The grammar wraps assignments and bare expressions in an
		// expression_statement node; the interesting structure is inside.
		for _, c := range t.Children(stmt) {
			rs = append(rs, a.stmtRefs(c)...)
		}

	case pyast.KindAssign:
		rs = a.exprRefs(rs, t.ChildByRole(stmt, pyast.RoleRight))
		rs = a.targetRefs(rs, t.ChildByRole(stmt, pyast.RoleLeft))

	case pyast.KindAugAssign:
		left := t.ChildByRole(stmt, pyast.RoleLeft)
		rs = a.exprRefs(rs, left)
		rs = a.exprRefs(rs, t.ChildByRole(stmt, pyast.RoleRight))
		rs = a.targetRefs(rs, left)

	case pyast.KindFor:
		rs = a.exprRefs(rs, t.ChildByRole(stmt, pyast.RoleRight))
		rs = a.targetRefs(rs, t.ChildByRole(stmt, pyast.RoleLeft))

	case pyast.KindWith, pyast.KindExcept:
		for _, c := range t.Children(stmt) {
			if t.Kind(c) == pyast.KindBlock {
				continue
			}
			rs = a.exprRefs(rs, c)
		}

	case pyast.KindFunctionDef, pyast.KindClassDef:
		if name := t.ChildByRole(stmt, pyast.RoleName); name != pyast.NoNode {
			rs = append(rs, ref{name: t.Text(name), node: name, kind: refDef})
		}

	case pyast.KindDecoratedDef:
		for _, c := range t.Children(stmt) {
			switch t.Kind(c) {
			case pyast.KindFunctionDef, pyast.KindClassDef:
				rs = append(rs, a.stmtRefs(c)...)
			default:
				rs = a.exprRefs(rs, c)
			}
		}

	case pyast.KindImport, pyast.KindImportFrom:
		// Every bound name in an import counts as a definition. The
		// module path identifiers come along too, which only makes the
		// analysis quieter, never noisier.
		t.Walk(stmt, func(n pyast.NodeID) bool {
			if t.Kind(n) == pyast.KindIdentifier {
				rs = append(rs, ref{name: t.Text(n), node: n, kind: refDef})
			}
			return true
		})

	case pyast.KindGlobal, pyast.KindNonlocal:
		for _, c := range t.Children(stmt) {
			if t.Kind(c) == pyast.KindIdentifier {
				name := t.Text(c)
				a.declared[name] = true
				rs = append(rs, ref{name: name, node: c, kind: refDef})
			}
		}

	case pyast.KindDelete:
		// `del x` reads the binding before removing it; treating the
		// removal itself is out of scope for the must-assign model.
		for _, c := range t.Children(stmt) {
			rs = a.exprRefs(rs, c)
		}

	default:
		// Expression statements, return/raise values, assert conditions,
		// and bare condition nodes lifted into branch headers.
		rs = a.exprRefs(rs, stmt)
	}
	return rs
}

// exprRefs appends the variable uses (and embedded walrus or alias
// definitions) of an expression subtree. Nested function, class, and lambda
// bodies are opaque: their reads and writes belong to their own unit.
func (a *analysis) exprRefs(rs []ref, id pyast.NodeID) []ref {
	if id == pyast.NoNode {
		return rs
	}
	t := a.tree
	switch t.Kind(id) {
	case pyast.KindIdentifier:
		return append(rs, ref{name: t.Text(id), node: id, kind: refUse})

	case pyast.KindAttribute:
		// Only the object is a variable read; the attribute name is not.
		if kids := t.Children(id); len(kids) > 0 {
			rs = a.exprRefs(rs, kids[0])
		}
		return rs

	case pyast.KindKeywordArg:
		return a.exprRefs(rs, t.ChildByRole(id, pyast.RoleRight))

	case pyast.KindNamedExpr:
		rs = a.exprRefs(rs, t.ChildByRole(id, pyast.RoleRight))
		return a.targetRefs(rs, t.ChildByRole(id, pyast.RoleLeft))

	case pyast.KindAsPattern:
		if kids := t.Children(id); len(kids) > 0 {
			rs = a.exprRefs(rs, kids[0])
		}
		return a.targetRefs(rs, t.ChildByRole(id, pyast.RoleName))

	case pyast.KindForInClause:
		// Comprehension iteration targets are modeled as ordinary
		// definitions; Python 3 confines them to the comprehension, but
		// widening their scope only suppresses findings.
		rs = a.exprRefs(rs, t.ChildByRole(id, pyast.RoleRight))
		return a.targetRefs(rs, t.ChildByRole(id, pyast.RoleLeft))

	case pyast.KindLambda, pyast.KindFunctionDef, pyast.KindClassDef,
		pyast.KindDecoratedDef, pyast.KindBlock:
		return rs
	}
	for _, c := range t.Children(id) {
		rs = a.exprRefs(rs, c)
	}
	return rs
}

// targetRefs appends the definitions made by an assignment target. Stores
// through subscripts and attributes define nothing new; they read the
// container instead.
func (a *analysis) targetRefs(rs []ref, id pyast.NodeID) []ref {
	if id == pyast.NoNode {
		return rs
	}
	t := a.tree
	switch t.Kind(id) {
	case pyast.KindIdentifier:
		return append(rs, ref{name: t.Text(id), node: id, kind: refDef})
	case pyast.KindSubscript, pyast.KindAttribute:
		return a.exprRefs(rs, id)
	default:
		for _, c := range t.Children(id) {
			rs = a.targetRefs(rs, c)
		}
	}
	return rs
}

// collectCaptured records every identifier mentioned inside nested function
// or lambda bodies under the unit body. These names may be closed over, so
// the liveness pass must treat them as always live.
func (a *analysis) collectCaptured(body pyast.NodeID) {
	t := a.tree
	unitDef := a.g.Unit.Def
	t.Walk(body, func(n pyast.NodeID) bool {
		if n == unitDef || n == body {
			return true
		}
		switch t.Kind(n) {
		case pyast.KindFunctionDef, pyast.KindLambda:
			t.Walk(n, func(inner pyast.NodeID) bool {
				if t.Kind(inner) == pyast.KindIdentifier {
					a.captured[t.Text(inner)] = true
				}
				return true
			})
			return false
		}
		return true
	})
}

package pyast

// UnitKind distinguishes the two analyzable unit shapes.
type UnitKind string

const (
	UnitModule   UnitKind = "module"
	UnitFunction UnitKind = "function"
)

// Unit is one independently analyzable body: the module itself or a single
// function. Nested function bodies belong to their own unit and are treated
// as opaque bindings by the enclosing unit's control-flow analysis.
type Unit struct {
	Name   string
	Kind   UnitKind
	Def    NodeID // function_definition node, or the module root
	Body   NodeID // block whose statements the CFG is built from
	Params []string

	// ReturnAnnotated is true when the def carries a return annotation
	// other than None, strengthening the missing-return analysis.
	ReturnAnnotated bool
}

// Units enumerates the module unit followed by every function and method
// unit in source order. Methods are qualified as Class.method, nested
// functions as outer.inner.
func (t *Tree) Units() []Unit {
	units := []Unit{{
		Name: "<module>",
		Kind: UnitModule,
		Def:  t.root,
		Body: t.root,
	}}
	t.collectFunctions(t.root, "", &units)
	return units
}

func (t *Tree) collectFunctions(id NodeID, prefix string, units *[]Unit) {
	for _, c := range t.Children(id) {
		def := c
		if t.Kind(def) == KindDecoratedDef {
			if inner := t.firstOfKind(def, KindFunctionDef); inner != NoNode {
				def = inner
			} else if inner := t.firstOfKind(def, KindClassDef); inner != NoNode {
				def = inner
			}
		}

		switch t.Kind(def) {
		case KindFunctionDef:
			name := t.Text(t.ChildByRole(def, RoleName))
			qualified := name
			if prefix != "" {
				qualified = prefix + "." + name
			}
			body := t.ChildByRole(def, RoleBody)
			*units = append(*units, Unit{
				Name:            qualified,
				Kind:            UnitFunction,
				Def:             def,
				Body:            body,
				Params:          t.paramNames(def),
				ReturnAnnotated: t.returnAnnotated(def),
			})
			if body != NoNode {
				t.collectFunctions(body, qualified, units)
			}
		case KindClassDef:
			name := t.Text(t.ChildByRole(def, RoleName))
			qualified := name
			if prefix != "" {
				qualified = prefix + "." + name
			}
			if body := t.ChildByRole(def, RoleBody); body != NoNode {
				t.collectFunctions(body, qualified, units)
			}
		default:
			// Compound statements can hide defs (e.g. a def inside an if).
			t.collectFunctions(c, prefix, units)
		}
	}
}

// firstOfKind returns the first direct child of the given kind.
func (t *Tree) firstOfKind(id NodeID, kind Kind) NodeID {
	for _, c := range t.Children(id) {
		if t.Kind(c) == kind {
			return c
		}
	}
	return NoNode
}

// paramNames extracts the bound parameter names of a function definition,
// skipping annotations and default-value expressions.
func (t *Tree) paramNames(def NodeID) []string {
	params := t.ChildByRole(def, RoleParameters)
	if params == NoNode {
		return nil
	}
	var names []string
	for _, p := range t.Children(params) {
		switch t.Kind(p) {
		case KindIdentifier:
			names = append(names, t.Text(p))
		default:
			// typed_parameter, default_parameter, splat patterns: the bound
			// name is either the role-tagged name child or the first
			// identifier in the parameter node.
			if name := t.ChildByRole(p, RoleName); name != NoNode {
				names = append(names, t.Text(name))
			} else if ident := t.firstOfKind(p, KindIdentifier); ident != NoNode {
				names = append(names, t.Text(ident))
			}
		}
	}
	return names
}

// returnAnnotated reports whether the def declares a non-None return type.
func (t *Tree) returnAnnotated(def NodeID) bool {
	ann := t.ChildByRole(def, RoleReturnType)
	if ann == NoNode {
		return false
	}
	return t.Text(ann) != "None"
}

package checkers

import (
	"fmt"
	"strings"

	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/pyast"
)

// ForbiddenImport flags imports of modules on the configured deny-list,
// including their submodules.
type ForbiddenImport struct{}

func (ForbiddenImport) Rule() Rule {
	return Rule{
		ID:       "forbidden-import",
		Severity: diagnostic.SeverityError,
		Doc:      "imports of deny-listed modules are not allowed",
	}
}

func (ForbiddenImport) Kinds() []pyast.Kind {
	return []pyast.Kind{pyast.KindImport, pyast.KindImportFrom}
}

func (c ForbiddenImport) Check(ctx *Context, id pyast.NodeID) {
	for _, mod := range importedModules(ctx.Tree, id) {
		for _, banned := range ctx.Options.ForbiddenImports {
			if mod != banned && !strings.HasPrefix(mod, banned+".") {
				continue
			}
			ctx.Emit(diagnostic.Diagnostic{
				Rule:     c.Rule().ID,
				Severity: c.Rule().Severity,
				Span:     ctx.Tree.Span(id),
				Message:  fmt.Sprintf("the module %q may not be imported here", mod),
				Fix:      "solve the problem without this module",
			})
			break
		}
	}
}

// importedModules lists the module paths a statement imports. For
// `from m import ...` only m matters; for `import a, b.c as d` each
// imported path does.
func importedModules(t *pyast.Tree, stmt pyast.NodeID) []string {
	kids := t.Children(stmt)
	if len(kids) == 0 {
		return nil
	}
	if t.Kind(stmt) == pyast.KindImportFrom {
		return []string{t.Text(kids[0])}
	}
	var mods []string
	for _, c := range kids {
		text := t.Text(c)
		// aliased_import: the module path is its first child.
		if inner := t.Children(c); len(inner) > 0 && strings.Contains(text, " as ") {
			text = t.Text(inner[0])
		}
		mods = append(mods, text)
	}
	return mods
}

// GlobalStatement flags `global` declarations inside function bodies.
// A function that rebinds module state hides one of its outputs from the
// call site; the module-level `global` no-op is left alone.
type GlobalStatement struct{}

func (GlobalStatement) Rule() Rule {
	return Rule{
		ID:       "forbidden-construct",
		Severity: diagnostic.SeverityError,
		Doc:      "global statements hide a function's inputs and outputs",
	}
}

func (GlobalStatement) Kinds() []pyast.Kind {
	return []pyast.Kind{pyast.KindGlobal}
}

func (c GlobalStatement) Check(ctx *Context, id pyast.NodeID) {
	if ctx.Tree.Ancestor(id, pyast.KindFunctionDef) == pyast.NoNode {
		return
	}
	ctx.Emit(diagnostic.Diagnostic{
		Rule:     c.Rule().ID,
		Severity: c.Rule().Severity,
		Span:     ctx.Tree.Span(id),
		Message:  "this global statement rebinds module state from inside the function",
		Fix:      "take the value as a parameter and return the new one instead of assigning through global",
	})
}

// ForbiddenIOFunction flags calls to console and file I/O builtins inside
// function bodies, where assignments usually want pure logic that is
// testable without stdin or the filesystem. Module-level calls are allowed;
// that is where a main block legitimately talks to the user.
type ForbiddenIOFunction struct{}

func (ForbiddenIOFunction) Rule() Rule {
	return Rule{
		ID:       "forbidden-io-function",
		Severity: diagnostic.SeverityError,
		Doc:      "functions should compute results, not perform console or file I/O",
	}
}

func (ForbiddenIOFunction) Kinds() []pyast.Kind {
	return []pyast.Kind{pyast.KindCall}
}

func (c ForbiddenIOFunction) Check(ctx *Context, id pyast.NodeID) {
	callee := ctx.Tree.ChildByRole(id, pyast.RoleCallee)
	if callee == pyast.NoNode || ctx.Tree.Kind(callee) != pyast.KindIdentifier {
		return
	}
	name := ctx.Tree.Text(callee)
	banned := false
	for _, fn := range ctx.Options.ForbiddenIOFunctions {
		if name == fn {
			banned = true
			break
		}
	}
	if !banned || ctx.Tree.Ancestor(id, pyast.KindFunctionDef) == pyast.NoNode {
		return
	}
	ctx.Emit(diagnostic.Diagnostic{
		Rule:     c.Rule().ID,
		Severity: c.Rule().Severity,
		Span:     ctx.Tree.Span(id),
		Message:  fmt.Sprintf("calling %s inside a function mixes I/O into the logic", name),
		Fix:      "take the value as a parameter or return it, and do the I/O at the top level",
	})
}

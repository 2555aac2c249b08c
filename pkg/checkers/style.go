package checkers

import (
	"fmt"
	"regexp"

	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/pyast"
)

var (
	snakeCase = regexp.MustCompile(`^_{0,2}[a-z][a-z0-9_]*_{0,2}$`)
	capWords  = regexp.MustCompile(`^_?[A-Z][A-Za-z0-9]*$`)
)

// NamingConvention enforces PEP 8 names: snake_case for functions and
// methods, CapWords for classes.
type NamingConvention struct{}

func (NamingConvention) Rule() Rule {
	return Rule{
		ID:       "naming-convention",
		Severity: diagnostic.SeverityConvention,
		Doc:      "function and method names use snake_case, class names use CapWords",
	}
}

func (NamingConvention) Kinds() []pyast.Kind {
	return []pyast.Kind{pyast.KindFunctionDef, pyast.KindClassDef}
}

func (c NamingConvention) Check(ctx *Context, id pyast.NodeID) {
	name := ctx.Tree.ChildByRole(id, pyast.RoleName)
	if name == pyast.NoNode {
		return
	}
	text := ctx.Tree.Text(name)
	var want string
	switch ctx.Tree.Kind(id) {
	case pyast.KindFunctionDef:
		if snakeCase.MatchString(text) {
			return
		}
		want = "snake_case"
	case pyast.KindClassDef:
		if capWords.MatchString(text) {
			return
		}
		want = "CapWords"
	}
	ctx.Emit(diagnostic.Diagnostic{
		Rule:     c.Rule().ID,
		Severity: c.Rule().Severity,
		Span:     ctx.Tree.Span(name),
		Message:  fmt.Sprintf("the name %q does not follow the %s convention", text, want),
		Fix:      fmt.Sprintf("rename it in %s style", want),
	})
}

// DeepNesting flags compound statements buried under more enclosing suites
// than the configured maximum. Only the shallowest offending statement of a
// chain is reported; everything inside it is implied.
type DeepNesting struct{}

func (DeepNesting) Rule() Rule {
	return Rule{
		ID:       "deep-nesting",
		Severity: diagnostic.SeverityConvention,
		Doc:      "code nested deeper than the configured limit is hard to follow",
	}
}

func (DeepNesting) Kinds() []pyast.Kind {
	return []pyast.Kind{pyast.KindIf, pyast.KindWhile, pyast.KindFor,
		pyast.KindWith, pyast.KindTry}
}

func (c DeepNesting) Check(ctx *Context, id pyast.NodeID) {
	depth := ctx.Tree.Depth(id)
	if depth != ctx.Options.MaxNestingDepth+1 {
		return
	}
	ctx.Emit(diagnostic.Diagnostic{
		Rule:     c.Rule().ID,
		Severity: c.Rule().Severity,
		Span:     ctx.Tree.Span(id),
		Message:  fmt.Sprintf("this statement sits %d levels deep, past the limit of %d", depth, ctx.Options.MaxNestingDepth),
		Fix:      "pull the inner logic into a helper function, or flatten the conditions",
	})
}

// BareExcept flags `except:` clauses with no exception class, which swallow
// everything including KeyboardInterrupt.
type BareExcept struct{}

func (BareExcept) Rule() Rule {
	return Rule{
		ID:       "bare-except",
		Severity: diagnostic.SeverityWarning,
		Doc:      "an except clause without an exception class catches far too much",
	}
}

func (BareExcept) Kinds() []pyast.Kind {
	return []pyast.Kind{pyast.KindExcept}
}

func (c BareExcept) Check(ctx *Context, id pyast.NodeID) {
	for _, child := range ctx.Tree.Children(id) {
		switch ctx.Tree.Kind(child) {
		case pyast.KindBlock, pyast.KindComment:
		default:
			return
		}
	}
	ctx.Emit(diagnostic.Diagnostic{
		Rule:     c.Rule().ID,
		Severity: c.Rule().Severity,
		Span:     ctx.Tree.Span(id),
		Message:  "this bare except catches every exception, including the ones you want to see",
		Fix:      "name the exception class you expect, or use `except Exception` at minimum",
	})
}

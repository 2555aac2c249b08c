// Package checkers hosts the AST rule checkers and the registry that runs
// them. All checkers for a file share one pre-order traversal: the registry
// dispatches each visited node to the checkers subscribed to its kind, so
// adding a checker never adds another pass over the tree.
package checkers

import (
	"fmt"

	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/pyast"
)

// Rule describes a checker's identity for reporting and configuration.
type Rule struct {
	ID       string
	Severity diagnostic.Severity
	Doc      string
}

// Checker inspects AST nodes of the kinds it subscribes to and emits
// findings through the context. Implementations must be stateless across
// files; any per-file state belongs on the Context.
type Checker interface {
	Rule() Rule
	Kinds() []pyast.Kind
	Check(ctx *Context, id pyast.NodeID)
}

// Options carries the configurable thresholds and deny-lists checkers
// consult. Zero values fall back to the defaults below.
type Options struct {
	MaxNestingDepth      int
	MaxComplexity        int
	ForbiddenImports     []string
	ForbiddenIOFunctions []string
}

// DefaultOptions mirrors the thresholds a teaching setting usually wants.
func DefaultOptions() Options {
	return Options{
		MaxNestingDepth:      3,
		MaxComplexity:        10,
		ForbiddenIOFunctions: []string{"input", "print", "open"},
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxNestingDepth <= 0 {
		o.MaxNestingDepth = def.MaxNestingDepth
	}
	if o.MaxComplexity <= 0 {
		o.MaxComplexity = def.MaxComplexity
	}
	if o.ForbiddenIOFunctions == nil {
		o.ForbiddenIOFunctions = def.ForbiddenIOFunctions
	}
	return o
}

// Context is the per-file state shared by every checker during one
// traversal. Complexity maps each function definition node to the
// cyclomatic complexity of its control-flow graph; Constants carries the
// truth values the folding pass proved.
type Context struct {
	Tree       *pyast.Tree
	Options    Options
	Complexity map[pyast.NodeID]int
	Constants  map[pyast.NodeID]bool

	emit func(diagnostic.Diagnostic)
}

// Emit records one finding.
func (c *Context) Emit(d diagnostic.Diagnostic) { c.emit(d) }

// Registry owns a set of checkers indexed by the node kinds they watch.
type Registry struct {
	byKind map[pyast.Kind][]Checker
	all    []Checker
}

// NewRegistry builds a registry over the given checkers.
func NewRegistry(cs ...Checker) *Registry {
	r := &Registry{byKind: make(map[pyast.Kind][]Checker)}
	for _, c := range cs {
		r.Register(c)
	}
	return r
}

// DefaultRegistry returns a registry with every built-in checker enabled.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NamingConvention{},
		DeepNesting{},
		BareExcept{},
		GlobalStatement{},
		HighComplexity{},
		ConstantCondition{},
		ForbiddenImport{},
		ForbiddenIOFunction{},
		ComprehensionShadowing{},
	)
}

// Register adds a checker to the dispatch table.
func (r *Registry) Register(c Checker) {
	r.all = append(r.all, c)
	for _, k := range c.Kinds() {
		r.byKind[k] = append(r.byKind[k], c)
	}
}

// Rules lists the registered rules in registration order.
func (r *Registry) Rules() []Rule {
	rules := make([]Rule, 0, len(r.all))
	for _, c := range r.all {
		rules = append(rules, c.Rule())
	}
	return rules
}

// Run traverses the tree once in pre-order, invoking subscribed checkers at
// each node, and returns everything they emitted. A checker that panics is
// disabled for the rest of the file and replaced by a single
// analysis-incomplete finding naming its rule; the other checkers keep
// running.
func (r *Registry) Run(ctx *Context, disabled map[string]bool) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	ctx.Options = ctx.Options.withDefaults()
	ctx.emit = func(d diagnostic.Diagnostic) { diags = append(diags, d) }

	crashed := make(map[string]bool)
	ctx.Tree.Walk(ctx.Tree.Root(), func(id pyast.NodeID) bool {
		for _, c := range r.byKind[ctx.Tree.Kind(id)] {
			rule := c.Rule()
			if disabled[rule.ID] || crashed[rule.ID] {
				continue
			}
			if err := r.invoke(c, ctx, id); err != nil {
				crashed[rule.ID] = true
				diags = append(diags, diagnostic.Diagnostic{
					Rule:     diagnostic.RuleAnalysisIncomplete,
					Severity: diagnostic.SeverityInfo,
					Span:     ctx.Tree.Span(id),
					Message:  fmt.Sprintf("the %s check failed partway through this file and was skipped: %v", rule.ID, err),
				})
			}
		}
		return true
	})
	return diags
}

// invoke runs one checker call under a recover so a buggy checker cannot
// take the whole analysis down.
func (r *Registry) invoke(c Checker, ctx *Context, id pyast.NodeID) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	c.Check(ctx, id)
	return nil
}

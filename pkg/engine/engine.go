// Package engine orchestrates the full analysis pipeline for Python
// sources: parse, build control-flow graphs per unit, run the flow and
// data-flow analyses, run the AST checkers in one shared traversal, and
// aggregate everything into one ordered report per file.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/pycritic/internal/log"
	"github.com/l3aro/pycritic/pkg/cache"
	"github.com/l3aro/pycritic/pkg/cfg"
	"github.com/l3aro/pycritic/pkg/checkers"
	"github.com/l3aro/pycritic/pkg/dataflow"
	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/pyast"
)

// Options configures an analysis engine.
type Options struct {
	// Registry supplies the AST checkers; nil means every built-in.
	Registry *checkers.Registry

	// Checkers carries thresholds and deny-lists for the rule checkers.
	Checkers checkers.Options

	// DisabledRules lists rule ids to suppress entirely.
	DisabledRules []string

	// Workers bounds file-level parallelism; 0 means GOMAXPROCS. Within
	// one file everything runs sequentially, so checkers stay free of
	// locking concerns.
	Workers int

	// Cache, when set, short-circuits analysis for unchanged content.
	Cache *cache.ReportCache

	// ConfigFingerprint distinguishes cache entries produced under
	// different configurations.
	ConfigFingerprint string

	Logger log.Logger
}

// Engine analyzes Python source files. It is safe for concurrent use; all
// per-file state lives on the stack of each analysis.
type Engine struct {
	opts     Options
	registry *checkers.Registry
	disabled map[string]bool
	logger   log.Logger
}

// New creates an engine.
func New(opts Options) *Engine {
	e := &Engine{opts: opts, registry: opts.Registry, logger: opts.Logger}
	if e.registry == nil {
		e.registry = checkers.DefaultRegistry()
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.opts.Workers <= 0 {
		e.opts.Workers = runtime.GOMAXPROCS(0)
	}
	e.disabled = make(map[string]bool, len(opts.DisabledRules))
	for _, r := range opts.DisabledRules {
		e.disabled[r] = true
	}
	return e
}

// Rules lists the rules the engine's registry can report, for `rules`
// style listings.
func (e *Engine) Rules() []checkers.Rule {
	return e.registry.Rules()
}

// AnalyzeSource analyzes one in-memory source buffer and returns its
// report. A file that fails to parse yields a report with a single
// analysis-incomplete finding and no partial results; the error return is
// reserved for infrastructure failures.
func (e *Engine) AnalyzeSource(path string, src []byte) (*diagnostic.Report, error) {
	var key string
	if e.opts.Cache != nil {
		key = cache.Key(src, e.opts.ConfigFingerprint)
		if report, ok := e.opts.Cache.Get(key); ok {
			e.logger.Debug("cache hit", "path", path)
			return report, nil
		}
	}

	report := e.analyze(path, src)

	if e.opts.Cache != nil {
		e.opts.Cache.Put(key, report)
	}
	return report, nil
}

// AnalyzeFile reads and analyzes one file.
func (e *Engine) AnalyzeFile(path string) (*diagnostic.Report, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return e.AnalyzeSource(path, src)
}

// AnalyzeFiles analyzes many files concurrently, bounded by the worker
// limit. Files never share state, so this is the only place the engine
// fans out. Reports come back in input order regardless of which worker
// finished first.
func (e *Engine) AnalyzeFiles(ctx context.Context, paths []string) ([]*diagnostic.Report, error) {
	reports := make([]*diagnostic.Report, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := e.AnalyzeFile(path)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// analyze runs the single-file pipeline.
func (e *Engine) analyze(path string, src []byte) *diagnostic.Report {
	tree, err := pyast.Parse(path, src)
	if err != nil {
		return e.malformedReport(path, err)
	}

	agg := diagnostic.NewAggregator()
	emit := func(diags []diagnostic.Diagnostic) {
		for _, d := range diags {
			if !e.disabled[d.Rule] {
				agg.Add(d)
			}
		}
	}

	constants := checkers.FoldConstants(tree)
	complexity := make(map[pyast.NodeID]int)

	for _, unit := range tree.Units() {
		graph, incomplete := cfg.Build(tree, unit)
		for _, node := range incomplete {
			emit([]diagnostic.Diagnostic{{
				Rule:     diagnostic.RuleAnalysisIncomplete,
				Severity: diagnostic.SeverityInfo,
				Span:     tree.Span(node),
				Message:  fmt.Sprintf("this %s is not modeled by the control-flow analysis; findings in %q may be incomplete", tree.Kind(node), unit.Name),
			}})
		}
		emit(cfg.Analyze(graph, constants))
		emit(dataflow.Analyze(graph))
		if unit.Kind == pyast.UnitFunction {
			complexity[unit.Def] = graph.CyclomaticComplexity()
		}
	}

	cctx := &checkers.Context{
		Tree:       tree,
		Options:    e.opts.Checkers,
		Complexity: complexity,
		Constants:  constants,
	}
	emit(e.registry.Run(cctx, e.disabled))

	diags := agg.Result()
	return &diagnostic.Report{
		Path:        path,
		Diagnostics: diags,
		Counts:      diagnostic.Tally(diags),
	}
}

// malformedReport wraps a parse failure as the file's only finding. No
// partial results accompany it: a broken parse tree produces junk
// diagnostics that would bury the one message that matters.
func (e *Engine) malformedReport(path string, err error) *diagnostic.Report {
	span := pyast.Span{StartLine: 1, EndLine: 1}
	msg := "the file could not be parsed"
	var malformed *pyast.MalformedInputError
	if errors.As(err, &malformed) {
		span = malformed.Span
		msg = fmt.Sprintf("the file could not be parsed: %s", malformed.Reason)
	}
	e.logger.Debug("parse failed", "path", path, "error", err)

	diags := []diagnostic.Diagnostic{{
		Rule:     diagnostic.RuleAnalysisIncomplete,
		Severity: diagnostic.SeverityError,
		Span:     span,
		Message:  msg,
		Fix:      "fix the syntax error first; analysis resumes once the file parses",
	}}
	return &diagnostic.Report{
		Path:        path,
		Diagnostics: diags,
		Counts:      diagnostic.Tally(diags),
	}
}

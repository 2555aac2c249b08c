package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/pycritic/pkg/cfg"
	"github.com/l3aro/pycritic/pkg/dataflow"
	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/engine"
)

// flowRules are produced by the control-flow and data-flow analyses rather
// than by registry checkers, so they are listed here by hand.
var flowRules = []struct {
	id       string
	severity diagnostic.Severity
	doc      string
}{
	{cfg.RuleUnreachableCode, diagnostic.SeverityWarning, "code that no execution path can reach"},
	{cfg.RuleDeadBranch, diagnostic.SeverityWarning, "a branch whose condition is provably constant"},
	{cfg.RuleMissingReturn, diagnostic.SeverityError, "a path through the function leaves without the value other paths return"},
	{cfg.RuleInconsistentReturns, diagnostic.SeverityWarning, "bare return mixed with value returns"},
	{cfg.RuleOneIteration, diagnostic.SeverityWarning, "a loop whose body always leaves after the first pass"},
	{dataflow.RulePossiblyUndefined, diagnostic.SeverityError, "a variable read that some path reaches before any assignment"},
	{dataflow.RuleRedundantAssignment, diagnostic.SeverityWarning, "an assigned value that nothing ever reads"},
	{diagnostic.RuleAnalysisIncomplete, diagnostic.SeverityInfo, "part of the analysis had to be skipped"},
}

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List every rule the analyzer can report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRules()
	},
}

func runRules() error {
	fmt.Println("Control-flow and data-flow rules:")
	for _, r := range flowRules {
		fmt.Printf("  %-26s %-10s %s\n", r.id, r.severity, r.doc)
	}

	fmt.Println("\nAST checker rules:")
	eng := engine.New(engine.Options{})
	for _, r := range eng.Rules() {
		fmt.Printf("  %-26s %-10s %s\n", r.ID, r.Severity, r.Doc)
	}
	return nil
}

func init() {
	RootCmd.AddCommand(rulesCmd)
}

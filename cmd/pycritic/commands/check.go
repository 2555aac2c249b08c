package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/l3aro/pycritic/internal/config"
	"github.com/l3aro/pycritic/internal/log"
	"github.com/l3aro/pycritic/internal/scanner"
	"github.com/l3aro/pycritic/pkg/cache"
	"github.com/l3aro/pycritic/pkg/checkers"
	"github.com/l3aro/pycritic/pkg/diagnostic"
	"github.com/l3aro/pycritic/pkg/engine"
	"github.com/l3aro/pycritic/pkg/report"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Analyze Python files and report findings",
	Long: `Analyzes the given files and directories (default: the current
directory) and prints every finding with an explanation and a suggested
direction for the fix. Directories are walked recursively for Python
sources, honoring .pycriticignore files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, args)
	},
}

func init() {
	checkCmd.Flags().StringP("output", "o", "", "Output format: text or json")
	checkCmd.Flags().Int("workers", 0, "Max files analyzed in parallel (0 = one per CPU)")
	checkCmd.Flags().Bool("no-cache", false, "Skip the report cache")
	checkCmd.Flags().StringSlice("disable", nil, "Rule ids to suppress")
	checkCmd.Flags().Bool("no-color", false, "Disable colored output")
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyCheckFlags(cmd, cfg)

	paths, err := collectPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no Python files found")
	}

	eng, reportCache, cachePath := buildEngine(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, err := eng.AnalyzeFiles(ctx, paths)
	if err != nil {
		return err
	}

	if reportCache != nil {
		if err := cache.PersistToFile(reportCache, cachePath); err != nil {
			log.Default().Warn("failed to persist cache", "path", cachePath, "error", err)
		}
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	renderer, err := report.New(cfg.Output, !noColor && cfg.Output != "json")
	if err != nil {
		return err
	}
	if err := renderer.Render(os.Stdout, reports); err != nil {
		return err
	}

	errors := 0
	for _, r := range reports {
		errors += r.Counts[diagnostic.SeverityError]
	}
	if errors > 0 {
		cmd.SilenceErrors = true
		return fmt.Errorf("%d error-level findings", errors)
	}
	return nil
}

// applyCheckFlags lets command-line flags override whatever the config
// files said.
func applyCheckFlags(cmd *cobra.Command, cfg *config.Config) {
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Output = output
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Workers = workers
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.CacheEnabled = false
	}
	if disabled, _ := cmd.Flags().GetStringSlice("disable"); len(disabled) > 0 {
		cfg.DisabledRules = append(cfg.DisabledRules, disabled...)
	}
}

// collectPaths expands the command arguments into concrete Python files:
// files pass through, directories are scanned.
func collectPaths(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := scanner.Scan(arg)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
		for _, f := range found {
			paths = append(paths, f.FullPath)
		}
	}
	return paths, nil
}

// buildEngine wires an analysis engine from the config, loading the
// persisted report cache when caching is on.
func buildEngine(cfg *config.Config) (*engine.Engine, *cache.ReportCache, string) {
	var reportCache *cache.ReportCache
	var cachePath string
	if cfg.CacheEnabled {
		reportCache = cache.New(cfg.CacheMaxEntries)
		cachePath = filepath.Join(cfg.CacheDir, "reports.msgpack")
		if err := os.MkdirAll(cfg.CacheDir, 0755); err == nil {
			if err := cache.LoadFromFile(reportCache, cachePath); err != nil {
				log.Default().Debug("cache load failed, starting fresh", "error", err)
			}
		}
	}

	eng := engine.New(engine.Options{
		Checkers: checkers.Options{
			MaxNestingDepth:      cfg.MaxNestingDepth,
			MaxComplexity:        cfg.MaxComplexity,
			ForbiddenImports:     cfg.ForbiddenImports,
			ForbiddenIOFunctions: cfg.ForbiddenIOFunctions,
		},
		DisabledRules:     cfg.DisabledRules,
		Workers:           cfg.Workers,
		Cache:             reportCache,
		ConfigFingerprint: cfg.Fingerprint(),
		Logger:            log.Default(),
	})
	return eng, reportCache, cachePath
}

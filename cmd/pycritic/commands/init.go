package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/pycritic/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a pycritic configuration file interactively",
	Long: `Guides you through setting up analysis thresholds and deny-lists
step by step, then writes a config file you can commit next to the
assignment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	maxDepth := strconv.Itoa(cfg.MaxNestingDepth)
	maxComplexity := strconv.Itoa(cfg.MaxComplexity)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Maximum nesting depth").
				Description("Deepest a compound statement may sit before deep-nesting fires").
				Placeholder(maxDepth).
				Validate(positiveInt).
				Value(&maxDepth),
			huh.NewInput().
				Title("Maximum cyclomatic complexity").
				Description("Per-function limit for high-complexity").
				Placeholder(maxComplexity).
				Validate(positiveInt).
				Value(&maxComplexity),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	forbiddenImports := ""
	forbiddenIO := strings.Join(cfg.ForbiddenIOFunctions, ", ")
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Forbidden imports (comma-separated, empty for none)").
				Placeholder("subprocess, ctypes").
				Value(&forbiddenImports),
			huh.NewInput().
				Title("Forbidden I/O builtins inside functions").
				Placeholder(forbiddenIO).
				Value(&forbiddenIO),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var cacheEnabled = cfg.CacheEnabled
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Report cache").
				Description("Skip re-analyzing files whose content has not changed?").
				Affirmative("Enable").
				Negative("Disable").
				Value(&cacheEnabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.pycritic.yaml)", "project"),
					huh.NewOption("Global (~/.pycritic/config.yaml)", "global"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var configPath string
	if saveLocationChoice == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".pycritic", "config.yaml")
	} else {
		configPath = ".pycritic.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	cfg.MaxNestingDepth, _ = strconv.Atoi(maxDepth)
	cfg.MaxComplexity, _ = strconv.Atoi(maxComplexity)
	cfg.ForbiddenImports = splitCommaList(forbiddenImports)
	cfg.ForbiddenIOFunctions = splitCommaList(forbiddenIO)
	cfg.CacheEnabled = cacheEnabled

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Max nesting depth: %d\n", cfg.MaxNestingDepth)
	fmt.Printf("Max complexity: %d\n", cfg.MaxComplexity)
	fmt.Printf("Forbidden imports: %s\n", orNone(cfg.ForbiddenImports))
	fmt.Printf("Forbidden I/O builtins: %s\n", orNone(cfg.ForbiddenIOFunctions))
	fmt.Printf("Cache: %v\n", cfg.CacheEnabled)
	fmt.Println("=============================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)
	return nil
}

func positiveInt(s string) error {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive whole number")
	}
	return nil
}

func splitCommaList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func init() {
	RootCmd.AddCommand(initCmd)
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/l3aro/pycritic/internal/config"
	"github.com/l3aro/pycritic/internal/log"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "pycritic",
	Short: "pycritic - Educational static analysis for Python",
	Long: `pycritic analyzes Python programs the way a patient teaching assistant
reads them: it builds control-flow graphs, traces variable definitions, and
checks classroom coding rules, then explains every finding in plain words.

Commands:
  check   Analyze files or directories and report findings
  rules   List every rule the analyzer can report
  watch   Re-analyze files as they change
  init    Create a configuration file interactively

Use "pycritic [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Path to a config file (overrides discovery)")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")
}

// loadConfig resolves configuration for a command invocation: an explicit
// --config file wins, otherwise the usual global/project/env layering.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose || cfg.Verbose {
		log.Default().SetLevel(log.DebugLevel)
	}
	return cfg, nil
}

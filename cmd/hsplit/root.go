package main

import (
	"github.com/spf13/cobra"

	"hsplit/internal/version"
)

var (
	rootFlag      string
	verbosityFlag int
	quietFlag     bool
	debugFlag     bool
	formatFlag    string
)

// skipValidation marks commands that must run with an invalid config.
const skipValidation = "hsplit/skip-config-validation"

var rootCmd = &cobra.Command{
	Use:   "hsplit",
	Short: "hsplit - header split recommender",
	Long: `hsplit analyzes a C project's compilation database to recommend how a
monolithic header should be split into cohesive sub-headers.

It indexes which translation units reference which symbols, counts how often
the symbols of one header are used together, and clusters them hierarchically.

Typical workflow:
  hsplit index -c build/compile_commands.json
  hsplit split include/big.h -k 3 --plan big.plan.toml`,
	Version:           version.Info(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupApp,
}

func init() {
	rootCmd.SetVersionTemplate("hsplit version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Project root holding .hsplit/ (default: current directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosityFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Debug logging, plus proximity counts and memberships in results")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", string(FormatHuman), "Output format (human, json, yaml)")
}

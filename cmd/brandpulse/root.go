package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brandpulse",
		Short: "BrandPulse - brand perception tracking across AI models",
		Long: `BrandPulse measures how AI models perceive and recommend brands.

It runs structured consumer-research questions against one or more models,
extracts brand judgments from the answers, and computes mention rates,
rankings, sentiment, and confidence intervals. Repeated runs can be compared
to detect statistically significant perception shifts.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newNewCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newAnalyzeCommand())
	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newServeCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

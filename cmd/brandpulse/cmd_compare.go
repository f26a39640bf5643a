package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brandpulse/brandpulse/internal/analysis"
)

var (
	compareModel  string
	compareDBPath string
	compareJSON   bool
)

func newCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <run-a> <run-b>",
		Short: "Detect statistically significant changes between two runs",
		Long: `Compare the brand statistics of two runs and classify every metric delta.

Each argument is either a run ID (looked up in the local database) or the
path of an archived result artifact. Proportion metrics get a two-proportion
z-test; deltas are labelled noise, notable, or major depending on magnitude
and statistical significance. Run A is the baseline.`,
		Args: cobra.ExactArgs(2),
		RunE: compareCommandE,
	}

	cmd.Flags().StringVar(&compareModel, "model", "", "Model whose statistics to compare (required for run IDs with multiple models)")
	cmd.Flags().StringVar(&compareDBPath, "db", "", "Database file (default: from config)")
	cmd.Flags().BoolVar(&compareJSON, "json", false, "Output raw JSON instead of a table")

	return cmd
}

func compareCommandE(cmd *cobra.Command, args []string) error {
	statsA, labelA, err := loadStatistics(cmd.Context(), args[0], compareModel, compareDBPath)
	if err != nil {
		return fmt.Errorf("loading baseline %s: %w", args[0], err)
	}
	statsB, labelB, err := loadStatistics(cmd.Context(), args[1], compareModel, compareDBPath)
	if err != nil {
		return fmt.Errorf("loading comparison %s: %w", args[1], err)
	}

	records := analysis.DetectChanges(statsA, statsB)

	out := cmd.OutOrStdout()
	if compareJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	fmt.Fprintf(out, "Baseline:   %s\n", labelA)   //nolint:errcheck
	fmt.Fprintf(out, "Comparison: %s\n\n", labelB) //nolint:errcheck
	if len(records) == 0 {
		fmt.Fprintln(out, "No brands in common between the two runs.") //nolint:errcheck
		return nil
	}
	printChangeTable(out, records)
	return nil
}

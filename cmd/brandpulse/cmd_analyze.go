package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brandpulse/brandpulse/internal/analysis"
	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/projectconfig"
	"github.com/brandpulse/brandpulse/internal/store"
)

var (
	analyzeModel     string
	analyzeDBPath    string
	analyzeJSON      bool
	analyzeRecompute bool
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <run-id | artifact.json.zst>",
		Short: "Show brand statistics for a completed run",
		Long: `Show the per-brand statistics of a completed run.

The argument is either a run ID (looked up in the local database, --model
selects which model's statistics to show) or the path of an archived result
artifact exported with run --archive.`,
		Args: cobra.ExactArgs(1),
		RunE: analyzeCommandE,
	}

	cmd.Flags().StringVar(&analyzeModel, "model", "", "Model whose statistics to show (required for run IDs with multiple models)")
	cmd.Flags().StringVar(&analyzeDBPath, "db", "", "Database file (default: from config)")
	cmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output raw JSON instead of a table")
	cmd.Flags().BoolVar(&analyzeRecompute, "recompute", false, "Re-aggregate the stored judgments instead of loading the finalized snapshot")

	return cmd
}

func analyzeCommandE(cmd *cobra.Command, args []string) error {
	var (
		stats []models.BrandStatistics
		label string
		err   error
	)
	if analyzeRecompute {
		stats, label, err = recomputeStatistics(cmd.Context(), args[0], analyzeModel, analyzeDBPath)
	} else {
		stats, label, err = loadStatistics(cmd.Context(), args[0], analyzeModel, analyzeDBPath)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(out, "Statistics for %s:\n", label) //nolint:errcheck
	printStatsTable(out, stats)
	return nil
}

// loadStatistics resolves a run reference to brand statistics. A reference
// that names an existing file (or ends in .zst) is read as an archived
// artifact; anything else is treated as a run ID in the local database.
func loadStatistics(ctx context.Context, ref, model, dbPath string) ([]models.BrandStatistics, string, error) {
	if isArtifactRef(ref) {
		artifact, err := store.ImportArtifact(ref)
		if err != nil {
			return nil, "", err
		}
		if model != "" && artifact.Model != model {
			return nil, "", fmt.Errorf("artifact %s holds statistics for model %s, not %s", ref, artifact.Model, model)
		}
		return artifact.Statistics, fmt.Sprintf("%s / %s", artifact.RunID, artifact.Model), nil
	}

	if dbPath == "" {
		cfg, err := projectconfig.Load(".")
		if err != nil {
			return nil, "", err
		}
		dbPath = cfg.Paths.Database
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, "", err
	}
	defer st.Close() //nolint:errcheck

	resolvedModel := model
	if resolvedModel == "" {
		run, err := st.GetRun(ctx, ref)
		if err != nil {
			return nil, "", err
		}
		if len(run.Models) != 1 {
			return nil, "", fmt.Errorf("run %s covers models %s; pick one with --model",
				ref, strings.Join(run.Models, ", "))
		}
		resolvedModel = run.Models[0]
	}

	stats, err := st.LoadStatistics(ctx, ref, resolvedModel)
	if err != nil {
		return nil, "", err
	}
	return stats, fmt.Sprintf("%s / %s", ref, resolvedModel), nil
}

// recomputeStatistics rebuilds brand statistics from the raw judgments stored
// for a run, ignoring the finalized snapshot. Useful after the aggregation
// logic changes or when a snapshot is suspect.
func recomputeStatistics(ctx context.Context, runID, model, dbPath string) ([]models.BrandStatistics, string, error) {
	if isArtifactRef(runID) {
		return nil, "", fmt.Errorf("archived artifacts hold no raw judgments; --recompute needs a run ID")
	}
	if dbPath == "" {
		cfg, err := projectconfig.Load(".")
		if err != nil {
			return nil, "", err
		}
		dbPath = cfg.Paths.Database
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, "", err
	}
	defer st.Close() //nolint:errcheck

	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return nil, "", err
	}
	if model == "" {
		if len(run.Models) != 1 {
			return nil, "", fmt.Errorf("run %s covers models %s; pick one with --model",
				runID, strings.Join(run.Models, ", "))
		}
		model = run.Models[0]
	}
	study, err := st.GetStudy(ctx, run.StudyID)
	if err != nil {
		return nil, "", err
	}
	judgments, err := st.LoadJudgments(ctx, runID, model)
	if err != nil {
		return nil, "", err
	}

	acc := analysis.NewAccumulator(study.Setup.Brands)
	for _, j := range judgments {
		acc.Ingest(j)
	}
	stats := acc.Finalize(len(study.Questions)*run.Iterations, study.PersonaIDs(), study.Setup.ResearchAreas)
	return stats, fmt.Sprintf("%s / %s (recomputed)", runID, model), nil
}

func isArtifactRef(ref string) bool {
	if strings.HasSuffix(ref, ".zst") {
		return true
	}
	info, err := os.Stat(ref)
	return err == nil && !info.IsDir()
}

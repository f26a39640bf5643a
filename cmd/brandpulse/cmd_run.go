package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/brandpulse/brandpulse/internal/execution"
	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/orchestration"
	"github.com/brandpulse/brandpulse/internal/projectconfig"
	"github.com/brandpulse/brandpulse/internal/store"
)

var (
	runEngine     string
	runModels     []string
	runIterations int
	runWorkers    int
	runVerbose    bool
	runDBPath     string
	runArchive    bool
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <study.yaml>",
		Short: "Run a study against one or more models",
		Long: `Run every study question against the configured models.

Each question is asked iterations times per model. Answers are parsed into
structured brand judgments, aggregated into per-brand statistics with
confidence intervals, and saved to the local database. Use --archive to also
export a compressed result artifact per model for offline comparison.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringVar(&runEngine, "engine", "", "Engine to use: openai or mock (default: from config)")
	cmd.Flags().StringArrayVar(&runModels, "model", nil, "Model to query (can be repeated; default: from config)")
	cmd.Flags().IntVar(&runIterations, "iterations", 0, "Iterations per question (overrides the study file)")
	cmd.Flags().IntVar(&runWorkers, "workers", 0, "Number of concurrent queries per model (default: from config)")
	cmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Verbose output with per-query progress")
	cmd.Flags().StringVar(&runDBPath, "db", "", "Database file (default: from config)")
	cmd.Flags().BoolVar(&runArchive, "archive", false, "Export a compressed result artifact per model")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return err
	}

	study, err := models.LoadStudy(args[0])
	if err != nil {
		return err
	}
	if runIterations > 0 {
		study.Setup.Iterations = runIterations
	}

	engineKind := runEngine
	if engineKind == "" {
		engineKind = cfg.Defaults.Engine
	}
	modelIDs := runModels
	if len(modelIDs) == 0 {
		modelIDs = cfg.Defaults.Models
	}
	workers := runWorkers
	if workers <= 0 {
		workers = cfg.Defaults.Workers
	}
	verbose := runVerbose
	if cfg.Defaults.Verbose != nil && *cfg.Defaults.Verbose {
		verbose = true
	}

	engines := make([]execution.ModelEngine, 0, len(modelIDs))
	for _, modelID := range modelIDs {
		engine, err := buildEngine(cfg, engineKind, modelID, study)
		if err != nil {
			return err
		}
		engines = append(engines, engine)
	}

	dbPath := runDBPath
	if dbPath == "" {
		dbPath = cfg.Paths.Database
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Study: %s (%s)\n", study.ID, study.Setup.Category)               //nolint:errcheck
	fmt.Fprintf(out, "Models: %s | engine: %s | iterations: %d | questions: %d\n\n",   //nolint:errcheck
		strings.Join(modelIDs, ", "), engineKind, study.Setup.Iterations, len(study.Questions))

	collector := orchestration.NewCollector(study, engines,
		orchestration.WithWorkers(workers),
		orchestration.WithQueryTimeout(cfg.Defaults.Timeout),
	)
	reporter := newRunReporter(out, verbose)
	collector.OnProgress(reporter.listen)

	run := &models.Run{
		ID:         uuid.NewString(),
		StudyID:    study.ID,
		Status:     models.RunStatusRunning,
		Models:     modelIDs,
		Iterations: study.Setup.Iterations,
		StartedAt:  time.Now().UTC(),
	}
	if err := st.SaveStudy(ctx, study); err != nil {
		return err
	}
	if err := st.CreateRun(ctx, run); err != nil {
		return err
	}

	result, err := collector.Collect(ctx)
	if err != nil {
		// Record the aborted run before bailing; the context may already be
		// cancelled, so use a fresh one for persistence.
		finishCtx := context.WithoutCancel(ctx)
		if storeErr := st.FinishRun(finishCtx, run.ID, models.RunStatusFailed); storeErr != nil {
			return fmt.Errorf("collection failed: %w (also failed to record run: %v)", err, storeErr)
		}
		return fmt.Errorf("collection failed: %w", err)
	}

	for _, mr := range result.Models {
		if err := st.SaveJudgments(ctx, run.ID, mr.Judgments); err != nil {
			return err
		}
		if err := st.SaveStatistics(ctx, run.ID, mr.Model, mr.Statistics); err != nil {
			return err
		}
	}
	if err := st.FinishRun(ctx, run.ID, models.RunStatusCompleted); err != nil {
		return err
	}

	for _, mr := range result.Models {
		fmt.Fprintf(out, "\nResults for %s:\n", mr.Model) //nolint:errcheck
		printStatsTable(out, mr.Statistics)
	}

	if runArchive {
		if err := os.MkdirAll(cfg.Paths.Results, 0o755); err != nil {
			return fmt.Errorf("creating results directory: %w", err)
		}
		for _, mr := range result.Models {
			artifact := &models.RunArtifact{
				RunID:           run.ID,
				StudyID:         study.ID,
				Category:        study.Setup.Category,
				Model:           mr.Model,
				TotalIterations: result.TotalIterations,
				Timestamp:       result.CompletedAt.UTC(),
				Statistics:      mr.Statistics,
			}
			path := filepath.Join(cfg.Paths.Results,
				fmt.Sprintf("%s_%s.json.zst", run.ID, sanitizeModelName(mr.Model)))
			if err := store.ExportArtifact(path, artifact); err != nil {
				return err
			}
			fmt.Fprintf(out, "Archived: %s\n", path) //nolint:errcheck
		}
	}

	fmt.Fprintf(out, "\nRun %s completed in %s\n", run.ID, //nolint:errcheck
		formatDuration(result.CompletedAt.Sub(result.StartedAt)))
	return nil
}

// sanitizeModelName makes a model identifier safe for use in a file name.
func sanitizeModelName(model string) string {
	r := strings.NewReplacer("/", "-", ":", "-", " ", "-")
	return r.Replace(model)
}

package main

import (
	"fmt"
	"time"

	"github.com/brandpulse/brandpulse/internal/execution"
	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/projectconfig"
)

// buildEngine constructs a model engine for the given engine kind. The study
// supplies the tracked brand list for the mock engine.
func buildEngine(cfg *projectconfig.ProjectConfig, engineKind, model string, study *models.Study) (execution.ModelEngine, error) {
	switch engineKind {
	case "openai":
		var opts []execution.OpenAIOption
		if cfg.Defaults.BaseURL != "" {
			opts = append(opts, execution.WithBaseURL(cfg.Defaults.BaseURL))
		}
		return execution.NewOpenAIEngine(model, opts...)
	case "mock":
		return execution.NewMockEngine(model, study.Setup.Brands, time.Now().UnixNano()), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (supported: openai, mock)", engineKind)
	}
}

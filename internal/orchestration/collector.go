// Package orchestration fans study questions out to model engines, gathers
// the resulting judgments, and finalizes per-model brand statistics.
package orchestration

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brandpulse/brandpulse/internal/analysis"
	"github.com/brandpulse/brandpulse/internal/execution"
	"github.com/brandpulse/brandpulse/internal/ingest"
	"github.com/brandpulse/brandpulse/internal/models"
)

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventRunStart      EventType = "run_start"
	EventRunComplete   EventType = "run_complete"
	EventModelStart    EventType = "model_start"
	EventModelComplete EventType = "model_complete"
	EventQueryStart    EventType = "query_start"
	EventQueryComplete EventType = "query_complete"
	EventQueryFailed   EventType = "query_failed"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType    EventType
	Model        string
	QuestionID   string
	Iteration    int
	QueryNum     int
	TotalQueries int
	DurationMs   int64
	Error        string
}

// ModelResult holds everything one model produced for a run.
type ModelResult struct {
	Model         string
	Judgments     []*models.Judgment
	Statistics    []models.BrandStatistics
	FailedQueries int
}

// CollectionResult is the full outcome of one run across all models.
type CollectionResult struct {
	StudyID string
	// TotalIterations is the declared query count per model
	// (questions x iterations), the denominator for every proportion.
	TotalIterations int
	StartedAt       time.Time
	CompletedAt     time.Time
	Models          []ModelResult
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithWorkers bounds concurrent in-flight queries per model.
func WithWorkers(n int) CollectorOption {
	return func(c *Collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithQueryTimeout caps each individual model query.
func WithQueryTimeout(seconds int) CollectorOption {
	return func(c *Collector) { c.timeoutSec = seconds }
}

// Collector runs one study against a set of model engines.
type Collector struct {
	study      *models.Study
	engines    []execution.ModelEngine
	workers    int
	timeoutSec int

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// NewCollector creates a collector for the study.
func NewCollector(study *models.Study, engines []execution.ModelEngine, opts ...CollectorOption) *Collector {
	c := &Collector{
		study:     study,
		engines:   engines,
		workers:   4,
		listeners: []ProgressListener{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OnProgress registers a progress listener
func (c *Collector) OnProgress(listener ProgressListener) {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	c.listeners = append(c.listeners, listener)
}

func (c *Collector) notifyProgress(event ProgressEvent) {
	c.progressMu.Lock()
	listeners := make([]ProgressListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Collect runs every question x iteration against every engine and returns
// finalized statistics per model. A failed or unparsable query contributes
// nothing to the statistics; only context cancellation aborts the run.
func (c *Collector) Collect(ctx context.Context) (*CollectionResult, error) {
	totalQueries := len(c.study.Questions) * c.study.Setup.Iterations

	result := &CollectionResult{
		StudyID:         c.study.ID,
		TotalIterations: totalQueries,
		StartedAt:       time.Now(),
	}

	c.notifyProgress(ProgressEvent{EventType: EventRunStart, TotalQueries: totalQueries})

	for _, engine := range c.engines {
		modelResult, err := c.collectModel(ctx, engine, totalQueries)
		if err != nil {
			return nil, err
		}
		result.Models = append(result.Models, *modelResult)
	}

	result.CompletedAt = time.Now()
	c.notifyProgress(ProgressEvent{EventType: EventRunComplete, TotalQueries: totalQueries})
	return result, nil
}

func (c *Collector) collectModel(ctx context.Context, engine execution.ModelEngine, totalQueries int) (*ModelResult, error) {
	model := engine.ModelID()
	c.notifyProgress(ProgressEvent{EventType: EventModelStart, Model: model, TotalQueries: totalQueries})

	if err := engine.Initialize(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := engine.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("engine shutdown failed", "model", model, "error", err)
		}
	}()

	var (
		mu        sync.Mutex
		judgments []*models.Judgment
		failed    int
		queryNum  int
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers)

	for qi := range c.study.Questions {
		question := &c.study.Questions[qi]
		for iter := 1; iter <= c.study.Setup.Iterations; iter++ {
			iter := iter
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}

				mu.Lock()
				queryNum++
				num := queryNum
				mu.Unlock()

				c.notifyProgress(ProgressEvent{
					EventType:    EventQueryStart,
					Model:        model,
					QuestionID:   question.ID,
					Iteration:    iter,
					QueryNum:     num,
					TotalQueries: totalQueries,
				})

				prompt, _ := execution.BuildPrompt(c.study, question, iter)
				resp, err := engine.Ask(groupCtx, &execution.QueryRequest{
					QuestionID:   question.ID,
					SystemPrompt: execution.SystemPrompt(),
					Prompt:       prompt,
					Iteration:    iter,
					TimeoutSec:   c.timeoutSec,
				})
				if err != nil {
					// Only cancellation propagates; the engine reports
					// ordinary failures inside the response.
					return err
				}

				if !resp.Success {
					c.recordFailure(&mu, &failed, ProgressEvent{
						EventType:    EventQueryFailed,
						Model:        model,
						QuestionID:   question.ID,
						Iteration:    iter,
						QueryNum:     num,
						TotalQueries: totalQueries,
						DurationMs:   resp.DurationMs,
						Error:        resp.ErrorMsg,
					})
					return nil
				}

				judgment, parseErr := ingest.Parse(resp.RawAnswer, question.Mode, model, question.PersonaID, question.ResearchArea, iter)
				if parseErr != nil {
					slog.Debug("discarding unparsable answer",
						"model", model, "question", question.ID, "iteration", iter, "error", parseErr)
					c.recordFailure(&mu, &failed, ProgressEvent{
						EventType:    EventQueryFailed,
						Model:        model,
						QuestionID:   question.ID,
						Iteration:    iter,
						QueryNum:     num,
						TotalQueries: totalQueries,
						DurationMs:   resp.DurationMs,
						Error:        parseErr.Error(),
					})
					return nil
				}

				mu.Lock()
				judgments = append(judgments, judgment)
				mu.Unlock()

				c.notifyProgress(ProgressEvent{
					EventType:    EventQueryComplete,
					Model:        model,
					QuestionID:   question.ID,
					Iteration:    iter,
					QueryNum:     num,
					TotalQueries: totalQueries,
					DurationMs:   resp.DurationMs,
				})
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Single accumulation pass once all answers are in; the accumulator is
	// not shared across workers.
	acc := analysis.NewAccumulator(c.study.Setup.Brands)
	for _, j := range judgments {
		acc.Ingest(j)
	}
	stats := acc.Finalize(totalQueries, c.study.PersonaIDs(), c.study.Setup.ResearchAreas)

	c.notifyProgress(ProgressEvent{EventType: EventModelComplete, Model: model, TotalQueries: totalQueries})

	return &ModelResult{
		Model:         model,
		Judgments:     judgments,
		Statistics:    stats,
		FailedQueries: failed,
	}, nil
}

func (c *Collector) recordFailure(mu *sync.Mutex, failed *int, event ProgressEvent) {
	mu.Lock()
	*failed++
	mu.Unlock()
	c.notifyProgress(event)
}

package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/brandpulse/brandpulse/internal/analysis"
	"github.com/brandpulse/brandpulse/internal/execution"
	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/orchestration"
	"github.com/brandpulse/brandpulse/internal/store"
)

// registerRoutes sets up the REST API on the given mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("GET /api/studies", s.handleListStudies)
	mux.HandleFunc("POST /api/studies", s.handleCreateStudy)
	mux.HandleFunc("GET /api/studies/{id}", s.handleGetStudy)
	mux.HandleFunc("DELETE /api/studies/{id}", s.handleDeleteStudy)

	mux.HandleFunc("POST /api/studies/{id}/runs", s.handleLaunchRun)
	mux.HandleFunc("GET /api/studies/{id}/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /api/runs/{id}/statistics", s.handleRunStatistics)
	mux.HandleFunc("GET /api/compare", s.handleCompare)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListStudies(w http.ResponseWriter, r *http.Request) {
	studies, err := s.store.ListStudies(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if studies == nil {
		studies = []*models.Study{}
	}
	writeJSON(w, http.StatusOK, studies)
}

func (s *Server) handleCreateStudy(w http.ResponseWriter, r *http.Request) {
	var study models.Study
	if err := json.NewDecoder(r.Body).Decode(&study); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if study.ID == "" {
		study.ID = uuid.NewString()
	}
	if study.Setup.Language == "" {
		study.Setup.Language = "English"
	}
	if err := study.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.SaveStudy(r.Context(), &study); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, &study)
}

func (s *Server) handleGetStudy(w http.ResponseWriter, r *http.Request) {
	study, err := s.store.GetStudy(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, study)
}

func (s *Server) handleDeleteStudy(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.GetStudy(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	if err := s.store.DeleteStudy(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type launchRunRequest struct {
	Models     []string `json:"models"`
	Iterations int      `json:"iterations,omitempty"`
	Workers    int      `json:"workers,omitempty"`
}

func (s *Server) handleLaunchRun(w http.ResponseWriter, r *http.Request) {
	study, err := s.store.GetStudy(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	var req launchRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Models) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("at least one model is required"))
		return
	}
	if req.Iterations > 0 {
		study.Setup.Iterations = req.Iterations
	}
	workers := req.Workers
	if workers <= 0 {
		workers = s.workers
	}

	engines := make([]execution.ModelEngine, 0, len(req.Models))
	for _, model := range req.Models {
		engine, err := s.engines(model, study)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		engines = append(engines, engine)
	}

	run := &models.Run{
		ID:         uuid.NewString(),
		StudyID:    study.ID,
		Status:     models.RunStatusRunning,
		Models:     req.Models,
		Iterations: study.Setup.Iterations,
		StartedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateRun(r.Context(), run); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	totalQueries := len(study.Questions) * study.Setup.Iterations * len(engines)
	s.progress.start(run.ID, totalQueries)

	collector := orchestration.NewCollector(study, engines, orchestration.WithWorkers(workers))
	collector.OnProgress(s.progress.listener(run.ID))

	// The run outlives the launching request.
	go s.executeRun(context.Background(), collector, run)

	writeJSON(w, http.StatusAccepted, run)
}

func (s *Server) executeRun(ctx context.Context, collector *orchestration.Collector, run *models.Run) {
	result, err := collector.Collect(ctx)
	if err != nil {
		s.logger.Error("run failed", "run", run.ID, "error", err)
		s.progress.finish(run.ID, err.Error())
		if storeErr := s.store.FinishRun(ctx, run.ID, models.RunStatusFailed); storeErr != nil {
			s.logger.Error("recording failed run", "run", run.ID, "error", storeErr)
		}
		return
	}

	for _, mr := range result.Models {
		if err := s.store.SaveJudgments(ctx, run.ID, mr.Judgments); err != nil {
			s.logger.Error("saving judgments", "run", run.ID, "model", mr.Model, "error", err)
		}
		if err := s.store.SaveStatistics(ctx, run.ID, mr.Model, mr.Statistics); err != nil {
			s.logger.Error("saving statistics", "run", run.ID, "model", mr.Model, "error", err)
		}
	}

	// Mark progress done before flipping the run status: pollers treat a
	// completed run as finished and must not see a stale in-flight snapshot.
	s.progress.finish(run.ID, "")
	if err := s.store.FinishRun(ctx, run.ID, models.RunStatusCompleted); err != nil {
		s.logger.Error("recording completed run", "run", run.ID, "error", err)
	}
	s.logger.Info("run completed", "run", run.ID, "models", len(result.Models))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

type runStatusResponse struct {
	Run      *models.Run  `json:"run"`
	Progress *RunProgress `json:"progress,omitempty"`
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runStatusResponse{
		Run:      run,
		Progress: s.progress.snapshot(run.ID),
	})
}

func (s *Server) handleRunStatistics(w http.ResponseWriter, r *http.Request) {
	model := r.URL.Query().Get("model")
	if model == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("model query parameter is required"))
		return
	}
	stats, err := s.store.LoadStatistics(r.Context(), r.PathValue("id"), model)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	runA, runB, model := q.Get("run_a"), q.Get("run_b"), q.Get("model")
	if runA == "" || runB == "" || model == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("run_a, run_b, and model query parameters are required"))
		return
	}

	statsA, err := s.store.LoadStatistics(r.Context(), runA, model)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	statsB, err := s.store.LoadStatistics(r.Context(), runB, model)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	records := analysis.DetectChanges(statsA, statsB)
	if records == nil {
		records = []models.ChangeRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeError(w, http.StatusInternalServerError, err)
}

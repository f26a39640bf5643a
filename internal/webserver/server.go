// Package webserver exposes the study, run, and comparison operations over a
// REST API.
package webserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brandpulse/brandpulse/internal/execution"
	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/store"
)

// EngineFactory builds a model engine for one model identity. The study is
// provided so engine implementations that need the tracked brand list (e.g.
// the mock engine) can use it.
type EngineFactory func(model string, study *models.Study) (execution.ModelEngine, error)

// Config holds the HTTP server configuration.
type Config struct {
	Port    int
	Host    string
	Store   *store.Store
	Engines EngineFactory
	Workers int
	Logger  *slog.Logger
}

// Server wraps the HTTP server with configuration.
type Server struct {
	cfg      Config
	srv      *http.Server
	logger   *slog.Logger
	store    *store.Store
	engines  EngineFactory
	workers  int
	progress *progressRegistry
}

// New creates a new HTTP server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("webserver requires a store")
	}
	if cfg.Engines == nil {
		return nil, fmt.Errorf("webserver requires an engine factory")
	}

	mux := http.NewServeMux()
	s := &Server{
		cfg:      cfg,
		logger:   cfg.Logger,
		store:    cfg.Store,
		engines:  cfg.Engines,
		workers:  cfg.Workers,
		progress: newProgressRegistry(),
		srv: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	s.registerRoutes(mux)
	return s, nil
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled or
// the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logger.Info("HTTP server starting", "address", s.srv.Addr)

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "error", err)
		}
	}()

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler (useful for testing).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

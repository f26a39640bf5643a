package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brandpulse/brandpulse/internal/execution"
	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/projectconfig"
	"github.com/brandpulse/brandpulse/internal/store"
	"github.com/brandpulse/brandpulse/internal/webserver"
)

var (
	servePort   int
	serveHost   string
	serveEngine string
	serveDBPath string
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start an HTTP server exposing studies, runs, and comparisons as a REST API.

Endpoints:
  GET    /api/health                    Health check
  GET    /api/studies                   List studies
  POST   /api/studies                   Create a study
  GET    /api/studies/{id}              Get a study
  DELETE /api/studies/{id}              Delete a study and its runs
  POST   /api/studies/{id}/runs         Launch a run (async, returns 202)
  GET    /api/studies/{id}/runs         List runs for a study
  GET    /api/runs/{id}                 Run status with live progress
  GET    /api/runs/{id}/statistics      Brand statistics for one model
  GET    /api/compare                   Change detection between two runs`,
		RunE: serveCommandE,
	}

	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default: from config)")
	cmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: from config)")
	cmd.Flags().StringVar(&serveEngine, "engine", "", "Engine for launched runs: openai or mock (default: from config)")
	cmd.Flags().StringVar(&serveDBPath, "db", "", "Database file (default: from config)")

	return cmd
}

func serveCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return err
	}

	port := servePort
	if port == 0 {
		port = cfg.Server.Port
	}
	host := serveHost
	if host == "" {
		host = cfg.Server.Host
	}
	engineKind := serveEngine
	if engineKind == "" {
		engineKind = cfg.Defaults.Engine
	}
	dbPath := serveDBPath
	if dbPath == "" {
		dbPath = cfg.Paths.Database
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	srv, err := webserver.New(webserver.Config{
		Port:  port,
		Host:  host,
		Store: st,
		Engines: func(model string, study *models.Study) (execution.ModelEngine, error) {
			return buildEngine(cfg, engineKind, model, study)
		},
		Workers: cfg.Defaults.Workers,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}

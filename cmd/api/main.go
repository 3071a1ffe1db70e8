package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/amazon-ynab-sync/internal/api"
	"github.com/dvloznov/amazon-ynab-sync/internal/api/handlers"
	"github.com/dvloznov/amazon-ynab-sync/internal/app"
	"github.com/dvloznov/amazon-ynab-sync/internal/config"
	"github.com/dvloznov/amazon-ynab-sync/internal/jobs"
	"github.com/dvloznov/amazon-ynab-sync/internal/jobs/inmemory"
	"github.com/dvloznov/amazon-ynab-sync/internal/logger"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("SYNC_CONFIG"), "Path to YAML config file (or set SYNC_CONFIG env)")
		port       = flag.String("port", "", "HTTP server port (overrides config and PORT env)")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.API.Port = *port
	}
	log = logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.API.APIKey == "" {
		log.Warn().Msg("No SYNC_API_KEY configured - API is open to anyone who can reach it")
	}

	ctx := logger.WithContext(context.Background(), log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise")
	}
	defer a.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Msg("Starting job worker")
	if err := jobQueue.Start(workerCtx, jobs.PipelineHandler(a.Deps)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	// A nil repository must reach the handler as a nil interface.
	var runLister handlers.RunLister
	if a.Runs != nil {
		runLister = a.Runs
	}

	handler := api.NewRouter(api.Routes{
		Sync: handlers.NewSyncHandler(jobQueue, log),
		Jobs: handlers.NewJobsHandler(jobStore, log),
		Runs: handlers.NewRunsHandler(runLister, log),
	}, cfg.API.APIKey, log)

	server := &http.Server{
		Addr:         ":" + cfg.API.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.API.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let a running sync finish before the worker goes away.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

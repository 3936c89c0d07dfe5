package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/r5vtools/forge/internal/api"
	"github.com/r5vtools/forge/internal/config"
	"github.com/r5vtools/forge/internal/engine"
	"github.com/r5vtools/forge/internal/health"
	"github.com/r5vtools/forge/internal/metrics"
	"github.com/r5vtools/forge/internal/persist"
	"github.com/r5vtools/forge/internal/recent"
	"github.com/r5vtools/forge/internal/scaffold"
	"github.com/r5vtools/forge/internal/storage"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("FORGE_ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("events_addr", cfg.EventsAddr).
		Str("editor_version", cfg.EditorVersion).
		Msg("starting forge document engine")

	if err := os.MkdirAll(cfg.ResolvedDataDir(), 0o755); err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.ResolvedDataDir()).Msg("failed to create data directory")
	}

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Core collaborators
	m := metrics.New()
	store := storage.NewFileStore(logger)
	eng := engine.New(store, m, logger, cfg.EditorVersion)

	pipeline := persist.New(store, eng, m, logger)
	eng.SetSaver(pipeline)
	pipeline.Start(ctx)

	recents := recent.NewStore(cfg.RecentListPath(), logger)
	eng.SetRecentRecorder(recents)

	hub := api.NewHub(logger)
	eng.SetNotifier(hub)

	// Health checks
	checker := health.NewChecker(logger)
	checker.Register("data_dir", health.DataDirCheck(cfg.ResolvedDataDir()))
	checker.Register("pipeline", health.PipelineCheck(pipeline))

	if cfg.OpenOnStart != "" {
		if err := eng.Open(cfg.OpenOnStart); err != nil {
			logger.Warn().Err(err).Str("path", cfg.OpenOnStart).Msg("failed to open startup project, starting fresh")
			recents.Remove(cfg.OpenOnStart)
		}
	}

	// Servers
	handlers := api.NewHandlers(eng, checker, recents, scaffold.New(logger), nil, cfg.PresetsPath(), logger)
	apiServer := api.NewServer(api.ServerConfig{
		ListenAddr:  cfg.ListenAddr,
		AuthConfig:  api.AuthConfig{APIKey: cfg.APIKey},
		CORSOrigins: cfg.CORSOriginList(),
		BodyLimit:   cfg.BodyLimit,
	}, handlers, logger)
	eventServer := api.NewEventServer(cfg.EventsAddr, hub, checker, m, logger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := apiServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("api server error")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := eventServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("event server error")
		}
	}()

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	// Stop accepting requests first, then let the pipeline finish any
	// in-flight write before exiting.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("api server shutdown error")
	}
	if err := eventServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("event server shutdown error")
	}

	cancel()
	pipeline.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("shutdown timed out")
	}
}

// Package main is the entry point for the drive-telemetry server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"drive-telemetry/internal/collector"
	"drive-telemetry/internal/config"
	"drive-telemetry/internal/metrics"
	"drive-telemetry/internal/probe"
	"drive-telemetry/internal/server"
	"drive-telemetry/internal/smart"
	"drive-telemetry/internal/volume"
)

// Build-time variables (set via -ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.LogLevel)

	log.Info().
		Str("version", version).
		Str("commit", commit).
		Str("listen", cfg.ListenAddr()).
		Dur("poll_interval", cfg.PollInterval).
		Msg("Starting drive-telemetry server")

	runner := probe.NewExecRunner(cfg.ProbeTimeout)
	scanner := smart.NewScanner(runner, cfg.SmartctlPath)
	reader := smart.NewReader(runner, cfg.SmartctlPath)
	m := metrics.New()

	poller := collector.New(scanner, reader, volume.New(), m, cfg.PollInterval, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pollerDone := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(pollerDone)
	}()

	srv := &http.Server{
		Addr:        cfg.ListenAddr(),
		Handler:     server.New(cfg, poller).Routes(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr()).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	<-pollerDone
	log.Info().Msg("Server stopped")
}

// setupLogging configures zerolog based on log level.
func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

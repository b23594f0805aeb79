package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/wonny/quotecatalog/internal/app"
	"github.com/wonny/quotecatalog/internal/pkg/config"
	"github.com/wonny/quotecatalog/internal/pkg/logger"
)

const (
	serviceName    = "quotecatalog-api"
	serviceVersion = "1.0.0"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logCfg := logger.FromConfig(cfg.Logging, serviceName, serviceVersion)
	if err := logger.Init(logCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("version", serviceVersion).
		Str("driver", cfg.Database.Driver).
		Msg("🚀 Starting Quote Catalog API Server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer a.Close()

	log.Info().Msg("✅ Database connected")

	if err := a.Serve(ctx, cfg.Server, serviceVersion); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}

	log.Info().Msg("✅ Server exited gracefully")
}

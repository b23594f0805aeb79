// Package app wires storage, the retry engine and the catalog services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/quotecatalog/internal/api/handlers"
	"github.com/wonny/quotecatalog/internal/api/router"
	"github.com/wonny/quotecatalog/internal/infra/database"
	"github.com/wonny/quotecatalog/internal/pkg/config"
	applogger "github.com/wonny/quotecatalog/internal/pkg/logger"
	"github.com/wonny/quotecatalog/internal/service/quote"
	"github.com/wonny/quotecatalog/internal/service/ticker"
	"github.com/wonny/quotecatalog/internal/service/txn"
)

const shutdownTimeout = 10 * time.Second

// App holds the assembled catalog
type App struct {
	DB       *database.Database
	Runner   *txn.Runner
	Registry *prometheus.Registry
	Tickers  *ticker.Service
	Quotes   *quote.Service
	Clock    clock.Clock
}

// New opens the configured database and assembles the App
func New(ctx context.Context, cfg *config.Config, logCfg applogger.Config) (*App, error) {
	db, err := database.Open(ctx, cfg.Database, logCfg)
	if err != nil {
		return nil, err
	}
	return Assemble(db, cfg.Retry, clock.WallClock), nil
}

// Assemble builds services on an already opened database
func Assemble(db *database.Database, retry config.RetryConfig, clk clock.Clock) *App {
	collector := txn.NewCollector()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	runner := txn.NewRunner(db.Store, txn.Config{
		MaxAttempts:     retry.MaxAttempts,
		RetryDelay:      retry.Delay,
		RollbackTimeout: txn.DefaultRollbackTimeout,
	}, txn.WithClock(clk), txn.WithMetrics(collector))

	return &App{
		DB:       db,
		Runner:   runner,
		Registry: registry,
		Tickers:  ticker.NewService(runner),
		Quotes:   quote.NewService(runner),
		Clock:    clk,
	}
}

// Handler returns the HTTP handler for the REST API
func (a *App) Handler(cfg config.ServerConfig, version string) http.Handler {
	return router.NewRouter(&router.Config{
		TickerHandler:  handlers.NewTickerHandler(a.Tickers, cfg.OperationTimeout),
		QuoteHandler:   handlers.NewQuoteHandler(a.Quotes, a.Clock, cfg.OperationTimeout),
		HealthHandler:  handlers.NewHealthHandler(a.DB, version),
		Gatherer:       a.Registry,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.WriteTimeout,
	})
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully
func (a *App) Serve(ctx context.Context, cfg config.ServerConfig, version string) error {
	listener, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
	}
	return a.ServeListener(ctx, listener, cfg, version)
}

// ServeListener is Serve on an existing listener
func (a *App) ServeListener(ctx context.Context, listener net.Listener, cfg config.ServerConfig, version string) error {
	server := &http.Server{
		Handler:      a.Handler(cfg, version),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout + time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().
			Str("address", listener.Addr().String()).
			Str("driver", a.DB.Driver).
			Msg("🎯 API Server listening")

		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("🛑 Shutdown signal received, stopping server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close releases the database
func (a *App) Close() {
	a.DB.Close()
}

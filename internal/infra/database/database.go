// Package database selects and opens the configured catalog store.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/rs/zerolog/log"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
	"github.com/wonny/quotecatalog/internal/infra/database/health"
	"github.com/wonny/quotecatalog/internal/infra/database/memory"
	"github.com/wonny/quotecatalog/internal/infra/database/postgres"
	"github.com/wonny/quotecatalog/internal/infra/database/sqlite"
	"github.com/wonny/quotecatalog/internal/pkg/config"
	applogger "github.com/wonny/quotecatalog/internal/pkg/logger"
)

const connectDelay = time.Second

// Database is an opened catalog store together with its health probe
type Database struct {
	Store  catalog.Store
	Driver string

	checker health.Checker
	closer  func()
}

// Health reports the health of the underlying store
func (d *Database) Health(ctx context.Context) *health.Status {
	return d.checker.Health(ctx)
}

// Close releases the underlying store
func (d *Database) Close() {
	if d.closer != nil {
		d.closer()
	}
}

// Open opens the store selected by cfg.Driver.
// PostgreSQL connections are retried while the server comes up.
func Open(ctx context.Context, cfg config.DatabaseConfig, logCfg applogger.Config) (*Database, error) {
	return open(ctx, cfg, logCfg, clock.WallClock)
}

func open(ctx context.Context, cfg config.DatabaseConfig, logCfg applogger.Config, clk clock.Clock) (*Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := connectPostgres(ctx, cfg, logCfg, clk)
		if err != nil {
			return nil, err
		}
		return &Database{
			Store:   postgres.NewStore(pool),
			Driver:  cfg.Driver,
			checker: pool,
			closer:  pool.Close,
		}, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("✅ SQLite opened")
		return &Database{
			Store:   store,
			Driver:  cfg.Driver,
			checker: store,
			closer: func() {
				if err := store.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close SQLite")
				}
			},
		}, nil

	case config.DriverMemory:
		store := memory.NewStore()
		log.Warn().Msg("Using in-memory store, data is lost on exit")
		return &Database{
			Store:   store,
			Driver:  cfg.Driver,
			checker: store,
		}, nil
	}

	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig, logCfg applogger.Config, clk clock.Clock) (*postgres.Pool, error) {
	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var pool *postgres.Pool
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			p, err := postgres.NewPool(ctx, cfg, logCfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		},
		IsFatalError: func(err error) bool {
			return ctx.Err() != nil
		},
		NotifyFunc: func(err error, attempt int) {
			log.Warn().Err(err).Int("attempt", attempt).Msg("PostgreSQL not reachable, retrying")
		},
		Attempts:    attempts,
		Delay:       connectDelay,
		BackoffFunc: retry.DoubleDelay,
		MaxDelay:    10 * time.Second,
		Clock:       clk,
		Stop:        ctx.Done(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", retry.LastError(err))
	}
	return pool, nil
}

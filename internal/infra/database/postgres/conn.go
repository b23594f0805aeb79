package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog/log"

	"github.com/wonny/quotecatalog/internal/pkg/config"
	applogger "github.com/wonny/quotecatalog/internal/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// Pool wraps pgxpool.Pool
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new PostgreSQL connection pool and applies the schema
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logCfg applogger.Config) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	log.Info().
		Str("host", poolConfig.ConnConfig.Host).
		Uint16("port", poolConfig.ConnConfig.Port).
		Str("database", poolConfig.ConnConfig.Database).
		Str("user", poolConfig.ConnConfig.User).
		Msg("Connecting to PostgreSQL...")

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.ConnConfig.Tracer = newTracer(logCfg)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Pool{Pool: pool}
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().Msg("✅ PostgreSQL connected successfully")
	return p, nil
}

// newTracer logs queries through the query logger.
// Slow queries and failures are always reported; the rest follow the log level.
func newTracer(logCfg applogger.Config) *multiTracer {
	queryLogger := applogger.NewQueryLogger(logCfg)

	level := tracelog.LogLevelWarn
	switch logCfg.Level {
	case "trace", "debug":
		level = tracelog.LogLevelDebug
	case "info":
		level = tracelog.LogLevelInfo
	}

	return &multiTracer{
		query: NewQueryLogger(queryLogger, 100*time.Millisecond),
		trace: &tracelog.TraceLog{
			Logger:   NewPgxZerologAdapter(queryLogger),
			LogLevel: level,
		},
	}
}

// EnsureSchema creates the ticker and quote tables if they do not exist
func (p *Pool) EnsureSchema(ctx context.Context) error {
	if _, err := p.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (p *Pool) Close() {
	log.Info().Msg("Closing PostgreSQL connection pool...")
	p.Pool.Close()
}

// Package txn runs units of work inside serializable transactions and
// retries them when the store reports a conflict.
package txn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/rs/zerolog/log"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

// Default values
const (
	DefaultMaxAttempts     = 10
	DefaultRetryDelay      = 100 * time.Millisecond
	DefaultRollbackTimeout = 5 * time.Second
)

// Config holds retry settings
type Config struct {
	// MaxAttempts bounds how many transactions one operation may open
	MaxAttempts int
	// RetryDelay is the fixed pause between a conflict and the next attempt
	RetryDelay time.Duration
	// RollbackTimeout bounds rollback after the caller's context has expired
	RollbackTimeout time.Duration
}

// DefaultConfig returns the production retry settings
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     DefaultMaxAttempts,
		RetryDelay:      DefaultRetryDelay,
		RollbackTimeout: DefaultRollbackTimeout,
	}
}

// Work is one read-check-write attempt. It is called once per transaction and
// must not keep state between calls.
type Work[T any] func(ctx context.Context, tx catalog.Tx) (T, error)

// Runner drives the transaction lifecycle and the retry loop
type Runner struct {
	store   catalog.Store
	cfg     Config
	clock   clock.Clock
	metrics *Collector
}

// Option configures a Runner
type Option func(*Runner)

// WithClock sets the clock used for the retry delay
func WithClock(c clock.Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithMetrics records attempts and outcomes in the collector
func WithMetrics(c *Collector) Option {
	return func(r *Runner) {
		r.metrics = c
	}
}

// NewRunner creates a new Runner
func NewRunner(store catalog.Store, cfg Config, opts ...Option) *Runner {
	if cfg.RollbackTimeout <= 0 {
		cfg.RollbackTimeout = DefaultRollbackTimeout
	}
	r := &Runner{
		store: store,
		cfg:   cfg,
		clock: clock.WallClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts returns the configured attempt budget
func (r *Runner) MaxAttempts() int {
	return r.cfg.MaxAttempts
}

// WithMaxAttempts returns a copy of the runner with a different attempt budget
func (r *Runner) WithMaxAttempts(n int) *Runner {
	cp := *r
	cp.cfg.MaxAttempts = n
	return &cp
}

// Run executes work in a serializable transaction.
//
// Conflicts are retried after RetryDelay until MaxAttempts transactions have
// been tried, then ErrRetryLimitExceeded is returned. Domain errors from work
// are returned unchanged. Every other failure is returned wrapped in
// ErrStorageFailure with the cause kept in the chain.
func Run[T any](ctx context.Context, r *Runner, op string, work Work[T]) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		if attempt >= r.cfg.MaxAttempts {
			r.metrics.observeOutcome(op, outcomeRetryLimit)
			log.Warn().
				Str("op", op).
				Int("attempts", attempt).
				Msg("Transaction retry limit reached")
			return zero, fmt.Errorf("%w: %s gave up after %d attempts", catalog.ErrRetryLimitExceeded, op, attempt)
		}

		r.metrics.observeAttempt(op)
		result, err := runOnce(ctx, r, work)

		switch {
		case err == nil:
			r.metrics.observeOutcome(op, outcomeSuccess)
			return result, nil

		case catalog.IsDomainError(err):
			r.metrics.observeOutcome(op, outcomeDomain)
			return zero, err

		case errors.Is(err, catalog.ErrConflict):
			r.metrics.observeConflict(op)
			log.Debug().
				Err(err).
				Str("op", op).
				Int("attempt", attempt+1).
				Msg("Transaction conflict, retrying")

			if err := r.wait(ctx); err != nil {
				r.metrics.observeOutcome(op, outcomeStorage)
				return zero, fmt.Errorf("%w: %s: %w", catalog.ErrStorageFailure, op, err)
			}

		default:
			r.metrics.observeOutcome(op, outcomeStorage)
			log.Error().
				Err(err).
				Str("op", op).
				Msg("Transaction failed")
			return zero, fmt.Errorf("%w: %s: %w", catalog.ErrStorageFailure, op, err)
		}
	}
}

// runOnce opens one transaction, runs work and commits.
// The transaction is rolled back on every path except a successful commit,
// including panics raised by work.
func runOnce[T any](ctx context.Context, r *Runner, work Work[T]) (T, error) {
	var zero T

	tx, err := r.store.BeginSerializable(ctx)
	if err != nil {
		return zero, err
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// rollback must run even when ctx has already expired
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.RollbackTimeout)
		defer cancel()
		if err := tx.Rollback(rbCtx); err != nil {
			log.Warn().Err(err).Msg("Transaction rollback failed")
		}
	}()

	result, err := work(ctx, tx)
	if err != nil {
		return zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, err
	}
	committed = true

	return result, nil
}

// wait pauses between attempts
func (r *Runner) wait(ctx context.Context) error {
	if r.cfg.RetryDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.clock.After(r.cfg.RetryDelay):
		return nil
	}
}

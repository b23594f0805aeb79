package ticker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
	"github.com/wonny/quotecatalog/internal/service/txn"
)

// Service enforces ticker invariants on top of the retry engine
type Service struct {
	runner *txn.Runner
}

// NewService creates a new ticker Service
func NewService(runner *txn.Runner) *Service {
	return &Service{runner: runner}
}

// Get returns the ticker or ErrNotFound
func (s *Service) Get(ctx context.Context, name string) (*catalog.Ticker, error) {
	return txn.Run(ctx, s.runner, "ticker.get", func(ctx context.Context, tx catalog.Tx) (*catalog.Ticker, error) {
		return mustFind(ctx, tx, name)
	})
}

// List returns all tickers. A single attempt is made.
func (s *Service) List(ctx context.Context) ([]catalog.Ticker, error) {
	return txn.Run(ctx, s.runner.WithMaxAttempts(1), "ticker.list", func(ctx context.Context, tx catalog.Tx) ([]catalog.Ticker, error) {
		return tx.ListTickers(ctx)
	})
}

// Add inserts a new ticker.
// A concurrent insert of the same name surfaces as a conflict; the retry then
// finds the committed row and returns ErrAlreadyExists (first writer wins).
func (s *Service) Add(ctx context.Context, t catalog.Ticker) (*catalog.Ticker, error) {
	added, err := txn.Run(ctx, s.runner, "ticker.add", func(ctx context.Context, tx catalog.Tx) (*catalog.Ticker, error) {
		existing, err := tx.FindTicker(ctx, t.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: ticker %q", catalog.ErrAlreadyExists, t.Name)
		}
		if err := tx.InsertTicker(ctx, t); err != nil {
			return nil, err
		}
		added := t
		return &added, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("name", t.Name).Msg("Ticker added")
	return added, nil
}

// Delete removes a ticker that no quote references and returns its last state
func (s *Service) Delete(ctx context.Context, name string) (*catalog.Ticker, error) {
	deleted, err := txn.Run(ctx, s.runner, "ticker.delete", func(ctx context.Context, tx catalog.Tx) (*catalog.Ticker, error) {
		existing, err := mustFind(ctx, tx, name)
		if err != nil {
			return nil, err
		}

		inUse, err := tx.HasQuotes(ctx, name)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, fmt.Errorf("%w: ticker %q has quotes, delete them first", catalog.ErrInUse, name)
		}

		if err := tx.DeleteTicker(ctx, name); err != nil {
			return nil, err
		}
		return existing, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("name", name).Msg("Ticker deleted")
	return deleted, nil
}

// Edit replaces full name and description of an existing ticker
func (s *Service) Edit(ctx context.Context, t catalog.Ticker) (*catalog.Ticker, error) {
	return txn.Run(ctx, s.runner, "ticker.edit", func(ctx context.Context, tx catalog.Tx) (*catalog.Ticker, error) {
		if _, err := mustFind(ctx, tx, t.Name); err != nil {
			return nil, err
		}
		if err := tx.UpdateTicker(ctx, t); err != nil {
			return nil, err
		}
		edited := t
		return &edited, nil
	})
}

func mustFind(ctx context.Context, tx catalog.Tx, name string) (*catalog.Ticker, error) {
	t, err := tx.FindTicker(ctx, name)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: ticker %q", catalog.ErrNotFound, name)
	}
	return t, nil
}

package quote

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
	"github.com/wonny/quotecatalog/internal/service/txn"
)

// Service enforces quote invariants on top of the retry engine
type Service struct {
	runner *txn.Runner
}

// NewService creates a new quote Service
func NewService(runner *txn.Runner) *Service {
	return &Service{runner: runner}
}

// Get returns the quote or ErrNotFound
func (s *Service) Get(ctx context.Context, key catalog.QuoteKey) (*catalog.Quote, error) {
	return txn.Run(ctx, s.runner, "quote.get", func(ctx context.Context, tx catalog.Tx) (*catalog.Quote, error) {
		return mustFind(ctx, tx, key)
	})
}

// List returns all quotes. A single attempt is made.
func (s *Service) List(ctx context.Context) ([]catalog.Quote, error) {
	return txn.Run(ctx, s.runner.WithMaxAttempts(1), "quote.list", func(ctx context.Context, tx catalog.Tx) ([]catalog.Quote, error) {
		return tx.ListQuotes(ctx)
	})
}

// Add inserts a quote, creating a placeholder ticker first when the name is unknown.
// Both inserts happen in the same transaction so a failed add leaves no ticker behind.
func (s *Service) Add(ctx context.Context, q catalog.Quote) (*catalog.Quote, error) {
	provisioned := false

	added, err := txn.Run(ctx, s.runner, "quote.add", func(ctx context.Context, tx catalog.Tx) (*catalog.Quote, error) {
		provisioned = false

		ticker, err := tx.FindTicker(ctx, q.Name)
		if err != nil {
			return nil, err
		}
		if ticker == nil {
			if err := tx.InsertTicker(ctx, catalog.PlaceholderTicker(q.Name)); err != nil {
				return nil, err
			}
			provisioned = true
		}

		existing, err := tx.FindQuote(ctx, q.Key())
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: quote %q at %d", catalog.ErrAlreadyExists, q.Name, q.Timestamp)
		}

		if err := tx.InsertQuote(ctx, q); err != nil {
			return nil, err
		}
		added := q
		return &added, nil
	})
	if err != nil {
		return nil, err
	}

	event := log.Info().Str("name", q.Name).Int64("timestamp", q.Timestamp)
	if provisioned {
		event = event.Bool("ticker_provisioned", true)
	}
	event.Msg("Quote added")

	return added, nil
}

// Delete removes a quote and returns its last state
func (s *Service) Delete(ctx context.Context, key catalog.QuoteKey) (*catalog.Quote, error) {
	return txn.Run(ctx, s.runner, "quote.delete", func(ctx context.Context, tx catalog.Tx) (*catalog.Quote, error) {
		existing, err := mustFind(ctx, tx, key)
		if err != nil {
			return nil, err
		}
		if err := tx.DeleteQuote(ctx, key); err != nil {
			return nil, err
		}
		return existing, nil
	})
}

// Edit replaces the price of an existing quote. Name and timestamp are the key and never change.
func (s *Service) Edit(ctx context.Context, q catalog.Quote) (*catalog.Quote, error) {
	return txn.Run(ctx, s.runner, "quote.edit", func(ctx context.Context, tx catalog.Tx) (*catalog.Quote, error) {
		if _, err := mustFind(ctx, tx, q.Key()); err != nil {
			return nil, err
		}
		if err := tx.UpdateQuote(ctx, q); err != nil {
			return nil, err
		}
		edited := q
		return &edited, nil
	})
}

func mustFind(ctx context.Context, tx catalog.Tx, key catalog.QuoteKey) (*catalog.Quote, error) {
	q, err := tx.FindQuote(ctx, key)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("%w: quote %q at %d", catalog.ErrNotFound, key.Name, key.Timestamp)
	}
	return q, nil
}

package catalog

import "context"

// Store opens serializable transactions against the backing database.
// Each call checks out its own session; nothing is shared between transactions.
type Store interface {
	// BeginSerializable starts a transaction at SERIALIZABLE isolation
	BeginSerializable(ctx context.Context) (Tx, error)
}

// TickerRepository defines ticker access inside a transaction
type TickerRepository interface {
	// FindTicker returns nil, nil when the ticker does not exist
	FindTicker(ctx context.Context, name string) (*Ticker, error)

	// ListTickers returns all tickers ordered by name
	ListTickers(ctx context.Context) ([]Ticker, error)

	// InsertTicker fails with ErrConflict if the name is taken
	InsertTicker(ctx context.Context, t Ticker) error

	// UpdateTicker replaces full_name and description
	UpdateTicker(ctx context.Context, t Ticker) error

	// DeleteTicker removes the ticker by name
	DeleteTicker(ctx context.Context, name string) error
}

// QuoteRepository defines quote access inside a transaction
type QuoteRepository interface {
	// FindQuote returns nil, nil when the quote does not exist
	FindQuote(ctx context.Context, key QuoteKey) (*Quote, error)

	// ListQuotes returns all quotes ordered by name, timestamp
	ListQuotes(ctx context.Context) ([]Quote, error)

	// HasQuotes reports whether any quote references the ticker name
	HasQuotes(ctx context.Context, name string) (bool, error)

	// InsertQuote fails with ErrConflict if the key is taken
	InsertQuote(ctx context.Context, q Quote) error

	// UpdateQuote replaces the price
	UpdateQuote(ctx context.Context, q Quote) error

	// DeleteQuote removes the quote by key
	DeleteQuote(ctx context.Context, key QuoteKey) error
}

// Tx is a single serializable transaction.
// Every error returned wraps ErrConflict or ErrStoreFailure.
type Tx interface {
	TickerRepository
	QuoteRepository

	// Commit may fail with ErrConflict when the store detects the anomaly at commit time
	Commit(ctx context.Context) error

	// Rollback releases the transaction. Calling it after Commit or a second time is a no-op.
	Rollback(ctx context.Context) error
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

// Store implements catalog.Store on a PostgreSQL pool
type Store struct {
	pool *Pool
}

// NewStore creates a new Store
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// BeginSerializable starts a SERIALIZABLE transaction on a pooled connection
func (s *Store) BeginSerializable(ctx context.Context) (catalog.Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, classify("begin", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx implements catalog.Tx on a pgx transaction
type Tx struct {
	tx pgx.Tx
}

// FindTicker returns the ticker or nil if absent
func (t *Tx) FindTicker(ctx context.Context, name string) (*catalog.Ticker, error) {
	query := `SELECT name, full_name, description FROM ticker WHERE name = $1`

	var tk catalog.Ticker
	err := t.tx.QueryRow(ctx, query, name).Scan(&tk.Name, &tk.FullName, &tk.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find ticker", err)
	}
	return &tk, nil
}

// ListTickers returns all tickers ordered by name
func (t *Tx) ListTickers(ctx context.Context) ([]catalog.Ticker, error) {
	query := `SELECT name, full_name, description FROM ticker ORDER BY name`

	rows, err := t.tx.Query(ctx, query)
	if err != nil {
		return nil, classify("list tickers", err)
	}
	defer rows.Close()

	tickers := []catalog.Ticker{}
	for rows.Next() {
		var tk catalog.Ticker
		if err := rows.Scan(&tk.Name, &tk.FullName, &tk.Description); err != nil {
			return nil, classify("scan ticker", err)
		}
		tickers = append(tickers, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list tickers", err)
	}
	return tickers, nil
}

// InsertTicker inserts a ticker
func (t *Tx) InsertTicker(ctx context.Context, tk catalog.Ticker) error {
	query := `INSERT INTO ticker (name, full_name, description) VALUES ($1, $2, $3)`

	_, err := t.tx.Exec(ctx, query, tk.Name, tk.FullName, tk.Description)
	return classify("insert ticker", err)
}

// UpdateTicker replaces the non-key fields of a ticker
func (t *Tx) UpdateTicker(ctx context.Context, tk catalog.Ticker) error {
	query := `UPDATE ticker SET full_name = $2, description = $3 WHERE name = $1`

	_, err := t.tx.Exec(ctx, query, tk.Name, tk.FullName, tk.Description)
	return classify("update ticker", err)
}

// DeleteTicker deletes a ticker by name
func (t *Tx) DeleteTicker(ctx context.Context, name string) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM ticker WHERE name = $1`, name)
	return classify("delete ticker", err)
}

// FindQuote returns the quote or nil if absent
func (t *Tx) FindQuote(ctx context.Context, key catalog.QuoteKey) (*catalog.Quote, error) {
	query := `SELECT name, "timestamp", price::text FROM quote WHERE name = $1 AND "timestamp" = $2`

	q, err := scanQuote(t.tx.QueryRow(ctx, query, key.Name, key.Timestamp))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find quote", err)
	}
	return q, nil
}

// ListQuotes returns all quotes ordered by name and timestamp
func (t *Tx) ListQuotes(ctx context.Context) ([]catalog.Quote, error) {
	query := `SELECT name, "timestamp", price::text FROM quote ORDER BY name, "timestamp"`

	rows, err := t.tx.Query(ctx, query)
	if err != nil {
		return nil, classify("list quotes", err)
	}
	defer rows.Close()

	quotes := []catalog.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, classify("scan quote", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list quotes", err)
	}
	return quotes, nil
}

// HasQuotes reports whether any quote references the ticker
func (t *Tx) HasQuotes(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM quote WHERE name = $1)`

	var exists bool
	if err := t.tx.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, classify("check quotes", err)
	}
	return exists, nil
}

// InsertQuote inserts a quote
func (t *Tx) InsertQuote(ctx context.Context, q catalog.Quote) error {
	query := `INSERT INTO quote (name, "timestamp", price) VALUES ($1, $2, $3::numeric)`

	_, err := t.tx.Exec(ctx, query, q.Name, q.Timestamp, q.Price.String())
	return classify("insert quote", err)
}

// UpdateQuote replaces the price of a quote
func (t *Tx) UpdateQuote(ctx context.Context, q catalog.Quote) error {
	query := `UPDATE quote SET price = $3::numeric WHERE name = $1 AND "timestamp" = $2`

	_, err := t.tx.Exec(ctx, query, q.Name, q.Timestamp, q.Price.String())
	return classify("update quote", err)
}

// DeleteQuote deletes a quote by key
func (t *Tx) DeleteQuote(ctx context.Context, key catalog.QuoteKey) error {
	query := `DELETE FROM quote WHERE name = $1 AND "timestamp" = $2`

	_, err := t.tx.Exec(ctx, query, key.Name, key.Timestamp)
	return classify("delete quote", err)
}

// Commit commits the transaction. Serialization failures surface here as conflicts.
func (t *Tx) Commit(ctx context.Context) error {
	return classify("commit", t.tx.Commit(ctx))
}

// Rollback aborts the transaction. It is a no-op once the transaction is closed.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return classify("rollback", err)
}

func scanQuote(row pgx.Row) (*catalog.Quote, error) {
	var (
		q     catalog.Quote
		price string
	)
	if err := row.Scan(&q.Name, &q.Timestamp, &price); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	q.Price = parsed
	return &q, nil
}

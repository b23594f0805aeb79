// Package sqlite implements the catalog store on a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
	"github.com/wonny/quotecatalog/internal/infra/database/health"
)

//go:embed schema.sql
var schemaSQL string

// Store implements catalog.Store on SQLite.
// SQLite transactions are serializable; a single connection serialises
// writers inside the process and busy errors from other processes are conflicts.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	// a :memory: database lives as long as its connection
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Health pings the database and reports connection stats
func (s *Store) Health(ctx context.Context) *health.Status {
	start := time.Now()
	status := &health.Status{
		Status:    health.Healthy,
		Driver:    "sqlite",
		CheckedAt: start,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := s.db.PingContext(pingCtx); err != nil {
		status.Status = health.Unhealthy
		status.Error = fmt.Sprintf("ping failed: %v", err)
	}

	stats := s.db.Stats()
	status.ActiveConns = int32(stats.InUse)
	status.IdleConns = int32(stats.Idle)
	status.TotalConns = int32(stats.OpenConnections)
	status.MaxConns = int32(stats.MaxOpenConnections)
	status.ResponseTime = time.Since(start).String()
	return status
}

// BeginSerializable starts a transaction
func (s *Store) BeginSerializable(ctx context.Context) (catalog.Tx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, classify("begin", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx implements catalog.Tx on a database/sql transaction
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) FindTicker(ctx context.Context, name string) (*catalog.Ticker, error) {
	query := `SELECT name, full_name, description FROM ticker WHERE name = ?`

	var tk catalog.Ticker
	err := t.tx.QueryRowContext(ctx, query, name).Scan(&tk.Name, &tk.FullName, &tk.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find ticker", err)
	}
	return &tk, nil
}

func (t *Tx) ListTickers(ctx context.Context) ([]catalog.Ticker, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT name, full_name, description FROM ticker ORDER BY name`)
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

func (t *Tx) InsertTicker(ctx context.Context, tk catalog.Ticker) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO ticker (name, full_name, description) VALUES (?, ?, ?)`,
		tk.Name, tk.FullName, tk.Description)
	return classify("insert ticker", err)
}

func (t *Tx) UpdateTicker(ctx context.Context, tk catalog.Ticker) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE ticker SET full_name = ?, description = ? WHERE name = ?`,
		tk.FullName, tk.Description, tk.Name)
	return classify("update ticker", err)
}

func (t *Tx) DeleteTicker(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM ticker WHERE name = ?`, name)
	return classify("delete ticker", err)
}

func (t *Tx) FindQuote(ctx context.Context, key catalog.QuoteKey) (*catalog.Quote, error) {
	query := `SELECT name, "timestamp", price FROM quote WHERE name = ? AND "timestamp" = ?`

	var q catalog.Quote
	err := t.tx.QueryRowContext(ctx, query, key.Name, key.Timestamp).Scan(&q.Name, &q.Timestamp, &q.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find quote", err)
	}
	return &q, nil
}

func (t *Tx) ListQuotes(ctx context.Context) ([]catalog.Quote, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT name, "timestamp", price FROM quote ORDER BY name, "timestamp"`)
	if err != nil {
		return nil, classify("list quotes", err)
	}
	defer rows.Close()

	quotes := []catalog.Quote{}
	for rows.Next() {
		var q catalog.Quote
		if err := rows.Scan(&q.Name, &q.Timestamp, &q.Price); err != nil {
			return nil, classify("scan quote", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list quotes", err)
	}
	return quotes, nil
}

func (t *Tx) HasQuotes(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM quote WHERE name = ?)`, name).Scan(&exists)
	if err != nil {
		return false, classify("check quotes", err)
	}
	return exists, nil
}

func (t *Tx) InsertQuote(ctx context.Context, q catalog.Quote) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO quote (name, "timestamp", price) VALUES (?, ?, ?)`,
		q.Name, q.Timestamp, q.Price.StringFixed(catalog.PriceScale))
	return classify("insert quote", err)
}

func (t *Tx) UpdateQuote(ctx context.Context, q catalog.Quote) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE quote SET price = ? WHERE name = ? AND "timestamp" = ?`,
		q.Price.StringFixed(catalog.PriceScale), q.Name, q.Timestamp)
	return classify("update quote", err)
}

func (t *Tx) DeleteQuote(ctx context.Context, key catalog.QuoteKey) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM quote WHERE name = ? AND "timestamp" = ?`, key.Name, key.Timestamp)
	return classify("delete quote", err)
}

func (t *Tx) Commit(ctx context.Context) error {
	return classify("commit", t.tx.Commit())
}

// Rollback is a no-op once the transaction is closed
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return classify("rollback", err)
}

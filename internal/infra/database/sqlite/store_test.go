package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
	"github.com/wonny/quotecatalog/internal/infra/database/health"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginSerializable(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertTicker(ctx, catalog.Ticker{Name: "AAPL", FullName: "Apple", Description: "phones"}))
	require.NoError(t, tx.InsertQuote(ctx, catalog.Quote{Name: "AAPL", Timestamp: 20, Price: decimal.RequireFromString("0.1")}))
	require.NoError(t, tx.InsertQuote(ctx, catalog.Quote{Name: "AAPL", Timestamp: 10, Price: decimal.RequireFromString("99999999.99")}))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx), "rollback after commit is a no-op")

	tx, err = store.BeginSerializable(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	tk, err := tx.FindTicker(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, tk)
	assert.Equal(t, "Apple", tk.FullName)

	quotes, err := tx.ListQuotes(ctx)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, int64(10), quotes[0].Timestamp)
	assert.True(t, quotes[0].Price.Equal(decimal.RequireFromString("99999999.99")))
	assert.True(t, quotes[1].Price.Equal(decimal.RequireFromString("0.10")))

	inUse, err := tx.HasQuotes(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, inUse)

	none, err := tx.HasQuotes(ctx, "MSFT")
	require.NoError(t, err)
	assert.False(t, none)
}

func TestStore_FindMissing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginSerializable(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	tk, err := tx.FindTicker(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, tk)

	q, err := tx.FindQuote(ctx, catalog.QuoteKey{Name: "NOPE", Timestamp: 1})
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginSerializable(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertTicker(ctx, catalog.Ticker{Name: "AAPL", FullName: "Apple", Description: "phones"}))
	require.NoError(t, tx.InsertQuote(ctx, catalog.Quote{Name: "AAPL", Timestamp: 1, Price: decimal.NewFromInt(1)}))
	require.NoError(t, tx.UpdateTicker(ctx, catalog.Ticker{Name: "AAPL", FullName: "Apple Inc.", Description: "more"}))
	require.NoError(t, tx.UpdateQuote(ctx, catalog.Quote{Name: "AAPL", Timestamp: 1, Price: decimal.RequireFromString("2.5")}))

	tk, err := tx.FindTicker(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", tk.FullName)

	q, err := tx.FindQuote(ctx, catalog.QuoteKey{Name: "AAPL", Timestamp: 1})
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("2.50")))

	require.NoError(t, tx.DeleteQuote(ctx, q.Key()))
	require.NoError(t, tx.DeleteTicker(ctx, "AAPL"))
	require.NoError(t, tx.Commit(ctx))

	tx, err = store.BeginSerializable(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	tickers, err := tx.ListTickers(ctx)
	require.NoError(t, err)
	assert.Empty(t, tickers)
}

func TestStore_DuplicateInsertIsConflict(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginSerializable(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	require.NoError(t, tx.InsertTicker(ctx, catalog.Ticker{Name: "AAPL", FullName: "Apple", Description: "phones"}))
	err = tx.InsertTicker(ctx, catalog.Ticker{Name: "AAPL", FullName: "Apple", Description: "phones"})
	assert.ErrorIs(t, err, catalog.ErrConflict)
}

func TestStore_ForeignKeyIsStoreFailure(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginSerializable(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	err = tx.InsertQuote(ctx, catalog.Quote{Name: "NOPE", Timestamp: 1, Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, catalog.ErrStoreFailure)
	assert.NotErrorIs(t, err, catalog.ErrConflict)
}

func TestStore_Health(t *testing.T) {
	store := openTestStore(t)

	status := store.Health(context.Background())
	assert.Equal(t, health.Healthy, status.Status)
	assert.Equal(t, "sqlite", status.Driver)
	assert.Equal(t, int32(1), status.MaxConns)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, want: catalog.ErrConflict},
		{name: "locked", err: sqlite3.Error{Code: sqlite3.ErrLocked}, want: catalog.ErrConflict},
		{name: "unique", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, want: catalog.ErrConflict},
		{name: "primary key", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, want: catalog.ErrConflict},
		{name: "wrapped busy", err: fmt.Errorf("exec: %w", sqlite3.Error{Code: sqlite3.ErrBusy}), want: catalog.ErrConflict},
		{name: "foreign key", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, want: catalog.ErrStoreFailure},
		{name: "io", err: sqlite3.Error{Code: sqlite3.ErrIoErr}, want: catalog.ErrStoreFailure},
		{name: "plain", err: errors.New("boom"), want: catalog.ErrStoreFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify("op", tt.err), tt.want)
		})
	}
}

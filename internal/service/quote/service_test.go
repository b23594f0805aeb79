package quote

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
	"github.com/wonny/quotecatalog/internal/infra/database/memory"
	"github.com/wonny/quotecatalog/internal/service/ticker"
	"github.com/wonny/quotecatalog/internal/service/txn"
)

type fixture struct {
	quotes  *Service
	tickers *ticker.Service
	store   *memory.Store
}

func newFixture(maxAttempts int) fixture {
	store := memory.NewStore()
	runner := txn.NewRunner(store, txn.Config{MaxAttempts: maxAttempts, RetryDelay: time.Millisecond})
	return fixture{
		quotes:  NewService(runner),
		tickers: ticker.NewService(runner),
		store:   store,
	}
}

func quoteAt(name string, ts int64, price string) catalog.Quote {
	return catalog.Quote{Name: name, Timestamp: ts, Price: decimal.RequireFromString(price)}
}

func TestService_AddProvisionsUnknownTicker(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()

	added, err := f.quotes.Add(ctx, quoteAt("NEW", 1_700_000_000, "12.34"))
	require.NoError(t, err)
	assert.True(t, added.Equal(quoteAt("NEW", 1_700_000_000, "12.34")))

	tk, err := f.tickers.Get(ctx, "NEW")
	require.NoError(t, err)
	assert.Equal(t, catalog.PlaceholderTicker("NEW"), *tk)
	assert.Equal(t, "unknown", tk.FullName)
	assert.Equal(t, "unknown", tk.Description)
}

func TestService_AddKeepsExistingTicker(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()

	apple := catalog.Ticker{Name: "AAPL", FullName: "Apple Inc.", Description: "phones"}
	_, err := f.tickers.Add(ctx, apple)
	require.NoError(t, err)

	_, err = f.quotes.Add(ctx, quoteAt("AAPL", 1, "1"))
	require.NoError(t, err)

	tk, err := f.tickers.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, apple, *tk)
}

func TestService_AddDuplicate(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()

	_, err := f.quotes.Add(ctx, quoteAt("AAPL", 1, "1"))
	require.NoError(t, err)

	_, err = f.quotes.Add(ctx, quoteAt("AAPL", 1, "2"))
	assert.ErrorIs(t, err, catalog.ErrAlreadyExists)

	quotes := f.store.Quotes()
	require.Len(t, quotes, 1)
	assert.True(t, quotes[0].Price.Equal(decimal.NewFromInt(1)))
}

func TestService_FailedAddLeavesNoPlaceholder(t *testing.T) {
	f := newFixture(2)
	f.store.InjectCommitErrors(fmt.Errorf("%w: injected", catalog.ErrConflict), 2)

	_, err := f.quotes.Add(context.Background(), quoteAt("NEW", 1, "1"))
	require.ErrorIs(t, err, catalog.ErrRetryLimitExceeded)

	assert.Empty(t, f.store.Tickers())
	assert.Empty(t, f.store.Quotes())
	assert.Equal(t, 0, f.store.OpenTransactions())
}

func TestService_ConcurrentAddsShareOnePlaceholder(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()

	const writers = 12
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		ts := int64(i + 1)
		g.Go(func() error {
			_, err := f.quotes.Add(ctx, quoteAt("NEW", ts, "5"))
			return err
		})
	}
	require.NoError(t, g.Wait())

	tickers := f.store.Tickers()
	require.Len(t, tickers, 1)
	assert.Equal(t, catalog.PlaceholderTicker("NEW"), tickers[0])
	assert.Len(t, f.store.Quotes(), writers)
}

func TestService_GetListEditDelete(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()
	key := catalog.QuoteKey{Name: "AAPL", Timestamp: 10}

	_, err := f.quotes.Get(ctx, key)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = f.quotes.Edit(ctx, quoteAt("AAPL", 10, "1"))
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = f.quotes.Delete(ctx, key)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = f.quotes.Add(ctx, quoteAt("AAPL", 20, "2"))
	require.NoError(t, err)
	_, err = f.quotes.Add(ctx, quoteAt("AAPL", 10, "1"))
	require.NoError(t, err)

	list, err := f.quotes.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(10), list[0].Timestamp)
	assert.Equal(t, int64(20), list[1].Timestamp)

	edited, err := f.quotes.Edit(ctx, quoteAt("AAPL", 10, "99.99"))
	require.NoError(t, err)
	assert.True(t, edited.Price.Equal(decimal.RequireFromString("99.99")))

	got, err := f.quotes.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, got.Equal(*edited))

	deleted, err := f.quotes.Delete(ctx, key)
	require.NoError(t, err)
	assert.True(t, deleted.Equal(*edited))

	_, err = f.quotes.Get(ctx, key)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Len(t, f.store.Quotes(), 1)
}

func TestService_TickerDeleteRequiresQuotesGone(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()

	_, err := f.quotes.Add(ctx, quoteAt("NEW", 1, "1"))
	require.NoError(t, err)

	_, err = f.tickers.Delete(ctx, "NEW")
	require.ErrorIs(t, err, catalog.ErrInUse)

	_, err = f.quotes.Delete(ctx, catalog.QuoteKey{Name: "NEW", Timestamp: 1})
	require.NoError(t, err)

	deleted, err := f.tickers.Delete(ctx, "NEW")
	require.NoError(t, err)
	assert.Equal(t, catalog.PlaceholderTicker("NEW"), *deleted)
}

func TestService_ConcurrentDeleteAndAddKeepReferences(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(10)
		ctx := context.Background()

		_, err := f.tickers.Add(ctx, catalog.Ticker{Name: "AAPL", FullName: "Apple", Description: "phones"})
		require.NoError(t, err)

		var g errgroup.Group
		g.Go(func() error {
			_, err := f.tickers.Delete(ctx, "AAPL")
			if err != nil && !catalog.IsDomainError(err) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			_, err := f.quotes.Add(ctx, quoteAt("AAPL", 1, "1"))
			return err
		})
		require.NoError(t, g.Wait())

		names := make(map[string]bool)
		for _, tk := range f.store.Tickers() {
			names[tk.Name] = true
		}
		for _, q := range f.store.Quotes() {
			assert.True(t, names[q.Name], "quote %s/%d has no ticker", q.Name, q.Timestamp)
		}
	}
}

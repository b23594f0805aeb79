// Package memory provides an in-process catalog store with serializable
// transactions. Each transaction reads the state as of its start; a read of a
// row changed after that point, or a commit whose reads or writes overlap a
// later commit, fails with catalog.ErrConflict.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
	"github.com/wonny/quotecatalog/internal/infra/database/health"
)

var errTxClosed = errors.New("transaction already closed")

// Store is an in-memory catalog.Store
type Store struct {
	mu sync.Mutex

	version uint64
	tickers map[string]catalog.Ticker
	quotes  map[catalog.QuoteKey]catalog.Quote

	// last commit version that touched each row / predicate / table
	tickerVer      map[string]uint64
	quoteVer       map[catalog.QuoteKey]uint64
	quoteNameVer   map[string]uint64
	tickerTableVer uint64
	quoteTableVer  uint64

	open     int
	injected []error
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		tickers:      make(map[string]catalog.Ticker),
		quotes:       make(map[catalog.QuoteKey]catalog.Quote),
		tickerVer:    make(map[string]uint64),
		quoteVer:     make(map[catalog.QuoteKey]uint64),
		quoteNameVer: make(map[string]uint64),
	}
}

// BeginSerializable starts a transaction at the current version
func (s *Store) BeginSerializable(ctx context.Context) (catalog.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: begin: %w", catalog.ErrStoreFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.open++
	return &Tx{
		store:          s,
		start:          s.version,
		readTickers:    make(map[string]struct{}),
		readQuotes:     make(map[catalog.QuoteKey]struct{}),
		readQuoteNames: make(map[string]struct{}),
		tickerWrites:   make(map[string]*catalog.Ticker),
		quoteWrites:    make(map[catalog.QuoteKey]*catalog.Quote),
		tickerInserts:  make(map[string]struct{}),
		quoteInserts:   make(map[catalog.QuoteKey]struct{}),
	}, nil
}

// OpenTransactions returns the number of transactions not yet committed or rolled back
func (s *Store) OpenTransactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Health always reports healthy; open transactions are shown as active connections
func (s *Store) Health(ctx context.Context) *health.Status {
	start := time.Now()
	return &health.Status{
		Status:       health.Healthy,
		Driver:       "memory",
		ActiveConns:  int32(s.OpenTransactions()),
		CheckedAt:    start,
		ResponseTime: time.Since(start).String(),
	}
}

// InjectCommitErrors makes the next n commits fail with err
func (s *Store) InjectCommitErrors(err error, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.injected = append(s.injected, err)
	}
}

// Tickers returns a sorted copy of committed tickers
func (s *Store) Tickers() []catalog.Ticker {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]catalog.Ticker, 0, len(s.tickers))
	for _, t := range s.tickers {
		out = append(out, t)
	}
	sortTickers(out)
	return out
}

// Quotes returns a sorted copy of committed quotes
func (s *Store) Quotes() []catalog.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]catalog.Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		out = append(out, q)
	}
	sortQuotes(out)
	return out
}

func sortTickers(ts []catalog.Ticker) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name < ts[j].Name })
}

func sortQuotes(qs []catalog.Quote) {
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].Name != qs[j].Name {
			return qs[i].Name < qs[j].Name
		}
		return qs[i].Timestamp < qs[j].Timestamp
	})
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", catalog.ErrConflict, fmt.Sprintf(format, args...))
}

func failuref(format string, args ...any) error {
	return fmt.Errorf("%w: %s", catalog.ErrStoreFailure, fmt.Sprintf(format, args...))
}

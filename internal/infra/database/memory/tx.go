package memory

import (
	"context"
	"fmt"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

// Tx is a transaction on a memory Store. A nil entry in a write map is a delete.
type Tx struct {
	store  *Store
	start  uint64
	closed bool

	readTickers    map[string]struct{}
	readQuotes     map[catalog.QuoteKey]struct{}
	readQuoteNames map[string]struct{}
	scanTickers    bool
	scanQuotes     bool

	tickerWrites  map[string]*catalog.Ticker
	quoteWrites   map[catalog.QuoteKey]*catalog.Quote
	tickerInserts map[string]struct{}
	quoteInserts  map[catalog.QuoteKey]struct{}
}

// enter locks the store and checks that the transaction is usable.
// Callers must unlock the store when enter returns nil.
func (tx *Tx) enter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", catalog.ErrStoreFailure, err)
	}
	tx.store.mu.Lock()
	if tx.closed {
		tx.store.mu.Unlock()
		return fmt.Errorf("%w: %w", catalog.ErrStoreFailure, errTxClosed)
	}
	return nil
}

// ============================================================================
// Tickers
// ============================================================================

// FindTicker returns the ticker visible to this transaction
func (tx *Tx) FindTicker(ctx context.Context, name string) (*catalog.Ticker, error) {
	if err := tx.enter(ctx); err != nil {
		return nil, err
	}
	defer tx.store.mu.Unlock()

	if w, ok := tx.tickerWrites[name]; ok {
		if w == nil {
			return nil, nil
		}
		t := *w
		return &t, nil
	}

	tx.readTickers[name] = struct{}{}
	if tx.store.tickerVer[name] > tx.start {
		return nil, conflictf("ticker %q changed after transaction start", name)
	}
	t, ok := tx.store.tickers[name]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// ListTickers returns all tickers visible to this transaction
func (tx *Tx) ListTickers(ctx context.Context) ([]catalog.Ticker, error) {
	if err := tx.enter(ctx); err != nil {
		return nil, err
	}
	defer tx.store.mu.Unlock()

	tx.scanTickers = true
	if tx.store.tickerTableVer > tx.start {
		return nil, conflictf("ticker table changed after transaction start")
	}

	merged := make(map[string]catalog.Ticker, len(tx.store.tickers))
	for name, t := range tx.store.tickers {
		merged[name] = t
	}
	for name, w := range tx.tickerWrites {
		if w == nil {
			delete(merged, name)
			continue
		}
		merged[name] = *w
	}

	out := make([]catalog.Ticker, 0, len(merged))
	for _, t := range merged {
		out = append(out, t)
	}
	sortTickers(out)
	return out, nil
}

// InsertTicker buffers an insert; a visible row with the same name is a unique violation
func (tx *Tx) InsertTicker(ctx context.Context, t catalog.Ticker) error {
	if err := tx.enter(ctx); err != nil {
		return err
	}
	defer tx.store.mu.Unlock()

	if tx.tickerVisible(t.Name) {
		return conflictf("duplicate key ticker %q", t.Name)
	}
	row := t
	tx.tickerWrites[t.Name] = &row
	tx.tickerInserts[t.Name] = struct{}{}
	return nil
}

// UpdateTicker buffers an update. Missing rows are left untouched.
func (tx *Tx) UpdateTicker(ctx context.Context, t catalog.Ticker) error {
	if err := tx.enter(ctx); err != nil {
		return err
	}
	defer tx.store.mu.Unlock()

	if !tx.tickerVisible(t.Name) {
		return nil
	}
	row := t
	tx.tickerWrites[t.Name] = &row
	return nil
}

// DeleteTicker buffers a delete; referencing quotes are a foreign key violation
func (tx *Tx) DeleteTicker(ctx context.Context, name string) error {
	if err := tx.enter(ctx); err != nil {
		return err
	}
	defer tx.store.mu.Unlock()

	if tx.quotesVisible(name) {
		return failuref("foreign key violation: quotes reference ticker %q", name)
	}
	tx.tickerWrites[name] = nil
	delete(tx.tickerInserts, name)
	return nil
}

// ============================================================================
// Quotes
// ============================================================================

// FindQuote returns the quote visible to this transaction
func (tx *Tx) FindQuote(ctx context.Context, key catalog.QuoteKey) (*catalog.Quote, error) {
	if err := tx.enter(ctx); err != nil {
		return nil, err
	}
	defer tx.store.mu.Unlock()

	if w, ok := tx.quoteWrites[key]; ok {
		if w == nil {
			return nil, nil
		}
		q := *w
		return &q, nil
	}

	tx.readQuotes[key] = struct{}{}
	if tx.store.quoteVer[key] > tx.start {
		return nil, conflictf("quote %q at %d changed after transaction start", key.Name, key.Timestamp)
	}
	q, ok := tx.store.quotes[key]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

// ListQuotes returns all quotes visible to this transaction
func (tx *Tx) ListQuotes(ctx context.Context) ([]catalog.Quote, error) {
	if err := tx.enter(ctx); err != nil {
		return nil, err
	}
	defer tx.store.mu.Unlock()

	tx.scanQuotes = true
	if tx.store.quoteTableVer > tx.start {
		return nil, conflictf("quote table changed after transaction start")
	}

	merged := make(map[catalog.QuoteKey]catalog.Quote, len(tx.store.quotes))
	for key, q := range tx.store.quotes {
		merged[key] = q
	}
	for key, w := range tx.quoteWrites {
		if w == nil {
			delete(merged, key)
			continue
		}
		merged[key] = *w
	}

	out := make([]catalog.Quote, 0, len(merged))
	for _, q := range merged {
		out = append(out, q)
	}
	sortQuotes(out)
	return out, nil
}

// HasQuotes reports whether any visible quote references name
func (tx *Tx) HasQuotes(ctx context.Context, name string) (bool, error) {
	if err := tx.enter(ctx); err != nil {
		return false, err
	}
	defer tx.store.mu.Unlock()

	tx.readQuoteNames[name] = struct{}{}
	if tx.store.quoteNameVer[name] > tx.start {
		return false, conflictf("quotes of %q changed after transaction start", name)
	}
	return tx.quotesVisible(name), nil
}

// InsertQuote buffers an insert. The ticker must be visible and the key free.
func (tx *Tx) InsertQuote(ctx context.Context, q catalog.Quote) error {
	if err := tx.enter(ctx); err != nil {
		return err
	}
	defer tx.store.mu.Unlock()

	if !tx.tickerVisible(q.Name) {
		return failuref("foreign key violation: ticker %q does not exist", q.Name)
	}
	key := q.Key()
	if tx.quoteVisible(key) {
		return conflictf("duplicate key quote %q at %d", q.Name, q.Timestamp)
	}
	row := q
	tx.quoteWrites[key] = &row
	tx.quoteInserts[key] = struct{}{}
	return nil
}

// UpdateQuote buffers a price update. Missing rows are left untouched.
func (tx *Tx) UpdateQuote(ctx context.Context, q catalog.Quote) error {
	if err := tx.enter(ctx); err != nil {
		return err
	}
	defer tx.store.mu.Unlock()

	key := q.Key()
	if !tx.quoteVisible(key) {
		return nil
	}
	row := q
	tx.quoteWrites[key] = &row
	return nil
}

// DeleteQuote buffers a delete
func (tx *Tx) DeleteQuote(ctx context.Context, key catalog.QuoteKey) error {
	if err := tx.enter(ctx); err != nil {
		return err
	}
	defer tx.store.mu.Unlock()

	tx.quoteWrites[key] = nil
	delete(tx.quoteInserts, key)
	return nil
}

// ============================================================================
// Lifecycle
// ============================================================================

// Commit validates the transaction against commits made since it started and applies its writes
func (tx *Tx) Commit(ctx context.Context) error {
	if err := tx.enter(ctx); err != nil {
		return err
	}
	s := tx.store
	defer s.mu.Unlock()

	tx.closed = true
	s.open--

	if len(s.injected) > 0 {
		err := s.injected[0]
		s.injected = s.injected[1:]
		return err
	}

	if err := tx.validate(); err != nil {
		return err
	}

	s.version++
	v := s.version

	for name, w := range tx.tickerWrites {
		if w == nil {
			delete(s.tickers, name)
		} else {
			s.tickers[name] = *w
		}
		s.tickerVer[name] = v
		s.tickerTableVer = v
	}
	for key, w := range tx.quoteWrites {
		if w == nil {
			delete(s.quotes, key)
		} else {
			s.quotes[key] = *w
		}
		s.quoteVer[key] = v
		s.quoteNameVer[key.Name] = v
		s.quoteTableVer = v
	}

	return nil
}

// validate must be called with the store locked
func (tx *Tx) validate() error {
	s := tx.store

	for name := range tx.readTickers {
		if s.tickerVer[name] > tx.start {
			return conflictf("could not serialize access: ticker %q", name)
		}
	}
	for key := range tx.readQuotes {
		if s.quoteVer[key] > tx.start {
			return conflictf("could not serialize access: quote %q at %d", key.Name, key.Timestamp)
		}
	}
	for name := range tx.readQuoteNames {
		if s.quoteNameVer[name] > tx.start {
			return conflictf("could not serialize access: quotes of %q", name)
		}
	}
	if tx.scanTickers && s.tickerTableVer > tx.start {
		return conflictf("could not serialize access: ticker table")
	}
	if tx.scanQuotes && s.quoteTableVer > tx.start {
		return conflictf("could not serialize access: quote table")
	}

	for name := range tx.tickerWrites {
		if s.tickerVer[name] > tx.start {
			return conflictf("could not serialize access: concurrent write to ticker %q", name)
		}
	}
	for key := range tx.quoteWrites {
		if s.quoteVer[key] > tx.start {
			return conflictf("could not serialize access: concurrent write to quote %q at %d", key.Name, key.Timestamp)
		}
	}

	for name := range tx.tickerInserts {
		if _, exists := s.tickers[name]; exists {
			return conflictf("duplicate key ticker %q", name)
		}
	}
	for key := range tx.quoteInserts {
		if _, exists := s.quotes[key]; exists {
			return conflictf("duplicate key quote %q at %d", key.Name, key.Timestamp)
		}
	}

	return nil
}

// Rollback discards the transaction. It is a no-op once the transaction is closed.
func (tx *Tx) Rollback(ctx context.Context) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	if tx.closed {
		return nil
	}
	tx.closed = true
	tx.store.open--
	return nil
}

// tickerVisible must be called with the store locked
func (tx *Tx) tickerVisible(name string) bool {
	if w, ok := tx.tickerWrites[name]; ok {
		return w != nil
	}
	_, ok := tx.store.tickers[name]
	return ok
}

// quoteVisible must be called with the store locked
func (tx *Tx) quoteVisible(key catalog.QuoteKey) bool {
	if w, ok := tx.quoteWrites[key]; ok {
		return w != nil
	}
	_, ok := tx.store.quotes[key]
	return ok
}

// quotesVisible must be called with the store locked
func (tx *Tx) quotesVisible(name string) bool {
	for key, w := range tx.quoteWrites {
		if key.Name == name && w != nil {
			return true
		}
	}
	for key := range tx.store.quotes {
		if key.Name != name {
			continue
		}
		if w, ok := tx.quoteWrites[key]; ok && w == nil {
			continue
		}
		return true
	}
	return false
}

package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quotecatalog/internal/api/handlers"
	"github.com/wonny/quotecatalog/internal/api/middleware"
	"github.com/wonny/quotecatalog/internal/domain/catalog"
	"github.com/wonny/quotecatalog/internal/infra/database/memory"
	"github.com/wonny/quotecatalog/internal/service/quote"
	"github.com/wonny/quotecatalog/internal/service/ticker"
	"github.com/wonny/quotecatalog/internal/service/txn"
)

var now = time.Unix(1_700_000_000, 0)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
		Fields    []struct {
			Field string `json:"field"`
		} `json:"fields"`
	} `json:"error"`
}

func newTestServer(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	registry := prometheus.NewRegistry()
	collector := txn.NewCollector()
	registry.MustRegister(collector)

	runner := txn.NewRunner(store, txn.Config{MaxAttempts: 3, RetryDelay: time.Millisecond}, txn.WithMetrics(collector))
	clk := testclock.NewClock(now)

	h := NewRouter(&Config{
		TickerHandler: handlers.NewTickerHandler(ticker.NewService(runner), time.Second),
		QuoteHandler:  handlers.NewQuoteHandler(quote.NewService(runner), clk, time.Second),
		HealthHandler: handlers.NewHealthHandler(store, "test"),
		Gatherer:      registry,
		CORSOrigins:   []string{"http://localhost:3000"},
	})
	return h, store
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestTickers_CRUD(t *testing.T) {
	h, _ := newTestServer(t)

	rec, env := do(t, h, http.MethodPost, "/api/v1/tickers", map[string]string{
		"name": "AAPL", "full_name": "Apple Inc.", "description": "Consumer electronics",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	var added catalog.Ticker
	require.NoError(t, json.Unmarshal(env.Data, &added))
	assert.Equal(t, "Apple Inc.", added.FullName)

	rec, env = do(t, h, http.MethodPost, "/api/v1/tickers", map[string]string{
		"name": "AAPL", "full_name": "Other", "description": "Other",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DUPLICATE_ENTRY", env.Error.Code)
	assert.Equal(t, "The ticker with the given name already exists.", env.Error.Message)

	rec, env = do(t, h, http.MethodPut, "/api/v1/tickers/AAPL", map[string]string{
		"full_name": "Apple", "description": "Renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var edited catalog.Ticker
	require.NoError(t, json.Unmarshal(env.Data, &edited))
	assert.Equal(t, catalog.Ticker{Name: "AAPL", FullName: "Apple", Description: "Renamed"}, edited)

	rec, env = do(t, h, http.MethodGet, "/api/v1/tickers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []catalog.Ticker
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/tickers/AAPL", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/v1/tickers/AAPL", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.Equal(t, "Value not found.", env.Error.Message)
}

func TestTickers_Validation(t *testing.T) {
	h, store := newTestServer(t)

	rec, env := do(t, h, http.MethodPost, "/api/v1/tickers", map[string]string{
		"name": "THIS_NAME_IS_WAY_TOO_LONG", "full_name": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	fields := map[string]bool{}
	for _, f := range env.Error.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["description"])
	assert.Empty(t, store.Tickers())
}

func TestQuotes_AddProvisionsTicker(t *testing.T) {
	h, store := newTestServer(t)

	rec, env := do(t, h, http.MethodPost, "/api/v1/quotes", map[string]any{
		"name": "NEW", "timestamp": 1_600_000_000, "price": "12.3",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var view handlers.QuoteView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, handlers.QuoteView{Name: "NEW", Timestamp: 1_600_000_000, Price: "12.30"}, view)

	rec, env = do(t, h, http.MethodGet, "/api/v1/tickers/NEW", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tk catalog.Ticker
	require.NoError(t, json.Unmarshal(env.Data, &tk))
	assert.Equal(t, catalog.PlaceholderTicker("NEW"), tk)

	rec, env = do(t, h, http.MethodDelete, "/api/v1/tickers/NEW", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CONSTRAINT_VIOLATION", env.Error.Code)
	assert.Len(t, store.Tickers(), 1)
}

func TestQuotes_KeyedOperations(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := do(t, h, http.MethodPost, "/api/v1/quotes", map[string]any{
		"name": "AAPL", "timestamp": 100, "price": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := do(t, h, http.MethodPost, "/api/v1/quotes", map[string]any{
		"name": "AAPL", "timestamp": 100, "price": 2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DUPLICATE_ENTRY", env.Error.Code)

	rec, env = do(t, h, http.MethodPut, "/api/v1/quotes/AAPL/100", map[string]any{"price": "99.99"})
	require.Equal(t, http.StatusOK, rec.Code)
	var view handlers.QuoteView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "99.99", view.Price)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/quotes/AAPL/100", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/quotes/AAPL/100", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/v1/quotes/AAPL/100", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestQuotes_Validation(t *testing.T) {
	h, store := newTestServer(t)

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{name: "future timestamp", body: map[string]any{"name": "AAPL", "timestamp": now.Unix() + 1, "price": 1}, field: "timestamp"},
		{name: "negative timestamp", body: map[string]any{"name": "AAPL", "timestamp": -1, "price": 1}, field: "timestamp"},
		{name: "price too large", body: map[string]any{"name": "AAPL", "timestamp": 1, "price": "100000000"}, field: "price"},
		{name: "negative price", body: map[string]any{"name": "AAPL", "timestamp": 1, "price": "-0.01"}, field: "price"},
		{name: "three decimals", body: map[string]any{"name": "AAPL", "timestamp": 1, "price": "1.001"}, field: "price"},
		{name: "missing price", body: map[string]any{"name": "AAPL", "timestamp": 1}, field: "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, http.MethodPost, "/api/v1/quotes", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
			require.NotEmpty(t, env.Error.Fields)
			assert.Equal(t, tt.field, env.Error.Fields[0].Field)
		})
	}

	rec, env := do(t, h, http.MethodGet, "/api/v1/quotes/AAPL/soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	assert.Empty(t, store.Tickers())
}

func TestRetryLimitIsServiceUnavailable(t *testing.T) {
	h, store := newTestServer(t)
	conflict := catalog.ErrConflict
	store.InjectCommitErrors(conflict, 3)

	rec, env := do(t, h, http.MethodPost, "/api/v1/tickers", map[string]string{
		"name": "AAPL", "full_name": "Apple", "description": "phones",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "RETRY_LIMIT_EXCEEDED", env.Error.Code)
	assert.Equal(t, "Database request limit reached", env.Error.Message)
}

func TestStorageFailureHidesCause(t *testing.T) {
	h, store := newTestServer(t)
	store.InjectCommitErrors(catalog.ErrStoreFailure, 1)

	rec, env := do(t, h, http.MethodPost, "/api/v1/tickers", map[string]string{
		"name": "AAPL", "full_name": "Apple", "description": "phones",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "DATABASE_ERROR", env.Error.Code)
	assert.Equal(t, "Database error", env.Error.Message)
	assert.NotContains(t, rec.Body.String(), "store failure")
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"driver":"memory"`)

	do(t, h, http.MethodGet, "/api/v1/tickers", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	h.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), `quotecatalog_txn_attempts_total{op="ticker.list"} 1`)
}

func TestRequestIDIsPropagated(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickers/NOPE", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(middleware.RequestIDHeader))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "req-123", env.Error.RequestID)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tickers", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

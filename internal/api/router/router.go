package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/quotecatalog/internal/api/handlers"
	apimw "github.com/wonny/quotecatalog/internal/api/middleware"
)

// Config holds router configuration
type Config struct {
	TickerHandler *handlers.TickerHandler
	QuoteHandler  *handlers.QuoteHandler
	HealthHandler *handlers.HealthHandler

	// Gatherer serves /metrics when set
	Gatherer prometheus.Gatherer

	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter creates the HTTP handler
func NewRouter(cfg *Config) http.Handler {
	r := mux.NewRouter()

	r.Use(apimw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimw.Logging(apimw.LoggingConfig{SkipPaths: []string{"/health", "/metrics"}}))
	r.Use(apimw.Recovery)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	// Health check
	r.HandleFunc("/health", cfg.HealthHandler.Health).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", cfg.HealthHandler.Ready).Methods(http.MethodGet)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// Tickers
	api.HandleFunc("/tickers", cfg.TickerHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/tickers", cfg.TickerHandler.Add).Methods(http.MethodPost)
	api.HandleFunc("/tickers/{name}", cfg.TickerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/tickers/{name}", cfg.TickerHandler.Edit).Methods(http.MethodPut)
	api.HandleFunc("/tickers/{name}", cfg.TickerHandler.Delete).Methods(http.MethodDelete)

	// Quotes
	api.HandleFunc("/quotes", cfg.QuoteHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/quotes", cfg.QuoteHandler.Add).Methods(http.MethodPost)
	api.HandleFunc("/quotes/{name}/{timestamp}", cfg.QuoteHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/quotes/{name}/{timestamp}", cfg.QuoteHandler.Edit).Methods(http.MethodPut)
	api.HandleFunc("/quotes/{name}/{timestamp}", cfg.QuoteHandler.Delete).Methods(http.MethodDelete)

	return apimw.CORS(apimw.DefaultCORSConfig(cfg.CORSOrigins))(r)
}

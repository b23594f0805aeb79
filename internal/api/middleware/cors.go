package middleware

import (
	"net/http"

	gorillaHandlers "github.com/gorilla/handlers"
)

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig returns the CORS configuration for the given origins
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        43200, // 12 hours
	}
}

// CORS wraps a handler with gorilla/handlers CORS
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	opts := []gorillaHandlers.CORSOption{
		gorillaHandlers.AllowedOrigins(cfg.AllowOrigins),
		gorillaHandlers.AllowedMethods(cfg.AllowMethods),
		gorillaHandlers.AllowedHeaders(cfg.AllowHeaders),
		gorillaHandlers.ExposedHeaders(cfg.ExposeHeaders),
		gorillaHandlers.MaxAge(cfg.MaxAge),
	}
	if cfg.AllowCredentials {
		opts = append(opts, gorillaHandlers.AllowCredentials())
	}
	return gorillaHandlers.CORS(opts...)
}

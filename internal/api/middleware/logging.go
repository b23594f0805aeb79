package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggingConfig holds configuration for logging middleware
type LoggingConfig struct {
	AccessLogger *zerolog.Logger // Optional separate access logger
	SkipPaths    []string        // Paths to skip logging (e.g., /health)
}

// statusRecorder captures the status code and size written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.size += n
	return n, err
}

// Logging middleware logs HTTP requests and responses
func Logging(cfg LoggingConfig) func(http.Handler) http.Handler {
	logger := log.Logger
	if cfg.AccessLogger != nil {
		logger = *cfg.AccessLogger
	}

	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			event := logger.Info()
			if status >= 500 {
				event = logger.Error()
			} else if status >= 400 {
				event = logger.Warn()
			}

			event.
				Str("request_id", GetRequestID(r)).
				Str("method", r.Method).
				Str("path", r.URL.RequestURI()).
				Int("status", status).
				Int64("duration_ms", duration.Milliseconds()).
				Int("response_size", rec.size).
				Str("ip", r.RemoteAddr).
				Msg("← Request completed")

			if duration > time.Second {
				logger.Warn().
					Str("request_id", GetRequestID(r)).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int64("duration_ms", duration.Milliseconds()).
					Msg("⚠️  Slow request detected")
			}
		})
	}
}

// Recovery middleware turns handler panics into 500 responses
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				requestID := GetRequestID(r)

				log.Error().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Msg("🚨 Panic recovered")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{
						"code":       "INTERNAL_SERVER_ERROR",
						"message":    "Internal server error",
						"request_id": requestID,
					},
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

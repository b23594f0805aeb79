package middleware

import (
	"net/http"

	"github.com/google/uuid"

	applogger "github.com/wonny/quotecatalog/internal/pkg/logger"
)

// RequestIDHeader is the header name for request ID
const RequestIDHeader = "X-Request-ID"

// RequestID middleware adds a unique request ID to each request
// If X-Request-ID header exists, use it; otherwise generate a new one
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(applogger.WithRequestID(r.Context(), requestID)))
	})
}

// GetRequestID retrieves the request ID from the request context
func GetRequestID(r *http.Request) string {
	return applogger.RequestID(r.Context())
}

package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wonny/quotecatalog/internal/api/middleware"
	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Details   string       `json:"details,omitempty"`
	RequestID string       `json:"request_id"`
	Timestamp time.Time    `json:"timestamp"`
	Fields    []FieldError `json:"fields,omitempty"`
}

// FieldError represents a field-level validation error
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"

	// Database errors
	ErrCodeDatabaseError       = "DATABASE_ERROR"
	ErrCodeDuplicateEntry      = "DUPLICATE_ENTRY"
	ErrCodeConstraintViolation = "CONSTRAINT_VIOLATION"
	ErrCodeRetryLimitExceeded  = "RETRY_LIMIT_EXCEEDED"
)

// Messages shown for catalog outcomes
const (
	MsgNotFound           = "Value not found."
	MsgRetryLimitExceeded = "Database request limit reached"
	MsgDatabaseError      = "Database error"
)

// Error sends an error response
func Error(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	ErrorWithDetails(w, r, statusCode, code, message, "")
}

// ErrorWithDetails sends an error response with additional details
func ErrorWithDetails(w http.ResponseWriter, r *http.Request, statusCode int, code, message, details string) {
	resp := ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: middleware.GetRequestID(r),
			Timestamp: time.Now(),
		},
	}

	event := log.Warn()
	if statusCode >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.
		Str("request_id", resp.Error.RequestID).
		Str("error_code", code).
		Str("message", message).
		Str("details", details).
		Int("status", statusCode).
		Msg("API error response")

	writeJSON(w, statusCode, resp)
}

// ValidationError sends a validation error response with field errors
func ValidationError(w http.ResponseWriter, r *http.Request, fields []FieldError) {
	resp := ErrorResponse{
		Error: ErrorDetail{
			Code:      ErrCodeValidation,
			Message:   "Request validation failed",
			RequestID: middleware.GetRequestID(r),
			Timestamp: time.Now(),
			Fields:    fields,
		},
	}

	log.Warn().
		Str("request_id", resp.Error.RequestID).
		Str("error_code", ErrCodeValidation).
		Int("field_count", len(fields)).
		Msg("Validation error")

	writeJSON(w, http.StatusBadRequest, resp)
}

// BadRequest sends a 400 Bad Request error
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, message)
}

// NotFound sends a 404 Not Found error
func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusNotFound, ErrCodeNotFound, MsgNotFound)
}

// Outcome maps a catalog error to a response.
// duplicateMsg and inUseMsg describe AlreadyExists and InUse for the calling resource.
func Outcome(w http.ResponseWriter, r *http.Request, err error, duplicateMsg, inUseMsg string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		NotFound(w, r)
	case errors.Is(err, catalog.ErrAlreadyExists):
		Error(w, r, http.StatusBadRequest, ErrCodeDuplicateEntry, duplicateMsg)
	case errors.Is(err, catalog.ErrInUse):
		Error(w, r, http.StatusBadRequest, ErrCodeConstraintViolation, inUseMsg)
	case errors.Is(err, catalog.ErrRetryLimitExceeded):
		Error(w, r, http.StatusServiceUnavailable, ErrCodeRetryLimitExceeded, MsgRetryLimitExceeded)
	default:
		// storage failures and anything unexpected; the cause stays in the log only
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r)).
			Msg("Database error")
		Error(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, MsgDatabaseError)
	}
}

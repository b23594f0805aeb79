package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wonny/quotecatalog/internal/api/middleware"
)

// SuccessResponse represents a successful API response
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// Meta represents metadata in response
type Meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Count     int       `json:"count,omitempty"`
}

// Success sends a 200 response with data
func Success(w http.ResponseWriter, r *http.Request, data any) {
	writeJSON(w, http.StatusOK, SuccessResponse{Data: data, Meta: newMeta(r, "", 0)})
}

// SuccessList sends a 200 response with list data and count
func SuccessList(w http.ResponseWriter, r *http.Request, data any, count int) {
	writeJSON(w, http.StatusOK, SuccessResponse{Data: data, Meta: newMeta(r, "", count)})
}

// SuccessWithMessage sends a 200 response with data and message
func SuccessWithMessage(w http.ResponseWriter, r *http.Request, data any, message string) {
	writeJSON(w, http.StatusOK, SuccessResponse{Data: data, Meta: newMeta(r, message, 0)})
}

// Created sends a 201 Created response
func Created(w http.ResponseWriter, r *http.Request, data any, message string) {
	writeJSON(w, http.StatusCreated, SuccessResponse{Data: data, Meta: newMeta(r, message, 0)})
}

// JSON sends v as-is with the given status
func JSON(w http.ResponseWriter, statusCode int, v any) {
	writeJSON(w, statusCode, v)
}

func newMeta(r *http.Request, message string, count int) Meta {
	return Meta{
		RequestID: middleware.GetRequestID(r),
		Timestamp: time.Now(),
		Message:   message,
		Count:     count,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

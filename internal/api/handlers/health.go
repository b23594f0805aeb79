package handlers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/quotecatalog/internal/api/response"
	"github.com/wonny/quotecatalog/internal/infra/database/health"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checker   health.Checker
	group     singleflight.Group
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker health.Checker, version string) *HealthHandler {
	return &HealthHandler{
		checker:   checker,
		startTime: time.Now(),
		version:   version,
	}
}

// SimpleHealthResponse represents a simple health check response
type SimpleHealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// DetailedHealthResponse represents detailed health information
type DetailedHealthResponse struct {
	Status        string         `json:"status"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Timestamp     time.Time      `json:"timestamp"`
	Database      *health.Status `json:"database"`
}

// Health returns simple liveness check
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, SimpleHealthResponse{
		Status:    health.Healthy,
		Timestamp: time.Now(),
	})
}

// Ready probes the database; concurrent probes share one result
// GET /health/ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	db := h.probe(r.Context())

	statusCode := http.StatusOK
	if db.Status == health.Unhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	response.JSON(w, statusCode, DetailedHealthResponse{
		Status:        db.Status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now(),
		Database:      db,
	})
}

func (h *HealthHandler) probe(ctx context.Context) *health.Status {
	// detached so one caller's disconnect does not fail the shared probe
	v, _, _ := h.group.Do("database", func() (any, error) {
		return h.checker.Health(context.WithoutCancel(ctx)), nil
	})
	return v.(*health.Status)
}

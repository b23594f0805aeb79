// Package health describes the result of a storage health probe.
package health

import (
	"context"
	"time"
)

// Probe results
const (
	Healthy   = "healthy"
	Degraded  = "degraded"
	Unhealthy = "unhealthy"
)

// Status represents database health status
type Status struct {
	Status       string    `json:"status"`          // healthy, degraded, unhealthy
	Driver       string    `json:"driver"`          // postgres, sqlite, memory
	ResponseTime string    `json:"response_time"`   // e.g. "5ms"
	ActiveConns  int32     `json:"active_conns"`    // connections in use
	IdleConns    int32     `json:"idle_conns"`      // idle connections
	TotalConns   int32     `json:"total_conns"`     // open connections
	MaxConns     int32     `json:"max_conns"`       // connection limit, 0 if unbounded
	CheckedAt    time.Time `json:"checked_at"`      // when the probe ran
	Error        string    `json:"error,omitempty"` // set unless healthy
}

// Checker reports storage health
type Checker interface {
	Health(ctx context.Context) *Status
}

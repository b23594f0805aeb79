package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quotecatalog/internal/infra/database/health"
)

// Health checks the health of the database connection
func (p *Pool) Health(ctx context.Context) *health.Status {
	start := time.Now()

	status := &health.Status{
		Status:    health.Healthy,
		Driver:    "postgres",
		CheckedAt: start,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := p.Ping(pingCtx); err != nil {
		status.Status = health.Unhealthy
		status.Error = fmt.Sprintf("ping failed: %v", err)
		status.ResponseTime = time.Since(start).String()
		return status
	}

	stats := p.Stat()
	status.ActiveConns = stats.AcquiredConns()
	status.IdleConns = stats.IdleConns()
	status.TotalConns = stats.TotalConns()
	status.MaxConns = stats.MaxConns()
	status.ResponseTime = time.Since(start).String()

	// serializable transactions hold a connection for their whole attempt
	if stats.AcquiredConns() >= stats.MaxConns()-2 {
		status.Status = health.Degraded
		status.Error = "connection pool nearly exhausted"
	}

	return status
}

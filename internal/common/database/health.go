package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Name       string         `json:"name"`
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message"`
	LastCheck  time.Time      `json:"last_check"`
	ResponseMs int64          `json:"response_ms"`
	Metrics    map[string]any `json:"metrics,omitempty"`
}

const slowResponse = 100 * time.Millisecond

// Check pings the database, inspects the pool and verifies the recall tables
// have been migrated.
func Check(ctx context.Context, db *gorm.DB) ComponentHealth {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health := ComponentHealth{
		Name:      "database",
		Status:    HealthStatusHealthy,
		LastCheck: start,
	}
	fail := func(format string, args ...any) ComponentHealth {
		health.Status = HealthStatusUnhealthy
		health.Message = fmt.Sprintf(format, args...)
		health.ResponseMs = time.Since(start).Milliseconds()
		return health
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fail("no connection pool: %v", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fail("ping failed: %v", err)
	}

	stats := sqlDB.Stats()
	health.Metrics = map[string]any{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
	}

	m := db.WithContext(ctx).Migrator()
	for _, table := range []any{&models.ReviewItem{}, &models.CommandMastery{}} {
		if !m.HasTable(table) {
			return fail("missing table for %T, run migrate", table)
		}
	}

	health.Message = "database healthy"
	elapsed := time.Since(start)
	health.ResponseMs = elapsed.Milliseconds()

	switch {
	case stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections:
		health.Status = HealthStatusDegraded
		health.Message = fmt.Sprintf("connection pool saturated: %d/%d", stats.InUse, stats.MaxOpenConnections)
	case elapsed > slowResponse:
		health.Status = HealthStatusDegraded
		health.Message = fmt.Sprintf("database response slow: %dms", health.ResponseMs)
	}
	return health
}

package health

import (
	"context"
	"time"

	"github.com/drishiq/drishiq/internal/pkg/cache"
	"github.com/drishiq/drishiq/internal/pkg/database"
	"github.com/drishiq/drishiq/internal/pkg/env"
)

// Component names reported by Check.
const (
	ComponentDatabase = "database"
	ComponentCache    = "cache"
	ComponentMail     = "mail"
	ComponentPayments = "payments"
)

// Status is the aggregate service state. Degraded means optional
// integrations are down; Unavailable means a required dependency is down
// and the service should answer 503.
type Status string

const (
	StatusOK          Status = "ok"
	StatusDegraded    Status = "degraded"
	StatusUnavailable Status = "unavailable"
)

// Report is the health endpoint payload.
type Report struct {
	Status     Status          `json:"status"`
	Components map[string]bool `json:"components"`
	CheckedAt  time.Time       `json:"checked_at"`
}

// Check probes each dependency. Database and cache are required; mail and
// payment configuration only degrade the report when missing.
func Check(ctx context.Context) *Report {
	report := &Report{
		Components: make(map[string]bool),
		CheckedAt:  time.Now(),
	}

	report.Components[ComponentDatabase] = checkDatabase(ctx)
	report.Components[ComponentCache] = checkCache(ctx)
	report.Components[ComponentMail] = env.GetEnv("SMTP_HOST", "") != ""
	report.Components[ComponentPayments] = env.GetEnv("PAYMENT_API_KEY", "") != ""

	switch {
	case !report.Components[ComponentDatabase] || !report.Components[ComponentCache]:
		report.Status = StatusUnavailable
	case !report.Components[ComponentMail] || !report.Components[ComponentPayments]:
		report.Status = StatusDegraded
	default:
		report.Status = StatusOK
	}
	return report
}

func checkDatabase(ctx context.Context) bool {
	db := database.GetDB()
	if db == nil {
		return false
	}
	sqlDB, err := db.DB()
	if err != nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx) == nil
}

func checkCache(ctx context.Context) bool {
	client := cache.GetClient()
	if client == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(pingCtx).Err() == nil
}

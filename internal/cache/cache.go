// Package cache keeps short-lived copies of organization dashboard stats.
// Caching is best effort: failures are logged and reported as misses.
package cache

import (
	"context"
	"fmt"

	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
)

const keyPrefix = "orbit:dashboard:"

type DashboardCache interface {
	Get(ctx context.Context, orgID uuid.UUID) (*models.DashboardStats, bool)
	Set(ctx context.Context, orgID uuid.UUID, stats *models.DashboardStats)
	Invalidate(ctx context.Context, orgID uuid.UUID)
}

func dashboardKey(orgID uuid.UUID) string {
	return fmt.Sprintf("%s%s", keyPrefix, orgID)
}

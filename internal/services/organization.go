package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/orbit-api/internal/cache"
	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OrganizationService struct {
	db         *database.DB
	dashboards cache.DashboardCache
}

func NewOrganizationService(db *database.DB, dashboards cache.DashboardCache) *OrganizationService {
	return &OrganizationService{db: db, dashboards: dashboards}
}

func (s *OrganizationService) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, slug, created_at, updated_at FROM organizations WHERE id = $1
	`, orgID).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("organization not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// Dashboard returns the organization with its headline numbers. The numbers
// are served from the dashboard cache when present.
func (s *OrganizationService) Dashboard(ctx context.Context, orgID uuid.UUID) (*models.Dashboard, error) {
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if stats, ok := s.dashboards.Get(ctx, orgID); ok {
		return &models.Dashboard{Organization: *org, Stats: stats}, nil
	}

	var stats models.DashboardStats
	err = s.db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM projects WHERE organization_id = $1),
			(SELECT COUNT(*) FROM tasks t JOIN projects p ON p.id = t.project_id
				WHERE p.organization_id = $1 AND t.status <> $2),
			(SELECT COUNT(*) FROM organization_members WHERE organization_id = $1 AND status = $3),
			(SELECT COALESCE(SUM(total), 0) FROM invoices WHERE organization_id = $1 AND status = $4)
	`, orgID, models.TaskStatusDone, models.MemberStatusActive, models.InvoiceStatusPaid).Scan(
		&stats.ProjectCount, &stats.ActiveTasks, &stats.MemberCount, &stats.Revenue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}

	s.dashboards.Set(ctx, orgID, &stats)
	return &models.Dashboard{Organization: *org, Stats: &stats}, nil
}

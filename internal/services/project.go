package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/policy"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const projectColumns = `p.id, p.organization_id, p.client_id, p.name, p.description, p.status,
	p.start_date, p.due_date, p.created_at, p.updated_at`

type CreateProjectInput struct {
	Name        string
	Description *string
	ClientID    *uuid.UUID
	StartDate   *time.Time
	DueDate     *time.Time
}

type ProjectService struct {
	db *database.DB
}

func NewProjectService(db *database.DB) *ProjectService {
	return &ProjectService{db: db}
}

// Create opens an ACTIVE project. A client, when given, must belong to the organization.
func (s *ProjectService) Create(ctx context.Context, orgID uuid.UUID, input CreateProjectInput) (*models.Project, error) {
	if input.ClientID != nil {
		var exists bool
		err := s.db.Pool.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1 AND organization_id = $2)
		`, *input.ClientID, orgID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check client: %w", err)
		}
		if !exists {
			return nil, InvalidInput("invalid client id for this organization")
		}
	}

	var project models.Project
	err := scanProject(s.db.Pool.QueryRow(ctx, `
		INSERT INTO projects AS p (organization_id, client_id, name, description, status, start_date, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+projectColumns,
		orgID, input.ClientID, input.Name, input.Description, models.ProjectStatusActive, input.StartDate, input.DueDate,
	), &project)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &project, nil
}

// List pages through the organization's projects, most recently updated first.
// An empty status lists every project.
func (s *ProjectService) List(ctx context.Context, orgID uuid.UUID, status string, page models.Page) (*models.Paginated[models.Project], error) {
	if status != "" && !policy.ValidProjectStatus(status) {
		return nil, InvalidInput("invalid project status: %s", status)
	}

	var total int64
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM projects
		WHERE organization_id = $1 AND ($2 = '' OR status = $2)
	`, orgID, status).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+projectColumns+`, c.name,
			(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id)
		FROM projects p
		LEFT JOIN clients c ON c.id = p.client_id
		WHERE p.organization_id = $1 AND ($2 = '' OR p.status = $2)
		ORDER BY p.updated_at DESC
		LIMIT $3 OFFSET $4
	`, orgID, status, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := scanProject(rows, &p, &p.ClientName, &p.TaskCount); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return models.NewPaginated(projects, total, page), nil
}

func (s *ProjectService) UpdateStatus(ctx context.Context, orgID, projectID uuid.UUID, status string) (*models.Project, error) {
	if !policy.ValidProjectStatus(status) {
		return nil, InvalidInput("invalid project status: %s", status)
	}

	var project models.Project
	err := scanProject(s.db.Pool.QueryRow(ctx, `
		UPDATE projects AS p SET status = $1, updated_at = NOW()
		WHERE p.id = $2 AND p.organization_id = $3
		RETURNING `+projectColumns,
		status, projectID, orgID,
	), &project)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}
	return &project, nil
}

// Stats counts the organization's projects per status. Every status is present
// in the result, zero when no project holds it.
func (s *ProjectService) Stats(ctx context.Context, orgID uuid.UUID) (map[string]int64, error) {
	stats := make(map[string]int64, len(models.ProjectStatuses))
	for _, status := range models.ProjectStatuses {
		stats[status] = 0
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT status, COUNT(*) FROM projects WHERE organization_id = $1 GROUP BY status
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan project stats: %w", err)
		}
		stats[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate project stats: %w", err)
	}

	return stats, nil
}

func scanProject(row pgx.Row, p *models.Project, extra ...any) error {
	dest := []any{
		&p.ID, &p.OrganizationID, &p.ClientID, &p.Name, &p.Description, &p.Status,
		&p.StartDate, &p.DueDate, &p.CreatedAt, &p.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

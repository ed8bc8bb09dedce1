package services

import (
	"context"
	"fmt"

	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
)

type TagService struct {
	db *database.DB
}

func NewTagService(db *database.DB) *TagService {
	return &TagService{db: db}
}

// Create adds a tag. Names are unique within an organization.
func (s *TagService) Create(ctx context.Context, orgID uuid.UUID, name string, color *string) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO tags (organization_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id, organization_id, name, color, created_at
	`, orgID, name, color).Scan(&tag.ID, &tag.OrganizationID, &tag.Name, &tag.Color, &tag.CreatedAt)
	if database.IsUniqueViolation(err, database.ConstraintTagName) {
		return nil, Conflict("tag already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return &tag, nil
}

func (s *TagService) List(ctx context.Context, orgID uuid.UUID) ([]models.Tag, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, organization_id, name, color, created_at
		FROM tags WHERE organization_id = $1
		ORDER BY name
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.OrganizationID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
)

const (
	minSearchLength = 2
	searchLimit     = 5
)

type SearchService struct {
	db *database.DB
}

func NewSearchService(db *database.DB) *SearchService {
	return &SearchService{db: db}
}

// Search matches tasks, projects and clients of the organization by a
// case-insensitive substring. Queries shorter than two characters match nothing.
func (s *SearchService) Search(ctx context.Context, orgID uuid.UUID, query string) (*models.SearchResults, error) {
	results := &models.SearchResults{
		Tasks:    []models.SearchHit{},
		Projects: []models.SearchHit{},
		Clients:  []models.SearchHit{},
	}

	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return results, nil
	}
	pattern := "%" + escapeLike(query) + "%"

	var err error
	results.Tasks, err = s.hits(ctx, `
		SELECT t.id, t.title FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE p.organization_id = $1 AND t.title ILIKE $2
		ORDER BY t.title LIMIT $3
	`, orgID, pattern)
	if err != nil {
		return nil, err
	}

	results.Projects, err = s.hits(ctx, `
		SELECT id, name FROM projects
		WHERE organization_id = $1 AND name ILIKE $2
		ORDER BY name LIMIT $3
	`, orgID, pattern)
	if err != nil {
		return nil, err
	}

	results.Clients, err = s.hits(ctx, `
		SELECT id, name FROM clients
		WHERE organization_id = $1 AND name ILIKE $2
		ORDER BY name LIMIT $3
	`, orgID, pattern)
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (s *SearchService) hits(ctx context.Context, sql string, orgID uuid.UUID, pattern string) ([]models.SearchHit, error) {
	rows, err := s.db.Pool.Query(ctx, sql, orgID, pattern, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer rows.Close()

	hits := []models.SearchHit{}
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(&h.ID, &h.Title); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

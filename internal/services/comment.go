package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/policy"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CommentService struct {
	db *database.DB
}

func NewCommentService(db *database.DB) *CommentService {
	return &CommentService{db: db}
}

func (s *CommentService) Create(ctx context.Context, orgID, userID, taskID uuid.UUID, content string) (*models.Comment, error) {
	memberID, err := activeMemberID(ctx, s.db.Pool, orgID, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, Forbidden("you are not a member of this organization")
	}
	if err != nil {
		return nil, err
	}

	var comment models.Comment
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO comments (task_id, author_id, content)
		SELECT t.id, $2::uuid, $3::text
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE t.id = $1 AND p.organization_id = $4
		RETURNING id, task_id, author_id, content, created_at, updated_at
	`, taskID, memberID, content, orgID).Scan(
		&comment.ID, &comment.TaskID, &comment.AuthorID, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return &comment, nil
}

// List returns a task's comments oldest first, with the author's name.
func (s *CommentService) List(ctx context.Context, orgID, taskID uuid.UUID) ([]models.Comment, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT c.id, c.task_id, c.author_id, c.content, c.created_at, c.updated_at, u.name
		FROM comments c
		JOIN tasks t ON t.id = c.task_id
		JOIN projects p ON p.id = t.project_id
		JOIN organization_members m ON m.id = c.author_id
		LEFT JOIN users u ON u.id = m.user_id
		WHERE c.task_id = $1 AND p.organization_id = $2
		ORDER BY c.created_at
	`, taskID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt, &c.AuthorName); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Delete removes a comment. Only its author may delete it.
func (s *CommentService) Delete(ctx context.Context, orgID, userID, commentID uuid.UUID) error {
	var authorUserID *uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		SELECT m.user_id
		FROM comments c
		JOIN organization_members m ON m.id = c.author_id
		WHERE c.id = $1 AND m.organization_id = $2
	`, commentID, orgID).Scan(&authorUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound("comment not found")
	}
	if err != nil {
		return fmt.Errorf("failed to get comment: %w", err)
	}

	if !policy.CanDeleteComment(authorUserID, userID) {
		return Forbidden("you can only delete your own comments")
	}

	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

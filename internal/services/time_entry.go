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

const timeEntryColumns = `te.id, te.task_id, te.member_id, te.description, te.start_time, te.end_time,
	te.duration, te.is_billable, te.invoice_item_id, te.created_at, te.updated_at`

type StartTimerInput struct {
	Description *string
	IsBillable  *bool
}

type TimeEntryService struct {
	db  *database.DB
	now func() time.Time
}

func NewTimeEntryService(db *database.DB) *TimeEntryService {
	return &TimeEntryService{db: db, now: time.Now}
}

// StartTimer stops the caller's running entry, if any, and starts a new one on
// the task. A member never has more than one open entry.
func (s *TimeEntryService) StartTimer(ctx context.Context, orgID, userID, taskID uuid.UUID, input StartTimerInput) (*models.TimeEntry, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	memberID, err := activeMemberID(ctx, tx, orgID, userID)
	if err != nil {
		return nil, err
	}

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM tasks t
			JOIN projects p ON p.id = t.project_id
			WHERE t.id = $1 AND p.organization_id = $2
		)
	`, taskID, orgID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check task: %w", err)
	}
	if !exists {
		return nil, NotFound("task not found")
	}

	now := s.now()

	var runningID uuid.UUID
	var runningStart time.Time
	err = tx.QueryRow(ctx, `
		SELECT id, start_time FROM time_entries
		WHERE member_id = $1 AND end_time IS NULL
		FOR UPDATE
	`, memberID).Scan(&runningID, &runningStart)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to get running timer: %w", err)
	default:
		_, err = tx.Exec(ctx, `
			UPDATE time_entries SET end_time = $1, duration = $2, updated_at = NOW()
			WHERE id = $3
		`, now, models.ElapsedSeconds(runningStart, now), runningID)
		if err != nil {
			return nil, fmt.Errorf("failed to stop running timer: %w", err)
		}
	}

	billable := true
	if input.IsBillable != nil {
		billable = *input.IsBillable
	}

	var entry models.TimeEntry
	err = scanTimeEntry(tx.QueryRow(ctx, `
		INSERT INTO time_entries AS te (task_id, member_id, description, start_time, is_billable)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+timeEntryColumns,
		taskID, memberID, input.Description, now, billable,
	), &entry)
	if database.IsUniqueViolation(err, database.ConstraintRunningTimer) {
		return nil, Conflict("a timer is already running")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to start timer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &entry, nil
}

// StopTimer closes a running entry owned by the caller.
func (s *TimeEntryService) StopTimer(ctx context.Context, orgID, userID, entryID uuid.UUID) (*models.TimeEntry, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var entry models.TimeEntry
	var ownerID *uuid.UUID
	err = scanTimeEntry(tx.QueryRow(ctx, `
		SELECT `+timeEntryColumns+`, m.user_id
		FROM time_entries te
		JOIN organization_members m ON m.id = te.member_id
		WHERE te.id = $1 AND m.organization_id = $2
		FOR UPDATE OF te
	`, entryID, orgID), &entry, &ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("time entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get time entry: %w", err)
	}

	if !policy.CanStopEntry(ownerID, userID) {
		return nil, Forbidden("you can only stop your own timers")
	}
	if !entry.IsRunning() {
		return nil, Conflict("timer already stopped")
	}

	now := s.now()
	err = scanTimeEntry(tx.QueryRow(ctx, `
		UPDATE time_entries AS te SET end_time = $1, duration = $2, updated_at = NOW()
		WHERE te.id = $3
		RETURNING `+timeEntryColumns,
		now, models.ElapsedSeconds(entry.StartTime, now), entry.ID,
	), &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to stop timer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &entry, nil
}

// GetRunningTimer returns the caller's open entry, or nil when there is none
// or the caller is not a member of the organization.
func (s *TimeEntryService) GetRunningTimer(ctx context.Context, orgID, userID uuid.UUID) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	err := scanTimeEntry(s.db.Pool.QueryRow(ctx, `
		SELECT `+timeEntryColumns+`, t.title
		FROM time_entries te
		JOIN organization_members m ON m.id = te.member_id
		JOIN tasks t ON t.id = te.task_id
		WHERE m.user_id = $1 AND m.organization_id = $2 AND te.end_time IS NULL
	`, userID, orgID), &entry, &entry.TaskTitle)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get running timer: %w", err)
	}
	return &entry, nil
}

// ListMine pages through the caller's entries in the organization, newest first.
func (s *TimeEntryService) ListMine(ctx context.Context, orgID, userID uuid.UUID, page models.Page) (*models.Paginated[models.TimeEntry], error) {
	memberID, err := activeMemberID(ctx, s.db.Pool, orgID, userID)
	if err != nil {
		return nil, err
	}

	var total int64
	err = s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM time_entries WHERE member_id = $1`, memberID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count time entries: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+timeEntryColumns+`, t.title, p.name
		FROM time_entries te
		JOIN tasks t ON t.id = te.task_id
		JOIN projects p ON p.id = t.project_id
		WHERE te.member_id = $1
		ORDER BY te.start_time DESC
		LIMIT $2 OFFSET $3
	`, memberID, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	defer rows.Close()

	var entries []models.TimeEntry
	for rows.Next() {
		var e models.TimeEntry
		if err := scanTimeEntry(rows, &e, &e.TaskTitle, &e.ProjectName); err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time entries: %w", err)
	}

	return models.NewPaginated(entries, total, page), nil
}

func scanTimeEntry(row pgx.Row, e *models.TimeEntry, extra ...any) error {
	dest := []any{
		&e.ID, &e.TaskID, &e.MemberID, &e.Description, &e.StartTime, &e.EndTime,
		&e.Duration, &e.IsBillable, &e.InvoiceItemID, &e.CreatedAt, &e.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

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

const taskColumns = `t.id, t.project_id, t.title, t.description, t.status, t.priority,
	t.due_date, t.created_at, t.updated_at`

type CreateTaskInput struct {
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *time.Time
	AssigneeIDs []uuid.UUID
}

// UpdateTaskInput leaves nil fields unchanged. A non-nil AssigneeIDs replaces
// the assignee set, an empty slice clears it.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	AssigneeIDs []uuid.UUID
}

type TaskFilter struct {
	Status     string
	Priority   string
	AssigneeID *uuid.UUID
}

type TaskService struct {
	db *database.DB
}

func NewTaskService(db *database.DB) *TaskService {
	return &TaskService{db: db}
}

func (s *TaskService) Create(ctx context.Context, orgID, projectID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	status := input.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if err := validateTaskEnums(&status, &priority); err != nil {
		return nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := ensureProjectInOrg(ctx, tx, orgID, projectID); err != nil {
		return nil, err
	}

	var task models.Task
	err = scanTask(tx.QueryRow(ctx, `
		INSERT INTO tasks AS t (project_id, title, description, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+taskColumns,
		projectID, input.Title, input.Description, status, priority, input.DueDate,
	), &task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	task.AssigneeIDs, err = replaceAssignees(ctx, tx, orgID, task.ID, input.AssigneeIDs, false)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &task, nil
}

// List pages through a project's tasks, newest first.
func (s *TaskService) List(ctx context.Context, orgID, projectID uuid.UUID, filter TaskFilter, page models.Page) (*models.Paginated[models.Task], error) {
	if filter.Status != "" && !policy.ValidTaskStatus(filter.Status) {
		return nil, InvalidInput("invalid task status: %s", filter.Status)
	}
	if filter.Priority != "" && !policy.ValidPriority(filter.Priority) {
		return nil, InvalidInput("invalid priority: %s", filter.Priority)
	}

	if err := ensureProjectInOrg(ctx, s.db.Pool, orgID, projectID); err != nil {
		return nil, err
	}

	const where = `
		WHERE t.project_id = $1
			AND ($2 = '' OR t.status = $2)
			AND ($3 = '' OR t.priority = $3)
			AND ($4::uuid IS NULL OR EXISTS(
				SELECT 1 FROM task_assignees a WHERE a.task_id = t.id AND a.member_id = $4))`

	var total int64
	err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks t`+where,
		projectID, filter.Status, filter.Priority, filter.AssigneeID,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks t`+where+`
		ORDER BY t.created_at DESC
		LIMIT $5 OFFSET $6`,
		projectID, filter.Status, filter.Priority, filter.AssigneeID, page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	if err := attachAssignees(ctx, s.db.Pool, tasks); err != nil {
		return nil, err
	}

	return models.NewPaginated(tasks, total, page), nil
}

func (s *TaskService) Get(ctx context.Context, orgID, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := scanTask(s.db.Pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE t.id = $1 AND p.organization_id = $2
	`, taskID, orgID), &task)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	tasks := []models.Task{task}
	if err := attachAssignees(ctx, s.db.Pool, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

func (s *TaskService) Update(ctx context.Context, orgID, taskID uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	if err := validateTaskEnums(input.Status, input.Priority); err != nil {
		return nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var task models.Task
	err = scanTask(tx.QueryRow(ctx, `
		UPDATE tasks AS t SET
			title = COALESCE($1, t.title),
			description = COALESCE($2, t.description),
			status = COALESCE($3, t.status),
			priority = COALESCE($4, t.priority),
			due_date = COALESCE($5, t.due_date),
			updated_at = NOW()
		FROM projects p
		WHERE t.id = $6 AND p.id = t.project_id AND p.organization_id = $7
		RETURNING `+taskColumns,
		input.Title, input.Description, input.Status, input.Priority, input.DueDate, taskID, orgID,
	), &task)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if input.AssigneeIDs != nil {
		task.AssigneeIDs, err = replaceAssignees(ctx, tx, orgID, task.ID, input.AssigneeIDs, true)
		if err != nil {
			return nil, err
		}
	} else {
		tasks := []models.Task{task}
		if err := attachAssignees(ctx, tx, tasks); err != nil {
			return nil, err
		}
		task = tasks[0]
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &task, nil
}

func (s *TaskService) Delete(ctx context.Context, orgID, taskID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM tasks t USING projects p
		WHERE t.id = $1 AND p.id = t.project_id AND p.organization_id = $2
	`, taskID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFound("task not found")
	}
	return nil
}

func validateTaskEnums(status, priority *string) error {
	if status != nil && !policy.ValidTaskStatus(*status) {
		return InvalidInput("invalid task status: %s", *status)
	}
	if priority != nil && !policy.ValidPriority(*priority) {
		return InvalidInput("invalid priority: %s", *priority)
	}
	return nil
}

func ensureProjectInOrg(ctx context.Context, q database.Querier, orgID, projectID uuid.UUID) error {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1 AND organization_id = $2)
	`, projectID, orgID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return NotFound("project not found")
	}
	return nil
}

// replaceAssignees sets the task's assignees to memberIDs. Every id must be an
// active member of the organization.
func replaceAssignees(ctx context.Context, tx pgx.Tx, orgID, taskID uuid.UUID, memberIDs []uuid.UUID, replace bool) ([]uuid.UUID, error) {
	ids := uniqueIDs(memberIDs)

	if len(ids) > 0 {
		var found int
		err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM organization_members
			WHERE id = ANY($1) AND organization_id = $2 AND status = $3
		`, ids, orgID, models.MemberStatusActive).Scan(&found)
		if err != nil {
			return nil, fmt.Errorf("failed to check assignees: %w", err)
		}
		if found != len(ids) {
			return nil, InvalidInput("assignees must be active members of the organization")
		}
	}

	if replace {
		if _, err := tx.Exec(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, taskID); err != nil {
			return nil, fmt.Errorf("failed to clear assignees: %w", err)
		}
	}

	if len(ids) > 0 {
		_, err := tx.Exec(ctx, `
			INSERT INTO task_assignees (task_id, member_id)
			SELECT $1, unnest($2::uuid[])
		`, taskID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to assign task: %w", err)
		}
	}

	return ids, nil
}

func attachAssignees(ctx context.Context, q database.Querier, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]int, len(tasks))
	ids := make([]uuid.UUID, len(tasks))
	for i := range tasks {
		tasks[i].AssigneeIDs = []uuid.UUID{}
		index[tasks[i].ID] = i
		ids[i] = tasks[i].ID
	}

	rows, err := q.Query(ctx, `
		SELECT task_id, member_id FROM task_assignees WHERE task_id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load assignees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, memberID uuid.UUID
		if err := rows.Scan(&taskID, &memberID); err != nil {
			return fmt.Errorf("failed to scan assignee: %w", err)
		}
		if i, ok := index[taskID]; ok {
			tasks[i].AssigneeIDs = append(tasks[i].AssigneeIDs, memberID)
		}
	}
	return rows.Err()
}

func scanTask(row pgx.Row, t *models.Task) error {
	return row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
}

package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusTodo       = "TODO"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusInReview   = "IN_REVIEW"
	TaskStatusDone       = "DONE"
)

const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

type Task struct {
	ID          uuid.UUID   `json:"id"`
	ProjectID   uuid.UUID   `json:"project_id"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	Status      string      `json:"status"`
	Priority    string      `json:"priority"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	AssigneeIDs []uuid.UUID `json:"assignee_ids"`
}

var TaskStatuses = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusInReview, TaskStatusDone}

var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

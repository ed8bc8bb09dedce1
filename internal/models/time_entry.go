package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntry is a span of work by a member on a task. EndTime is nil while the
// timer runs; InvoiceItemID is nil until the entry is billed.
type TimeEntry struct {
	ID            uuid.UUID  `json:"id"`
	TaskID        uuid.UUID  `json:"task_id"`
	MemberID      uuid.UUID  `json:"member_id"`
	Description   *string    `json:"description,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Duration      *int64     `json:"duration,omitempty"`
	IsBillable    bool       `json:"is_billable"`
	InvoiceItemID *uuid.UUID `json:"invoice_item_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	TaskTitle     *string    `json:"task_title,omitempty"`
	ProjectName   *string    `json:"project_name,omitempty"`
}

func (e *TimeEntry) IsRunning() bool {
	return e.EndTime == nil
}

func (e *TimeEntry) IsBilled() bool {
	return e.InvoiceItemID != nil
}

// ElapsedSeconds is floor((end - start) / 1s).
func ElapsedSeconds(start, end time.Time) int64 {
	return int64(end.Sub(start) / time.Second)
}

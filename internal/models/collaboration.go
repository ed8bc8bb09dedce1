package models

import (
	"time"

	"github.com/google/uuid"
)

type Tag struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Color          *string   `json:"color,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Comment struct {
	ID         uuid.UUID `json:"id"`
	TaskID     uuid.UUID `json:"task_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	AuthorName *string   `json:"author_name,omitempty"`
}

type SearchResults struct {
	Tasks    []SearchHit `json:"tasks"`
	Projects []SearchHit `json:"projects"`
	Clients  []SearchHit `json:"clients"`
}

type SearchHit struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

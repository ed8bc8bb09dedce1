package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Client struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	Address        *string   `json:"address,omitempty"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ProjectCount   *int64    `json:"project_count,omitempty"`
}

// ClientDetails adds the billing summary shown on a single client.
type ClientDetails struct {
	Client
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	ActiveProjectsCount int64           `json:"active_projects_count"`
}

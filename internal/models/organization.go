package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

const (
	MemberStatusPending = "PENDING"
	MemberStatusActive  = "ACTIVE"
)

type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is a user's membership in an organization. A pending invite for an
// address with no account yet has a nil UserID and InvitedEmail set.
type Member struct {
	ID              uuid.UUID  `json:"id"`
	OrganizationID  uuid.UUID  `json:"organization_id"`
	UserID          *uuid.UUID `json:"user_id,omitempty"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	InvitationToken *string    `json:"-"`
	InvitedEmail    *string    `json:"invited_email,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	User            *User      `json:"user,omitempty"`
}

func (m *Member) IsActive() bool {
	return m.Status == MemberStatusActive
}

// BelongsTo reports whether the membership is bound to userID.
func (m *Member) BelongsTo(userID uuid.UUID) bool {
	return m.UserID != nil && *m.UserID == userID
}

// Membership is an organization as seen by one of its members.
type Membership struct {
	Organization Organization `json:"organization"`
	MemberID     uuid.UUID    `json:"member_id"`
	Role         string       `json:"role"`
	Status       string       `json:"status"`
}

type DashboardStats struct {
	ProjectCount int64           `json:"project_count"`
	ActiveTasks  int64           `json:"active_tasks"`
	MemberCount  int64           `json:"member_count"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type Dashboard struct {
	Organization Organization    `json:"organization"`
	Stats        *DashboardStats `json:"stats"`
}

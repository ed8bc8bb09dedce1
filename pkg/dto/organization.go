package dto

import "github.com/dimitrije/orbit-api/internal/models"

type InviteMemberRequest struct {
	OrganizationID string `json:"organization_id" validate:"required,uuid"`
	Email          string `json:"email" validate:"required,email"`
	Role           string `json:"role" validate:"omitempty,oneof=OWNER ADMIN MEMBER"`
}

type AcceptInviteRequest struct {
	Token string `json:"token" validate:"required"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=OWNER ADMIN MEMBER"`
}

// InviteResponse returns the invitation token to the inviter so the link can
// be shared when email delivery is not configured.
type InviteResponse struct {
	*models.Member
	InvitationToken string `json:"invitation_token"`
}

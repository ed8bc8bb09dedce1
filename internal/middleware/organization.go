package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/policy"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

const (
	OrganizationIDKey = "organization_id"
	MemberKey         = "member"
)

type MembershipLookup interface {
	GetMembership(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error)
}

// OrganizationMember resolves the :orgId route parameter and lets the request
// through only for ACTIVE members of that organization. Must run after Auth.
func OrganizationMember(members MembershipLookup, log *zap.Logger) drift.HandlerFunc {
	return func(c *drift.Context) {
		userID := GetUserID(c)
		if userID == uuid.Nil {
			abort(c, http.StatusUnauthorized, "not authenticated")
			return
		}

		orgID, err := uuid.Parse(c.Param("orgId"))
		if err != nil {
			abort(c, http.StatusBadRequest, "invalid organization id")
			return
		}

		member, err := members.GetMembership(c.Request.Context(), orgID, userID)
		if errors.Is(err, services.ErrNotFound) {
			abort(c, http.StatusForbidden, "you are not a member of this organization")
			return
		}
		if err != nil {
			log.Error("membership lookup failed",
				zap.Error(err),
				zap.String("organization_id", orgID.String()),
				zap.String("user_id", userID.String()),
			)
			abort(c, http.StatusInternalServerError, "internal server error")
			return
		}
		if !member.IsActive() {
			abort(c, http.StatusForbidden, "membership is not active")
			return
		}

		c.Set(OrganizationIDKey, orgID)
		c.Set(MemberKey, member)
		c.Next()
	}
}

// RequireOrgRole wraps next so it only runs for members holding one of roles.
func RequireOrgRole(next drift.HandlerFunc, roles ...string) drift.HandlerFunc {
	return func(c *drift.Context) {
		member := GetMember(c)
		if member == nil {
			abort(c, http.StatusForbidden, "you are not a member of this organization")
			return
		}
		if !policy.HasRole(member.Role, roles...) {
			abort(c, http.StatusForbidden, "insufficient organization role")
			return
		}
		next(c)
	}
}

func GetOrganizationID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(OrganizationIDKey); ok {
		if oid, ok := id.(uuid.UUID); ok {
			return oid
		}
	}
	return uuid.Nil
}

func GetMember(c *drift.Context) *models.Member {
	if m, ok := c.Get(MemberKey); ok {
		if member, ok := m.(*models.Member); ok {
			return member
		}
	}
	return nil
}

package handlers

import (
	"net/http"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/sse"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type OrganizationHandler struct {
	organizationService OrganizationServiceInterface
	membershipService   MembershipServiceInterface
	events              EventPublisher
	log                 *zap.Logger
}

func NewOrganizationHandler(
	organizationService OrganizationServiceInterface,
	membershipService MembershipServiceInterface,
	events EventPublisher,
	log *zap.Logger,
) *OrganizationHandler {
	return &OrganizationHandler{
		organizationService: organizationService,
		membershipService:   membershipService,
		events:              events,
		log:                 log,
	}
}

func (h *OrganizationHandler) Dashboard(c *drift.Context) {
	dashboard, err := h.organizationService.Dashboard(c.Request.Context(), middleware.GetOrganizationID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "dashboard retrieved", dashboard)
}

func (h *OrganizationHandler) ListMembers(c *drift.Context) {
	members, err := h.membershipService.ListMembers(c.Request.Context(), middleware.GetOrganizationID(c), pageFromQuery(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "members retrieved", members)
}

func (h *OrganizationHandler) UpdateMemberRole(c *drift.Context) {
	memberID, ok := uuidParam(c, "memberId", "member")
	if !ok {
		return
	}

	var req dto.UpdateMemberRoleRequest
	if !bind(c, &req) {
		return
	}

	member, err := h.membershipService.UpdateMemberRole(c.Request.Context(),
		middleware.GetOrganizationID(c), middleware.GetUserID(c), memberID, req.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "member role updated", member)
}

func (h *OrganizationHandler) RemoveMember(c *drift.Context) {
	memberID, ok := uuidParam(c, "memberId", "member")
	if !ok {
		return
	}

	orgID := middleware.GetOrganizationID(c)
	if err := h.membershipService.RemoveMember(c.Request.Context(), orgID, memberID, middleware.GetUserID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.events.Publish(orgID, sse.EventMemberRemoved, map[string]string{"member_id": memberID.String()})

	respond(c, http.StatusOK, "member removed", nil)
}

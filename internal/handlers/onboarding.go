package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/sse"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type OnboardingHandler struct {
	membershipService   MembershipServiceInterface
	organizationService OrganizationServiceInterface
	userService         UserServiceInterface
	emailService        EmailServiceInterface
	events              EventPublisher
	baseURL             string
	log                 *zap.Logger
}

func NewOnboardingHandler(
	membershipService MembershipServiceInterface,
	organizationService OrganizationServiceInterface,
	userService UserServiceInterface,
	emailService EmailServiceInterface,
	events EventPublisher,
	baseURL string,
	log *zap.Logger,
) *OnboardingHandler {
	return &OnboardingHandler{
		membershipService:   membershipService,
		organizationService: organizationService,
		userService:         userService,
		emailService:        emailService,
		events:              events,
		baseURL:             strings.TrimRight(baseURL, "/"),
		log:                 log,
	}
}

func (h *OnboardingHandler) Invite(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req dto.InviteMemberRequest
	if !bind(c, &req) {
		return
	}
	orgID := uuid.MustParse(req.OrganizationID)

	ctx := c.Request.Context()
	member, err := h.membershipService.InviteMember(ctx, orgID, userID, req.Email, req.Role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.sendInviteEmail(ctx, orgID, userID, req.Email, member)

	resp := dto.InviteResponse{Member: member}
	if member.InvitationToken != nil {
		resp.InvitationToken = *member.InvitationToken
	}
	respond(c, http.StatusCreated, "invitation sent", resp)
}

// sendInviteEmail mails the acceptance link. Delivery failures are logged and
// do not fail the invite.
func (h *OnboardingHandler) sendInviteEmail(ctx context.Context, orgID, inviterID uuid.UUID, to string, member *models.Member) {
	if !h.emailService.IsConfigured() || member.InvitationToken == nil {
		return
	}

	org, err := h.organizationService.Get(ctx, orgID)
	if err != nil {
		h.log.Warn("invite email skipped", zap.Error(err), zap.String("organization_id", orgID.String()))
		return
	}

	inviterName := "A teammate"
	if inviter, err := h.userService.GetByID(ctx, inviterID); err == nil {
		inviterName = inviter.Name
	}

	acceptURL := h.baseURL + "/accept-invite?token=" + url.QueryEscape(*member.InvitationToken)
	if err := h.emailService.SendOrganizationInvite(to, org.Name, inviterName, acceptURL); err != nil {
		h.log.Warn("failed to send invite email",
			zap.Error(err),
			zap.String("organization_id", orgID.String()),
			zap.String("member_id", member.ID.String()),
		)
	}
}

func (h *OnboardingHandler) AcceptInvite(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req dto.AcceptInviteRequest
	if !bind(c, &req) {
		return
	}

	member, err := h.membershipService.AcceptInvite(c.Request.Context(), req.Token, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.events.Publish(member.OrganizationID, sse.EventMemberJoined, member)

	respond(c, http.StatusOK, "invitation accepted", member)
}

package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/internal/sse"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/dimitrije/orbit-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type onboardingMocks struct {
	membership   *testutil.MockMembershipService
	organization *testutil.MockOrganizationService
	user         *testutil.MockUserService
	email        *testutil.MockEmailService
	events       *testutil.MockEventPublisher
}

func setupOnboardingTest() (*onboardingMocks, *OnboardingHandler) {
	m := &onboardingMocks{
		membership:   new(testutil.MockMembershipService),
		organization: new(testutil.MockOrganizationService),
		user:         new(testutil.MockUserService),
		email:        new(testutil.MockEmailService),
		events:       new(testutil.MockEventPublisher),
	}
	handler := NewOnboardingHandler(m.membership, m.organization, m.user, m.email, m.events, "https://app.example.com/", zap.NewNop())
	return m, handler
}

func TestOnboardingHandler_Invite_SendsEmail(t *testing.T) {
	m, handler := setupOnboardingTest()
	app, userID, token := userApp(t, http.MethodPost, "/invites", handler.Invite)

	orgID := uuid.New()
	inviteToken := "invite-token-123"
	email := "new@example.com"
	member := &models.Member{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		Role:            models.RoleMember,
		Status:          models.MemberStatusPending,
		InvitationToken: &inviteToken,
		InvitedEmail:    &email,
	}

	m.membership.On("InviteMember", mock.Anything, orgID, userID, email, models.RoleMember).Return(member, nil)
	m.email.On("IsConfigured").Return(true)
	m.organization.On("Get", mock.Anything, orgID).Return(&models.Organization{ID: orgID, Name: "Acme"}, nil)
	m.user.On("GetByID", mock.Anything, userID).Return(&models.User{ID: userID, Name: "Jane"}, nil)
	m.email.On("SendOrganizationInvite", email, "Acme", "Jane",
		"https://app.example.com/accept-invite?token=invite-token-123").Return(nil)

	rec := doRequest(app, http.MethodPost, "/invites", token, dto.InviteMemberRequest{
		OrganizationID: orgID.String(), Email: email, Role: models.RoleMember,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		ID              uuid.UUID `json:"id"`
		Status          string    `json:"status"`
		InvitationToken string    `json:"invitation_token"`
	}
	testutil.ParseEnvelope(t, rec, &resp)
	assert.Equal(t, member.ID, resp.ID)
	assert.Equal(t, models.MemberStatusPending, resp.Status)
	assert.Equal(t, inviteToken, resp.InvitationToken)

	m.membership.AssertExpectations(t)
	m.email.AssertExpectations(t)
}

func TestOnboardingHandler_Invite_EmailFailureDoesNotFail(t *testing.T) {
	m, handler := setupOnboardingTest()
	app, userID, token := userApp(t, http.MethodPost, "/invites", handler.Invite)

	orgID := uuid.New()
	inviteToken := "invite-token"
	member := &models.Member{ID: uuid.New(), OrganizationID: orgID, Status: models.MemberStatusPending, InvitationToken: &inviteToken}

	m.membership.On("InviteMember", mock.Anything, orgID, userID, "new@example.com", "").Return(member, nil)
	m.email.On("IsConfigured").Return(true)
	m.organization.On("Get", mock.Anything, orgID).Return(&models.Organization{ID: orgID, Name: "Acme"}, nil)
	m.user.On("GetByID", mock.Anything, userID).Return(nil, errors.New("db down"))
	m.email.On("SendOrganizationInvite", "new@example.com", "Acme", "A teammate", mock.Anything).
		Return(errors.New("smtp unavailable"))

	rec := doRequest(app, http.MethodPost, "/invites", token, dto.InviteMemberRequest{
		OrganizationID: orgID.String(), Email: "new@example.com",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	m.email.AssertExpectations(t)
}

func TestOnboardingHandler_Invite_EmailNotConfigured(t *testing.T) {
	m, handler := setupOnboardingTest()
	app, userID, token := userApp(t, http.MethodPost, "/invites", handler.Invite)

	orgID := uuid.New()
	inviteToken := "invite-token"
	member := &models.Member{ID: uuid.New(), OrganizationID: orgID, InvitationToken: &inviteToken}

	m.membership.On("InviteMember", mock.Anything, orgID, userID, "new@example.com", models.RoleAdmin).Return(member, nil)
	m.email.On("IsConfigured").Return(false)

	rec := doRequest(app, http.MethodPost, "/invites", token, dto.InviteMemberRequest{
		OrganizationID: orgID.String(), Email: "new@example.com", Role: models.RoleAdmin,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	m.email.AssertNotCalled(t, "SendOrganizationInvite", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.organization.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestOnboardingHandler_Invite_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   dto.InviteMemberRequest
		err    error
		status int
	}{
		{
			name:   "bad organization id",
			body:   dto.InviteMemberRequest{OrganizationID: "nope", Email: "new@example.com"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown role",
			body:   dto.InviteMemberRequest{OrganizationID: uuid.NewString(), Email: "new@example.com", Role: "GUEST"},
			status: http.StatusBadRequest,
		},
		{
			name:   "inviter lacks role",
			body:   dto.InviteMemberRequest{OrganizationID: uuid.NewString(), Email: "new@example.com"},
			err:    services.Forbidden("only owners and admins can invite members"),
			status: http.StatusForbidden,
		},
		{
			name:   "already a member",
			body:   dto.InviteMemberRequest{OrganizationID: uuid.NewString(), Email: "new@example.com"},
			err:    services.Conflict("user is already a member of this organization"),
			status: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, handler := setupOnboardingTest()
			app, _, token := userApp(t, http.MethodPost, "/invites", handler.Invite)
			if tt.err != nil {
				m.membership.On("InviteMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, tt.err)
			}

			rec := doRequest(app, http.MethodPost, "/invites", token, tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, testutil.ParseEnvelope(t, rec, nil).Success)
		})
	}
}

func TestOnboardingHandler_AcceptInvite(t *testing.T) {
	m, handler := setupOnboardingTest()
	app, userID, token := userApp(t, http.MethodPost, "/invites/accept", handler.AcceptInvite)

	orgID := uuid.New()
	member := &models.Member{ID: uuid.New(), OrganizationID: orgID, UserID: &userID, Role: models.RoleMember, Status: models.MemberStatusActive}

	m.membership.On("AcceptInvite", mock.Anything, "invite-token", userID).Return(member, nil)
	m.events.On("Publish", orgID, sse.EventMemberJoined, member).Return(true)

	rec := doRequest(app, http.MethodPost, "/invites/accept", token, dto.AcceptInviteRequest{Token: "invite-token"})

	assert.Equal(t, http.StatusOK, rec.Code)
	var got models.Member
	testutil.ParseEnvelope(t, rec, &got)
	assert.Equal(t, models.MemberStatusActive, got.Status)
	m.events.AssertExpectations(t)
}

func TestOnboardingHandler_AcceptInvite_Invalid(t *testing.T) {
	m, handler := setupOnboardingTest()
	app, userID, token := userApp(t, http.MethodPost, "/invites/accept", handler.AcceptInvite)

	m.membership.On("AcceptInvite", mock.Anything, "stale", userID).Return(nil, services.NotFound("invitation not found"))

	rec := doRequest(app, http.MethodPost, "/invites/accept", token, dto.AcceptInviteRequest{Token: "stale"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	m.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrganizationHandler_Dashboard(t *testing.T) {
	orgs := new(testutil.MockOrganizationService)
	handler := NewOrganizationHandler(orgs, new(testutil.MockMembershipService), newEventPublisher(), zap.NewNop())
	a := orgApp(t, models.RoleMember, http.MethodGet, "/organizations/:orgId/dashboard", handler.Dashboard)

	orgs.On("Dashboard", mock.Anything, a.orgID).Return(&models.Dashboard{
		Organization: models.Organization{ID: a.orgID, Name: "Acme"},
		Stats:        &models.DashboardStats{ProjectCount: 3, ActiveTasks: 7, MemberCount: 2, Revenue: decimal.RequireFromString("1500.00")},
	}, nil)

	rec := a.do(http.MethodGet, "/dashboard", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var dashboard models.Dashboard
	testutil.ParseEnvelope(t, rec, &dashboard)
	require.NotNil(t, dashboard.Stats)
	assert.Equal(t, int64(3), dashboard.Stats.ProjectCount)
	assert.True(t, decimal.RequireFromString("1500").Equal(dashboard.Stats.Revenue))
}

func TestOrganizationHandler_ListMembers_Paginates(t *testing.T) {
	members := new(testutil.MockMembershipService)
	handler := NewOrganizationHandler(new(testutil.MockOrganizationService), members, newEventPublisher(), zap.NewNop())
	a := orgApp(t, models.RoleMember, http.MethodGet, "/organizations/:orgId/members", handler.ListMembers)

	page := models.NewPage(2, 10)
	members.On("ListMembers", mock.Anything, a.orgID, page).Return(&models.Paginated[models.Member]{
		Items: []models.Member{*a.member},
		Meta:  models.PageMeta{Total: 11, Page: 2, Limit: 10, TotalPages: 2},
	}, nil)

	rec := a.do(http.MethodGet, "/members?page=2&limit=10", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var result models.Paginated[models.Member]
	testutil.ParseEnvelope(t, rec, &result)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 2, result.Meta.TotalPages)
	members.AssertExpectations(t)
}

func TestOrganizationHandler_UpdateMemberRole(t *testing.T) {
	members := new(testutil.MockMembershipService)
	handler := NewOrganizationHandler(new(testutil.MockOrganizationService), members, newEventPublisher(), zap.NewNop())
	guarded := middleware.RequireOrgRole(handler.UpdateMemberRole, models.RoleOwner)

	t.Run("owner promotes member", func(t *testing.T) {
		a := orgApp(t, models.RoleOwner, http.MethodPatch, "/organizations/:orgId/members/:memberId", guarded)
		targetID := uuid.New()
		members.On("UpdateMemberRole", mock.Anything, a.orgID, a.userID, targetID, models.RoleAdmin).
			Return(&models.Member{ID: targetID, OrganizationID: a.orgID, Role: models.RoleAdmin}, nil)

		rec := a.do(http.MethodPatch, "/members/"+targetID.String(), dto.UpdateMemberRoleRequest{Role: models.RoleAdmin})

		assert.Equal(t, http.StatusOK, rec.Code)
		var got models.Member
		testutil.ParseEnvelope(t, rec, &got)
		assert.Equal(t, models.RoleAdmin, got.Role)
	})

	t.Run("admin is rejected", func(t *testing.T) {
		a := orgApp(t, models.RoleAdmin, http.MethodPatch, "/organizations/:orgId/members/:memberId", guarded)

		rec := a.do(http.MethodPatch, "/members/"+uuid.NewString(), dto.UpdateMemberRoleRequest{Role: models.RoleAdmin})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("last owner demotion", func(t *testing.T) {
		a := orgApp(t, models.RoleOwner, http.MethodPatch, "/organizations/:orgId/members/:memberId", guarded)
		members.On("UpdateMemberRole", mock.Anything, a.orgID, a.userID, a.member.ID, models.RoleMember).
			Return(nil, services.Conflict("cannot remove the last owner"))

		rec := a.do(http.MethodPatch, "/members/"+a.member.ID.String(), dto.UpdateMemberRoleRequest{Role: models.RoleMember})

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "last owner")
	})
}

func TestOrganizationHandler_RemoveMember(t *testing.T) {
	t.Run("publishes removal", func(t *testing.T) {
		members := new(testutil.MockMembershipService)
		events := new(testutil.MockEventPublisher)
		handler := NewOrganizationHandler(new(testutil.MockOrganizationService), members, events, zap.NewNop())
		guarded := middleware.RequireOrgRole(handler.RemoveMember, models.RoleOwner, models.RoleAdmin)
		a := orgApp(t, models.RoleAdmin, http.MethodDelete, "/organizations/:orgId/members/:memberId", guarded)

		targetID := uuid.New()
		members.On("RemoveMember", mock.Anything, a.orgID, targetID, a.userID).Return(nil)
		events.On("Publish", a.orgID, sse.EventMemberRemoved, map[string]string{"member_id": targetID.String()}).Return(true)

		rec := a.do(http.MethodDelete, "/members/"+targetID.String(), nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		members.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("plain member is rejected", func(t *testing.T) {
		members := new(testutil.MockMembershipService)
		handler := NewOrganizationHandler(new(testutil.MockOrganizationService), members, newEventPublisher(), zap.NewNop())
		guarded := middleware.RequireOrgRole(handler.RemoveMember, models.RoleOwner, models.RoleAdmin)
		a := orgApp(t, models.RoleMember, http.MethodDelete, "/organizations/:orgId/members/:memberId", guarded)

		rec := a.do(http.MethodDelete, "/members/"+uuid.NewString(), nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		members.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid member id", func(t *testing.T) {
		handler := NewOrganizationHandler(new(testutil.MockOrganizationService), new(testutil.MockMembershipService), newEventPublisher(), zap.NewNop())
		a := orgApp(t, models.RoleOwner, http.MethodDelete, "/organizations/:orgId/members/:memberId", handler.RemoveMember)

		rec := a.do(http.MethodDelete, "/members/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid member id")
	})
}

package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageOf(page, limit int) models.Page {
	return models.NewPage(page, limit)
}

func countOwners(t *testing.T, tdb *testutil.TestDB, org *models.Organization) int {
	t.Helper()
	var owners int
	err := tdb.DB.Pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM organization_members
		WHERE organization_id = $1 AND role = $2 AND status = $3
	`, org.ID, models.RoleOwner, models.MemberStatusActive).Scan(&owners)
	require.NoError(t, err)
	return owners
}

func TestMembership_Integration_LastOwnerCannotBeRemoved(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewMembershipService(tdb.DB)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	org, ownerMember := fixtures.CreateOrganization(t, owner)

	err := svc.RemoveMember(ctx, org.ID, ownerMember.ID, owner.ID)
	assert.ErrorIs(t, err, services.ErrConflict)
	assert.Equal(t, 1, countOwners(t, tdb, org))

	_, err = svc.UpdateMemberRole(ctx, org.ID, owner.ID, ownerMember.ID, models.RoleMember)
	assert.ErrorIs(t, err, services.ErrConflict)
	assert.Equal(t, 1, countOwners(t, tdb, org))
}

func TestMembership_Integration_SecondOwnerCanLeave(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewMembershipService(tdb.DB)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	coOwner := fixtures.CreateUser(t)
	org, ownerMember := fixtures.CreateOrganization(t, owner)
	fixtures.AddMember(t, org, coOwner, models.RoleOwner)

	require.NoError(t, svc.RemoveMember(ctx, org.ID, ownerMember.ID, coOwner.ID))
	assert.Equal(t, 1, countOwners(t, tdb, org))
}

func TestMembership_Integration_OwnersDemotingEachOther(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewMembershipService(tdb.DB)
	ctx := context.Background()

	first := fixtures.CreateUser(t)
	second := fixtures.CreateUser(t)
	org, firstMember := fixtures.CreateOrganization(t, first)
	secondMember := fixtures.AddMember(t, org, second, models.RoleOwner)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.UpdateMemberRole(ctx, org.ID, first.ID, secondMember.ID, models.RoleMember)
	}()
	go func() {
		defer wg.Done()
		errs[1] = svc.RemoveMember(ctx, org.ID, firstMember.ID, second.ID)
	}()
	wg.Wait()

	var failed int
	for _, err := range errs {
		if err != nil {
			failed++
			assert.True(t, errors.Is(err, services.ErrConflict) || errors.Is(err, services.ErrForbidden) || errors.Is(err, services.ErrNotFound), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, countOwners(t, tdb, org))
}

func TestMembership_Integration_ConcurrentInvitesKeepOneRow(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewMembershipService(tdb.DB)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	org, _ := fixtures.CreateOrganization(t, owner)

	const inviters = 2
	tokens := make([]string, inviters)
	var wg sync.WaitGroup
	for i := 0; i < inviters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			member, err := svc.InviteMember(ctx, org.ID, owner.ID, "newcomer@example.com", models.RoleMember)
			if assert.NoError(t, err) && assert.NotNil(t, member.InvitationToken) {
				tokens[i] = *member.InvitationToken
			}
		}(i)
	}
	wg.Wait()

	var rows int
	var stored string
	err := tdb.DB.Pool.QueryRow(ctx, `
		SELECT COUNT(*), MAX(invitation_token) FROM organization_members
		WHERE organization_id = $1 AND invited_email = $2
	`, org.ID, "newcomer@example.com").Scan(&rows, &stored)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
	assert.Contains(t, tokens, stored)
}

func TestMembership_Integration_InviteAndAccept(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewMembershipService(tdb.DB)
	ctx := context.Background()

	owner := fixtures.CreateUser(t)
	invitee := fixtures.CreateUser(t, testutil.WithEmail("invitee@example.com"))
	org, _ := fixtures.CreateOrganization(t, owner)

	pending, err := svc.InviteMember(ctx, org.ID, owner.ID, "Invitee@Example.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusPending, pending.Status)
	require.NotNil(t, pending.InvitationToken)

	before, err := svc.GetMembership(ctx, org.ID, invitee.ID)
	require.NoError(t, err)
	assert.False(t, before.IsActive())

	accepted, err := svc.AcceptInvite(ctx, *pending.InvitationToken, invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, accepted.Status)
	assert.Equal(t, models.RoleAdmin, accepted.Role)

	member, err := svc.GetMembership(ctx, org.ID, invitee.ID)
	require.NoError(t, err)
	assert.True(t, member.IsActive())

	_, err = svc.AcceptInvite(ctx, *pending.InvitationToken, invitee.ID)
	assert.Error(t, err)

	members, err := svc.ListMembers(ctx, org.ID, pageOf(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), members.Meta.Total)
}

func TestMembership_Integration_MemberCannotInvite(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewMembershipService(tdb.DB)

	owner := fixtures.CreateUser(t)
	plain := fixtures.CreateUser(t)
	org, _ := fixtures.CreateOrganization(t, owner)
	fixtures.AddMember(t, org, plain, models.RoleMember)

	_, err := svc.InviteMember(context.Background(), org.ID, plain.ID, "someone@example.com", models.RoleMember)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

package policy

import (
	"testing"

	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanInvite(t *testing.T) {
	tests := []struct {
		name   string
		member *models.Member
		want   bool
	}{
		{"active owner", &models.Member{Role: models.RoleOwner, Status: models.MemberStatusActive}, true},
		{"active admin", &models.Member{Role: models.RoleAdmin, Status: models.MemberStatusActive}, true},
		{"active member", &models.Member{Role: models.RoleMember, Status: models.MemberStatusActive}, false},
		{"pending owner", &models.Member{Role: models.RoleOwner, Status: models.MemberStatusPending}, false},
		{"no membership", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanInvite(tt.member))
		})
	}
}

func TestCanManageMembers(t *testing.T) {
	admin := &models.Member{Role: models.RoleAdmin, Status: models.MemberStatusActive}
	invitedOwner := &models.Member{Role: models.RoleOwner, Status: models.MemberStatusPending}
	plain := &models.Member{Role: models.RoleMember, Status: models.MemberStatusActive}

	assert.True(t, CanManageMembers(admin))
	assert.False(t, CanManageMembers(invitedOwner))
	assert.False(t, CanManageMembers(plain))
	assert.False(t, CanManageMembers(nil))
}

func TestCanRemoveMember(t *testing.T) {
	assert.True(t, CanRemoveMember(models.RoleOwner, models.RoleOwner))
	assert.True(t, CanRemoveMember(models.RoleOwner, models.RoleMember))
	assert.True(t, CanRemoveMember(models.RoleAdmin, models.RoleMember))
	assert.True(t, CanRemoveMember(models.RoleAdmin, models.RoleAdmin))
	assert.False(t, CanRemoveMember(models.RoleAdmin, models.RoleOwner))
	assert.False(t, CanRemoveMember(models.RoleMember, models.RoleMember))
}

func TestCanChangeRole(t *testing.T) {
	assert.True(t, CanChangeRole(models.RoleOwner, models.RoleOwner, models.RoleAdmin))
	assert.True(t, CanChangeRole(models.RoleOwner, models.RoleMember, models.RoleOwner))
	assert.True(t, CanChangeRole(models.RoleAdmin, models.RoleMember, models.RoleAdmin))
	assert.False(t, CanChangeRole(models.RoleAdmin, models.RoleMember, models.RoleOwner))
	assert.False(t, CanChangeRole(models.RoleAdmin, models.RoleOwner, models.RoleMember))
	assert.False(t, CanChangeRole(models.RoleMember, models.RoleMember, models.RoleAdmin))
}

func TestOwnerProtection(t *testing.T) {
	assert.True(t, IsOwnerDemotion(models.RoleOwner, models.RoleAdmin))
	assert.False(t, IsOwnerDemotion(models.RoleOwner, models.RoleOwner))
	assert.False(t, IsOwnerDemotion(models.RoleAdmin, models.RoleMember))

	assert.True(t, LeavesNoOwner(1))
	assert.True(t, LeavesNoOwner(0))
	assert.False(t, LeavesNoOwner(2))
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidRole(models.RoleAdmin))
	assert.False(t, ValidRole("SUPERUSER"))
	assert.False(t, ValidRole("owner"))

	for _, s := range models.InvoiceStatuses {
		assert.True(t, ValidInvoiceStatus(s), s)
	}
	assert.False(t, ValidInvoiceStatus("VOID"))

	assert.True(t, ValidProjectStatus(models.ProjectStatusOnHold))
	assert.False(t, ValidProjectStatus("DONE"))
}

func TestValidTaskStatusAndPriority(t *testing.T) {
	assert.True(t, ValidTaskStatus(models.TaskStatusInReview))
	assert.False(t, ValidTaskStatus(models.ProjectStatusActive))
	assert.True(t, ValidPriority(models.PriorityUrgent))
	assert.False(t, ValidPriority("CRITICAL"))
}

func TestHasRole(t *testing.T) {
	assert.True(t, HasRole(models.RoleMember))
	assert.True(t, HasRole(models.RoleAdmin, models.RoleOwner, models.RoleAdmin))
	assert.False(t, HasRole(models.RoleMember, models.RoleOwner, models.RoleAdmin))
}

func TestOwnershipChecks(t *testing.T) {
	userID := uuid.New()
	other := uuid.New()

	assert.True(t, CanModifyInvoice(models.InvoiceStatusDraft))
	assert.False(t, CanModifyInvoice(models.InvoiceStatusSent))

	assert.True(t, CanStopEntry(&userID, userID))
	assert.False(t, CanStopEntry(&other, userID))
	assert.False(t, CanStopEntry(nil, userID))

	assert.True(t, CanDeleteComment(&userID, userID))
	assert.False(t, CanDeleteComment(&other, userID))
}

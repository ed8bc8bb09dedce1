// Package policy holds the role and ownership rules shared by the services
// and the HTTP middleware.
package policy

import (
	"slices"

	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
)

var roles = []string{models.RoleOwner, models.RoleAdmin, models.RoleMember}

func ValidRole(role string) bool {
	return slices.Contains(roles, role)
}

func ValidInvoiceStatus(status string) bool {
	return slices.Contains(models.InvoiceStatuses, status)
}

func ValidProjectStatus(status string) bool {
	return slices.Contains(models.ProjectStatuses, status)
}

func ValidTaskStatus(status string) bool {
	return slices.Contains(models.TaskStatuses, status)
}

func ValidPriority(priority string) bool {
	return slices.Contains(models.Priorities, priority)
}

// IsManager reports whether role may administer members.
func IsManager(role string) bool {
	return role == models.RoleOwner || role == models.RoleAdmin
}

// CanInvite reports whether an inviter membership may invite new members.
func CanInvite(inviter *models.Member) bool {
	return inviter != nil && inviter.IsActive() && IsManager(inviter.Role)
}

// CanManageMembers reports whether actor may change roles or remove members at all.
func CanManageMembers(actor *models.Member) bool {
	return actor != nil && actor.IsActive() && IsManager(actor.Role)
}

// HasRole reports whether role is one of allowed. An empty allowed list accepts any role.
func HasRole(role string, allowed ...string) bool {
	return len(allowed) == 0 || slices.Contains(allowed, role)
}

// CanRemoveMember reports whether actorRole may remove a member holding targetRole.
// Admins cannot remove owners.
func CanRemoveMember(actorRole, targetRole string) bool {
	if !IsManager(actorRole) {
		return false
	}
	return !(actorRole == models.RoleAdmin && targetRole == models.RoleOwner)
}

// CanChangeRole reports whether actorRole may move a member from currentRole to newRole.
// Only owners grant or revoke ownership.
func CanChangeRole(actorRole, currentRole, newRole string) bool {
	if !IsManager(actorRole) {
		return false
	}
	if actorRole == models.RoleOwner {
		return true
	}
	return currentRole != models.RoleOwner && newRole != models.RoleOwner
}

// IsOwnerDemotion reports whether moving from current to next removes an owner.
func IsOwnerDemotion(current, next string) bool {
	return current == models.RoleOwner && next != models.RoleOwner
}

// LeavesNoOwner reports whether losing one owner from activeOwners would leave the organization ownerless.
func LeavesNoOwner(activeOwners int64) bool {
	return activeOwners <= 1
}

func CanModifyInvoice(status string) bool {
	return status == models.InvoiceStatusDraft
}

func CanStopEntry(entryUserID *uuid.UUID, callerID uuid.UUID) bool {
	return isOwnedBy(entryUserID, callerID)
}

func CanDeleteComment(authorUserID *uuid.UUID, callerID uuid.UUID) bool {
	return isOwnedBy(authorUserID, callerID)
}

func isOwnedBy(owner *uuid.UUID, callerID uuid.UUID) bool {
	return owner != nil && *owner == callerID
}

package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/policy"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const memberColumns = `m.id, m.organization_id, m.user_id, m.role, m.status,
	m.invitation_token, m.invited_email, m.created_at, m.updated_at`

type MembershipService struct {
	db *database.DB
}

func NewMembershipService(db *database.DB) *MembershipService {
	return &MembershipService{db: db}
}

// InviteMember creates or refreshes a pending membership for email. Registered
// users are bound by id; other addresses are keyed on the invited email so
// repeated or concurrent invites collapse into one row.
func (s *MembershipService) InviteMember(ctx context.Context, orgID, inviterUserID uuid.UUID, email, role string) (*models.Member, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, InvalidInput("email is required")
	}
	if role == "" {
		role = models.RoleMember
	}
	if !policy.ValidRole(role) {
		return nil, InvalidInput("invalid role: %s", role)
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inviter, err := memberByUser(ctx, tx, orgID, inviterUserID)
	if errors.Is(err, ErrNotFound) {
		return nil, Forbidden("only owners and admins can invite members")
	}
	if err != nil {
		return nil, err
	}
	if !policy.CanInvite(inviter) {
		return nil, Forbidden("only owners and admins can invite members")
	}
	if role == models.RoleOwner && inviter.Role != models.RoleOwner {
		return nil, Forbidden("only owners can invite owners")
	}

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&userID)
	registered := err == nil
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var member models.Member
	if registered {
		err = scanMember(tx.QueryRow(ctx, `
			INSERT INTO organization_members AS m (organization_id, user_id, role, status, invitation_token)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, organization_id) DO UPDATE
				SET invitation_token = EXCLUDED.invitation_token, updated_at = NOW()
				WHERE m.status = $4
			RETURNING `+memberColumns,
			orgID, userID, role, models.MemberStatusPending, token,
		), &member)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, Conflict("user is already a member of this organization")
		}
	} else {
		err = scanMember(tx.QueryRow(ctx, `
			INSERT INTO organization_members AS m (organization_id, role, status, invitation_token, invited_email)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (organization_id, invited_email) WHERE invited_email IS NOT NULL DO UPDATE
				SET invitation_token = EXCLUDED.invitation_token, updated_at = NOW()
			RETURNING `+memberColumns,
			orgID, role, models.MemberStatusPending, token, email,
		), &member)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &member, nil
}

// AcceptInvite activates the pending membership identified by token for userID.
func (s *MembershipService) AcceptInvite(ctx context.Context, token string, userID uuid.UUID) (*models.Member, error) {
	if token == "" {
		return nil, NotFound("invalid invitation token")
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var member models.Member
	err = scanMember(tx.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM organization_members m
		WHERE m.invitation_token = $1
		FOR UPDATE
	`, token), &member)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("invalid invitation token")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	if member.IsActive() {
		return nil, Conflict("invitation already accepted")
	}
	if member.UserID != nil && !member.BelongsTo(userID) {
		return nil, Forbidden("this invitation belongs to another user")
	}

	err = scanMember(tx.QueryRow(ctx, `
		UPDATE organization_members AS m
		SET status = $1, invitation_token = NULL, user_id = $2, invited_email = NULL, updated_at = NOW()
		WHERE m.id = $3
		RETURNING `+memberColumns,
		models.MemberStatusActive, userID, member.ID,
	), &member)
	if database.IsUniqueViolation(err, database.ConstraintMemberUser) {
		return nil, Conflict("you are already a member of this organization")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &member, nil
}

// UpdateMemberRole changes a member's role. Demoting the last active owner is refused.
func (s *MembershipService) UpdateMemberRole(ctx context.Context, orgID, actorUserID, memberID uuid.UUID, role string) (*models.Member, error) {
	if !policy.ValidRole(role) {
		return nil, InvalidInput("invalid role: %s", role)
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	owners, err := lockOwners(ctx, tx, orgID)
	if err != nil {
		return nil, err
	}

	target, err := lockMember(ctx, tx, orgID, memberID)
	if err != nil {
		return nil, err
	}

	actor, err := requireManager(ctx, tx, orgID, actorUserID)
	if err != nil {
		return nil, err
	}

	if !policy.CanChangeRole(actor.Role, target.Role, role) {
		return nil, Forbidden("only owners can grant or revoke ownership")
	}

	if target.IsActive() && policy.IsOwnerDemotion(target.Role, role) && policy.LeavesNoOwner(owners) {
		return nil, Conflict("cannot remove the last owner")
	}

	var member models.Member
	err = scanMember(tx.QueryRow(ctx, `
		UPDATE organization_members AS m SET role = $1, updated_at = NOW()
		WHERE m.id = $2
		RETURNING `+memberColumns,
		role, target.ID,
	), &member)
	if err != nil {
		return nil, lockError(err, "failed to update member role")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &member, nil
}

// RemoveMember deletes a membership. Admins cannot remove owners and the last
// active owner cannot be removed. An unknown member is NotFound whoever asks.
func (s *MembershipService) RemoveMember(ctx context.Context, orgID, memberID, actorUserID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	owners, err := lockOwners(ctx, tx, orgID)
	if err != nil {
		return err
	}

	target, err := lockMember(ctx, tx, orgID, memberID)
	if err != nil {
		return err
	}

	actor, err := requireManager(ctx, tx, orgID, actorUserID)
	if err != nil {
		return err
	}

	if !policy.CanRemoveMember(actor.Role, target.Role) {
		return Forbidden("admins cannot remove owners")
	}

	if target.IsActive() && target.Role == models.RoleOwner && policy.LeavesNoOwner(owners) {
		return Conflict("cannot remove the last owner")
	}

	_, err = tx.Exec(ctx, `DELETE FROM organization_members WHERE id = $1`, target.ID)
	if err != nil {
		return lockError(err, "failed to remove member")
	}

	return tx.Commit(ctx)
}

// GetMembership returns the caller's membership row in the organization.
func (s *MembershipService) GetMembership(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error) {
	return memberByUser(ctx, s.db.Pool, orgID, userID)
}

func (s *MembershipService) ListMembers(ctx context.Context, orgID uuid.UUID, page models.Page) (*models.Paginated[models.Member], error) {
	var total int64
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM organization_members WHERE organization_id = $1
	`, orgID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+memberColumns+`, u.id, u.email, u.name, u.avatar_url
		FROM organization_members m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY m.created_at, m.id
		LIMIT $2 OFFSET $3
	`, orgID, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		var uid *uuid.UUID
		var email, name, avatar *string
		if err := scanMember(rows, &m, &uid, &email, &name, &avatar); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if uid != nil {
			m.User = &models.User{ID: *uid, Email: deref(email), Name: deref(name), AvatarURL: avatar}
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return models.NewPaginated(members, total, page), nil
}

func memberByUser(ctx context.Context, q database.Querier, orgID, userID uuid.UUID) (*models.Member, error) {
	var member models.Member
	err := scanMember(q.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM organization_members m
		WHERE m.user_id = $1 AND m.organization_id = $2
	`, userID, orgID), &member)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("membership not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &member, nil
}

func requireManager(ctx context.Context, q database.Querier, orgID, userID uuid.UUID) (*models.Member, error) {
	actor, err := memberByUser(ctx, q, orgID, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, Forbidden("insufficient permissions")
	}
	if err != nil {
		return nil, err
	}
	if !policy.CanManageMembers(actor) {
		return nil, Forbidden("insufficient permissions")
	}
	return actor, nil
}

func lockMember(ctx context.Context, tx pgx.Tx, orgID, memberID uuid.UUID) (*models.Member, error) {
	var member models.Member
	err := scanMember(tx.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM organization_members m
		WHERE m.id = $1 AND m.organization_id = $2
		FOR UPDATE
	`, memberID, orgID), &member)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("member not found")
	}
	if err != nil {
		return nil, lockError(err, "failed to get member")
	}
	return &member, nil
}

// lockOwners locks the active owners of the organization in id order and
// returns how many there are. Role changes and removals take this lock before
// touching the target row, so concurrent ones queue instead of deadlocking.
func lockOwners(ctx context.Context, tx pgx.Tx, orgID uuid.UUID) (int64, error) {
	rows, err := tx.Query(ctx, `
		SELECT id FROM organization_members
		WHERE organization_id = $1 AND role = $2 AND status = $3
		ORDER BY id
		FOR UPDATE
	`, orgID, models.RoleOwner, models.MemberStatusActive)
	if err != nil {
		return 0, lockError(err, "failed to lock owners")
	}

	var owners int64
	for rows.Next() {
		owners++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, lockError(err, "failed to lock owners")
	}
	return owners, nil
}

func lockError(err error, msg string) error {
	if database.IsDeadlock(err) {
		return Conflict("membership changed concurrently, try again")
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// activeMemberID resolves the caller's active membership id in the organization.
func activeMemberID(ctx context.Context, q database.Querier, orgID, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(ctx, `
		SELECT id FROM organization_members
		WHERE user_id = $1 AND organization_id = $2 AND status = $3
	`, userID, orgID, models.MemberStatusActive).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, NotFound("you are not a member of this organization")
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return id, nil
}

func scanMember(row pgx.Row, m *models.Member, extra ...any) error {
	dest := []any{
		&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.Status,
		&m.InvitationToken, &m.InvitedEmail, &m.CreatedAt, &m.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func generateInviteToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

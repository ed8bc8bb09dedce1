package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `id, email, name, password_hash, avatar_url, global_role, created_at, updated_at`

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

type RegisterInput struct {
	Email            string
	Name             string
	Password         string
	OrganizationName string
}

type UpdateProfileInput struct {
	Name      *string
	AvatarURL *string
}

type UserService struct {
	db       *database.DB
	hashCost int
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db, hashCost: bcrypt.DefaultCost}
}

// Register creates the user, their first organization and the owning membership
// in a single transaction.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, *models.Organization, error) {
	email := normalizeEmail(input.Email)
	orgName := strings.TrimSpace(input.OrganizationName)
	if orgName == "" {
		orgName = strings.TrimSpace(input.Name)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	slug, err := GenerateSlug(orgName)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var user models.User
	err = scanUser(tx.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, global_role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		email, strings.TrimSpace(input.Name), string(hash), models.GlobalRoleUser,
	), &user)
	if database.IsUniqueViolation(err, database.ConstraintUserEmail) {
		return nil, nil, Conflict("user with this email already exists")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	var org models.Organization
	err = tx.QueryRow(ctx, `
		INSERT INTO organizations (name, slug)
		VALUES ($1, $2)
		RETURNING id, name, slug, created_at, updated_at
	`, orgName, slug).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt)
	if database.IsUniqueViolation(err, database.ConstraintOrganizationSlug) {
		return nil, nil, Conflict("organization slug already taken, please retry")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create organization: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
	`, org.ID, user.ID, models.RoleOwner, models.MemberStatusActive)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to add owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &user, &org, nil
}

// Authenticate checks the credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, Unauthorized("invalid credentials")
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &user)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email)), &user)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET
			name = COALESCE($1, name),
			avatar_url = COALESCE($2, avatar_url),
			updated_at = NOW()
		WHERE id = $3
		RETURNING `+userColumns,
		input.Name, input.AvatarURL, id,
	), &user)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return Forbidden("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.Pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, string(hash), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ListMemberships returns every organization the user belongs to, pending invites included.
func (s *UserService) ListMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT o.id, o.name, o.slug, o.created_at, o.updated_at, m.id, m.role, m.status
		FROM organization_members m
		JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = $1
		ORDER BY o.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []models.Membership{}
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(
			&m.Organization.ID, &m.Organization.Name, &m.Organization.Slug,
			&m.Organization.CreatedAt, &m.Organization.UpdatedAt,
			&m.MemberID, &m.Role, &m.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}

	return memberships, nil
}

// PromoteToAdmin sets the global ADMIN role on the user with the given email.
func (s *UserService) PromoteToAdmin(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET global_role = $1, updated_at = NOW()
		WHERE email = $2
		RETURNING `+userColumns,
		models.GlobalRoleAdmin, normalizeEmail(email),
	), &user)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to promote user: %w", err)
	}
	return &user, nil
}

// GenerateSlug lower-cases name, collapses non-alphanumeric runs into dashes and
// appends six random hex characters.
func GenerateSlug(name string) (string, error) {
	base := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-"), "-")

	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate slug: %w", err)
	}
	suffix := hex.EncodeToString(b)

	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.AvatarURL,
		&u.GlobalRole, &u.CreatedAt, &u.UpdatedAt,
	)
}

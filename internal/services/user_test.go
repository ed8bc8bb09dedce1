package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userCols = []string{
	"id", "email", "name", "password_hash", "avatar_url", "global_role", "created_at", "updated_at",
}

func setupUserService(t *testing.T) (*UserService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	svc := NewUserService(db)
	svc.hashCost = bcrypt.MinCost
	return svc, mock
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func userRows(id uuid.UUID, email, name, hash string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(userCols).
		AddRow(id, email, name, hash, (*string)(nil), models.GlobalRoleUser, now, now)
}

// patternArg matches a string argument against a regular expression.
type patternArg struct {
	re *regexp.Regexp
}

func (a patternArg) Match(v interface{}) bool {
	s, ok := v.(string)
	return ok && a.re.MatchString(s)
}

func TestUserService_Register(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID, orgID := uuid.New(), uuid.New()
	now := time.Now()
	slug := patternArg{regexp.MustCompile(`^acme-studio-[0-9a-f]{6}$`)}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("jane@example.com", "Jane", anyArg(), models.GlobalRoleUser).
		WillReturnRows(userRows(userID, "jane@example.com", "Jane", "hash"))
	mock.ExpectQuery(`INSERT INTO organizations`).
		WithArgs("Acme Studio", slug).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "slug", "created_at", "updated_at"}).
			AddRow(orgID, "Acme Studio", "acme-studio-a1b2c3", now, now))
	mock.ExpectExec(`INSERT INTO organization_members`).
		WithArgs(orgID, userID, models.RoleOwner, models.MemberStatusActive).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	user, org, err := svc.Register(ctx, RegisterInput{
		Email:            " Jane@Example.com",
		Name:             "Jane",
		Password:         "secret123",
		OrganizationName: "Acme Studio",
	})

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, orgID, org.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	svc, mock := setupUserService(t)
	dup := &pgconn.PgError{Code: "23505", ConstraintName: database.ConstraintUserEmail}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("jane@example.com", "Jane", anyArg(), models.GlobalRoleUser).
		WillReturnError(dup)
	mock.ExpectRollback()

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email: "jane@example.com", Name: "Jane", Password: "secret123", OrganizationName: "Acme",
	})

	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"Acme Studio", `^acme-studio-[0-9a-f]{6}$`},
		{"  --Hello, World!!  ", `^hello-world-[0-9a-f]{6}$`},
		{"!!!", `^[0-9a-f]{6}$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slug, err := GenerateSlug(tt.name)
			require.NoError(t, err)
			assert.Regexp(t, tt.pattern, slug)
		})
	}
}

func TestUserService_Authenticate(t *testing.T) {
	userID := uuid.New()
	hash := hashPassword(t, "correct-horse")

	t.Run("valid credentials", func(t *testing.T) {
		svc, mock := setupUserService(t)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
			WithArgs("jane@example.com").
			WillReturnRows(userRows(userID, "jane@example.com", "Jane", hash))

		user, err := svc.Authenticate(context.Background(), "JANE@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, mock := setupUserService(t)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
			WithArgs("jane@example.com").
			WillReturnRows(userRows(userID, "jane@example.com", "Jane", hash))

		_, err := svc.Authenticate(context.Background(), "jane@example.com", "wrong")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, mock := setupUserService(t)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE email`).
			WithArgs("ghost@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := svc.Authenticate(context.Background(), "ghost@example.com", "whatever")
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserService_GetByID(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(userID).
		WillReturnRows(userRows(userID, "test@example.com", "Test User", "hash"))

	user, err := svc.GetByID(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(userID).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(ctx, userID)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	userID := uuid.New()
	newName := "Updated Name"

	mock.ExpectQuery(`UPDATE users SET`).
		WithArgs(&newName, (*string)(nil), userID).
		WillReturnRows(userRows(userID, "test@example.com", newName, "hash"))

	user, err := svc.UpdateProfile(ctx, userID, UpdateProfileInput{Name: &newName})

	require.NoError(t, err)
	assert.Equal(t, newName, user.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_ChangePassword(t *testing.T) {
	userID := uuid.New()
	hash := hashPassword(t, "old-password")

	t.Run("success", func(t *testing.T) {
		svc, mock := setupUserService(t)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
			WithArgs(userID).
			WillReturnRows(userRows(userID, "jane@example.com", "Jane", hash))
		mock.ExpectExec(`UPDATE users SET password_hash`).
			WithArgs(anyArg(), userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := svc.ChangePassword(context.Background(), userID, "old-password", "new-password")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong current password", func(t *testing.T) {
		svc, mock := setupUserService(t)
		mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
			WithArgs(userID).
			WillReturnRows(userRows(userID, "jane@example.com", "Jane", hash))

		err := svc.ChangePassword(context.Background(), userID, "nope", "new-password")
		assert.ErrorIs(t, err, ErrForbidden)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserService_ListMemberships(t *testing.T) {
	svc, mock := setupUserService(t)
	userID, orgID, memberID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`FROM organization_members m JOIN organizations o`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "slug", "created_at", "updated_at", "mid", "role", "status"}).
			AddRow(orgID, "Acme", "acme-123abc", now, now, memberID, models.RoleOwner, models.MemberStatusActive))

	memberships, err := svc.ListMemberships(context.Background(), userID)

	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, "Acme", memberships[0].Organization.Name)
	assert.Equal(t, memberID, memberships[0].MemberID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_PromoteToAdmin(t *testing.T) {
	svc, mock := setupUserService(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`UPDATE users SET global_role`).
		WithArgs(models.GlobalRoleAdmin, "ops@example.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(userID, "ops@example.com", "Ops", "hash", (*string)(nil), models.GlobalRoleAdmin, now, now))

	user, err := svc.PromoteToAdmin(context.Background(), "ops@example.com")

	require.NoError(t, err)
	assert.Equal(t, models.GlobalRoleAdmin, user.GlobalRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

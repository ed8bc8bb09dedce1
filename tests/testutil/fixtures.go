package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/orbit-api/internal/database"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plain-text password of every fixture user.
const FixturePassword = "password123"

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db           *database.DB
	counter      int
	passwordHash string
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return &Fixtures{db: db, passwordHash: string(hash)}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:      fmt.Sprintf("user%d@example.com", f.counter),
		Name:       fmt.Sprintf("Test User %d", f.counter),
		GlobalRole: models.GlobalRoleUser,
	}

	for _, opt := range opts {
		opt(user)
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users (email, name, password_hash, avatar_url, global_role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, f.passwordHash, user.AvatarURL, user.GlobalRole).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	user.PasswordHash = f.passwordHash

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// WithAvatar sets the user's avatar URL
func WithAvatar(url string) UserOption {
	return func(u *models.User) {
		u.AvatarURL = &url
	}
}

// CreateOrganization creates an organization owned by owner and returns it with
// the owner's membership.
func (f *Fixtures) CreateOrganization(t *testing.T, owner *models.User) (*models.Organization, *models.Member) {
	t.Helper()
	f.counter++

	org := &models.Organization{
		Name: fmt.Sprintf("Test Org %d", f.counter),
		Slug: fmt.Sprintf("test-org-%d-%s", f.counter, uuid.NewString()[:6]),
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO organizations (name, slug) VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, org.Name, org.Slug).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}

	return org, f.AddMember(t, org, owner, models.RoleOwner)
}

// AddMember adds user to org as an ACTIVE member with role.
func (f *Fixtures) AddMember(t *testing.T, org *models.Organization, user *models.User, role string) *models.Member {
	t.Helper()

	member := &models.Member{
		OrganizationID: org.ID,
		UserID:         &user.ID,
		Role:           role,
		Status:         models.MemberStatusActive,
	}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO organization_members (organization_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, org.ID, user.ID, role, models.MemberStatusActive).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to add member: %v", err)
	}

	return member
}

// CreateClient creates a USD client in org
func (f *Fixtures) CreateClient(t *testing.T, org *models.Organization) *models.Client {
	t.Helper()
	f.counter++

	client := &models.Client{
		OrganizationID: org.ID,
		Name:           fmt.Sprintf("Test Client %d", f.counter),
		Currency:       "USD",
	}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO clients (organization_id, name, currency) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, org.ID, client.Name, client.Currency).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	return client
}

// CreateProject creates an ACTIVE project in org, optionally for client
func (f *Fixtures) CreateProject(t *testing.T, org *models.Organization, client *models.Client) *models.Project {
	t.Helper()
	f.counter++

	project := &models.Project{
		OrganizationID: org.ID,
		Name:           fmt.Sprintf("Test Project %d", f.counter),
		Status:         models.ProjectStatusActive,
	}
	if client != nil {
		project.ClientID = &client.ID
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO projects (organization_id, client_id, name, status) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, org.ID, project.ClientID, project.Name, project.Status).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	return project
}

// CreateTask creates a TODO task in project
func (f *Fixtures) CreateTask(t *testing.T, project *models.Project) *models.Task {
	t.Helper()
	f.counter++

	task := &models.Task{
		ProjectID: project.ID,
		Title:     fmt.Sprintf("Test Task %d", f.counter),
		Status:    models.TaskStatusTodo,
		Priority:  models.PriorityMedium,
	}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO tasks (project_id, title, status, priority) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, project.ID, task.Title, task.Status, task.Priority).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	return task
}

// CreateStoppedEntry records a finished time entry of the given length that
// ended an hour ago.
func (f *Fixtures) CreateStoppedEntry(t *testing.T, task *models.Task, member *models.Member, duration time.Duration, billable bool) *models.TimeEntry {
	t.Helper()

	end := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	start := end.Add(-duration)
	seconds := int64(duration / time.Second)

	entry := &models.TimeEntry{
		TaskID:     task.ID,
		MemberID:   member.ID,
		StartTime:  start,
		EndTime:    &end,
		Duration:   &seconds,
		IsBillable: billable,
	}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO time_entries (task_id, member_id, start_time, end_time, duration, is_billable)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, task.ID, member.ID, start, end, seconds, billable).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create time entry: %v", err)
	}

	return entry
}

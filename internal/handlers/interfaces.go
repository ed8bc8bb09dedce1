package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	Register(ctx context.Context, input services.RegisterInput) (*models.User, *models.Organization, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input services.UpdateProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
	ListMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	RotateRefreshToken(ctx context.Context, oldHash, newHash string, expiresAt time.Time) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email, role string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

type MembershipServiceInterface interface {
	InviteMember(ctx context.Context, orgID, inviterUserID uuid.UUID, email, role string) (*models.Member, error)
	AcceptInvite(ctx context.Context, token string, userID uuid.UUID) (*models.Member, error)
	UpdateMemberRole(ctx context.Context, orgID, actorUserID, memberID uuid.UUID, role string) (*models.Member, error)
	RemoveMember(ctx context.Context, orgID, memberID, actorUserID uuid.UUID) error
	ListMembers(ctx context.Context, orgID uuid.UUID, page models.Page) (*models.Paginated[models.Member], error)
}

type OrganizationServiceInterface interface {
	Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
	Dashboard(ctx context.Context, orgID uuid.UUID) (*models.Dashboard, error)
}

type ClientServiceInterface interface {
	Create(ctx context.Context, orgID uuid.UUID, input services.CreateClientInput) (*models.Client, error)
	List(ctx context.Context, orgID uuid.UUID, page models.Page) (*models.Paginated[models.Client], error)
	Get(ctx context.Context, orgID, clientID uuid.UUID) (*models.ClientDetails, error)
}

type ProjectServiceInterface interface {
	Create(ctx context.Context, orgID uuid.UUID, input services.CreateProjectInput) (*models.Project, error)
	List(ctx context.Context, orgID uuid.UUID, status string, page models.Page) (*models.Paginated[models.Project], error)
	UpdateStatus(ctx context.Context, orgID, projectID uuid.UUID, status string) (*models.Project, error)
	Stats(ctx context.Context, orgID uuid.UUID) (map[string]int64, error)
}

type TaskServiceInterface interface {
	Create(ctx context.Context, orgID, projectID uuid.UUID, input services.CreateTaskInput) (*models.Task, error)
	List(ctx context.Context, orgID, projectID uuid.UUID, filter services.TaskFilter, page models.Page) (*models.Paginated[models.Task], error)
	Get(ctx context.Context, orgID, taskID uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, orgID, taskID uuid.UUID, input services.UpdateTaskInput) (*models.Task, error)
	Delete(ctx context.Context, orgID, taskID uuid.UUID) error
}

type TimeEntryServiceInterface interface {
	StartTimer(ctx context.Context, orgID, userID, taskID uuid.UUID, input services.StartTimerInput) (*models.TimeEntry, error)
	StopTimer(ctx context.Context, orgID, userID, entryID uuid.UUID) (*models.TimeEntry, error)
	GetRunningTimer(ctx context.Context, orgID, userID uuid.UUID) (*models.TimeEntry, error)
	ListMine(ctx context.Context, orgID, userID uuid.UUID, page models.Page) (*models.Paginated[models.TimeEntry], error)
}

type InvoiceServiceInterface interface {
	Create(ctx context.Context, orgID, creatorID uuid.UUID, input services.CreateInvoiceInput) (*models.Invoice, error)
	AddItem(ctx context.Context, orgID, invoiceID uuid.UUID, input services.AddItemInput) (*models.Invoice, error)
	AddTimeEntries(ctx context.Context, orgID, invoiceID uuid.UUID, timeEntryIDs []uuid.UUID) (*models.Invoice, error)
	UpdateStatus(ctx context.Context, orgID, invoiceID uuid.UUID, status string) (*models.Invoice, error)
	List(ctx context.Context, orgID uuid.UUID, page models.Page) (*models.Paginated[models.Invoice], error)
	Get(ctx context.Context, orgID, invoiceID uuid.UUID) (*models.Invoice, error)
}

type TagServiceInterface interface {
	Create(ctx context.Context, orgID uuid.UUID, name string, color *string) (*models.Tag, error)
	List(ctx context.Context, orgID uuid.UUID) ([]models.Tag, error)
}

type CommentServiceInterface interface {
	Create(ctx context.Context, orgID, userID, taskID uuid.UUID, content string) (*models.Comment, error)
	List(ctx context.Context, orgID, taskID uuid.UUID) ([]models.Comment, error)
	Delete(ctx context.Context, orgID, userID, commentID uuid.UUID) error
}

type SearchServiceInterface interface {
	Search(ctx context.Context, orgID uuid.UUID, query string) (*models.SearchResults, error)
}

// EmailServiceInterface defines the methods used by handlers from EmailService
type EmailServiceInterface interface {
	IsConfigured() bool
	SendOrganizationInvite(to, orgName, inviterName, acceptURL string) error
}

// EventPublisher fans organization events out to open event streams.
type EventPublisher interface {
	Publish(orgID uuid.UUID, eventType string, data interface{}) bool
}

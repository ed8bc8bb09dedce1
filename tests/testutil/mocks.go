package testutil

import (
	"context"
	"time"

	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, input services.RegisterInput) (*models.User, *models.Organization, error) {
	args := m.Called(ctx, input)
	user, _ := args.Get(0).(*models.User)
	org, _ := args.Get(1).(*models.Organization)
	return user, org, args.Error(2)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, input services.UpdateProfileInput) (*models.User, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	args := m.Called(ctx, id, current, next)
	return args.Error(0)
}

func (m *MockUserService) ListMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Membership), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) RotateRefreshToken(ctx context.Context, oldHash, newHash string, expiresAt time.Time) (uuid.UUID, error) {
	args := m.Called(ctx, oldHash, newHash, expiresAt)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockMembershipService mocks the MembershipService
type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) InviteMember(ctx context.Context, orgID, inviterUserID uuid.UUID, email, role string) (*models.Member, error) {
	args := m.Called(ctx, orgID, inviterUserID, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMembershipService) AcceptInvite(ctx context.Context, token string, userID uuid.UUID) (*models.Member, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMembershipService) UpdateMemberRole(ctx context.Context, orgID, actorUserID, memberID uuid.UUID, role string) (*models.Member, error) {
	args := m.Called(ctx, orgID, actorUserID, memberID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMembershipService) RemoveMember(ctx context.Context, orgID, memberID, actorUserID uuid.UUID) error {
	args := m.Called(ctx, orgID, memberID, actorUserID)
	return args.Error(0)
}

func (m *MockMembershipService) GetMembership(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error) {
	args := m.Called(ctx, orgID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMembershipService) ListMembers(ctx context.Context, orgID uuid.UUID, page models.Page) (*models.Paginated[models.Member], error) {
	args := m.Called(ctx, orgID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Paginated[models.Member]), args.Error(1)
}

// MockOrganizationService mocks the OrganizationService
type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationService) Dashboard(ctx context.Context, orgID uuid.UUID) (*models.Dashboard, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dashboard), args.Error(1)
}

// MockClientService mocks the ClientService
type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) Create(ctx context.Context, orgID uuid.UUID, input services.CreateClientInput) (*models.Client, error) {
	args := m.Called(ctx, orgID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientService) List(ctx context.Context, orgID uuid.UUID, page models.Page) (*models.Paginated[models.Client], error) {
	args := m.Called(ctx, orgID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Paginated[models.Client]), args.Error(1)
}

func (m *MockClientService) Get(ctx context.Context, orgID, clientID uuid.UUID) (*models.ClientDetails, error) {
	args := m.Called(ctx, orgID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClientDetails), args.Error(1)
}

// MockProjectService mocks the ProjectService
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, orgID uuid.UUID, input services.CreateProjectInput) (*models.Project, error) {
	args := m.Called(ctx, orgID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context, orgID uuid.UUID, status string, page models.Page) (*models.Paginated[models.Project], error) {
	args := m.Called(ctx, orgID, status, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Paginated[models.Project]), args.Error(1)
}

func (m *MockProjectService) UpdateStatus(ctx context.Context, orgID, projectID uuid.UUID, status string) (*models.Project, error) {
	args := m.Called(ctx, orgID, projectID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) Stats(ctx context.Context, orgID uuid.UUID) (map[string]int64, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

// MockTaskService mocks the TaskService
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, orgID, projectID uuid.UUID, input services.CreateTaskInput) (*models.Task, error) {
	args := m.Called(ctx, orgID, projectID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, orgID, projectID uuid.UUID, filter services.TaskFilter, page models.Page) (*models.Paginated[models.Task], error) {
	args := m.Called(ctx, orgID, projectID, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Paginated[models.Task]), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, orgID, taskID uuid.UUID) (*models.Task, error) {
	args := m.Called(ctx, orgID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, orgID, taskID uuid.UUID, input services.UpdateTaskInput) (*models.Task, error) {
	args := m.Called(ctx, orgID, taskID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, orgID, taskID uuid.UUID) error {
	args := m.Called(ctx, orgID, taskID)
	return args.Error(0)
}

// MockTimeEntryService mocks the TimeEntryService
type MockTimeEntryService struct {
	mock.Mock
}

func (m *MockTimeEntryService) StartTimer(ctx context.Context, orgID, userID, taskID uuid.UUID, input services.StartTimerInput) (*models.TimeEntry, error) {
	args := m.Called(ctx, orgID, userID, taskID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryService) StopTimer(ctx context.Context, orgID, userID, entryID uuid.UUID) (*models.TimeEntry, error) {
	args := m.Called(ctx, orgID, userID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryService) GetRunningTimer(ctx context.Context, orgID, userID uuid.UUID) (*models.TimeEntry, error) {
	args := m.Called(ctx, orgID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryService) ListMine(ctx context.Context, orgID, userID uuid.UUID, page models.Page) (*models.Paginated[models.TimeEntry], error) {
	args := m.Called(ctx, orgID, userID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Paginated[models.TimeEntry]), args.Error(1)
}

// MockInvoiceService mocks the InvoiceService
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, orgID, creatorID uuid.UUID, input services.CreateInvoiceInput) (*models.Invoice, error) {
	args := m.Called(ctx, orgID, creatorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) AddItem(ctx context.Context, orgID, invoiceID uuid.UUID, input services.AddItemInput) (*models.Invoice, error) {
	args := m.Called(ctx, orgID, invoiceID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) AddTimeEntries(ctx context.Context, orgID, invoiceID uuid.UUID, timeEntryIDs []uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, orgID, invoiceID, timeEntryIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) UpdateStatus(ctx context.Context, orgID, invoiceID uuid.UUID, status string) (*models.Invoice, error) {
	args := m.Called(ctx, orgID, invoiceID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, orgID uuid.UUID, page models.Page) (*models.Paginated[models.Invoice], error) {
	args := m.Called(ctx, orgID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Paginated[models.Invoice]), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, orgID, invoiceID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, orgID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

// MockTagService mocks the TagService
type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) Create(ctx context.Context, orgID uuid.UUID, name string, color *string) (*models.Tag, error) {
	args := m.Called(ctx, orgID, name, color)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagService) List(ctx context.Context, orgID uuid.UUID) ([]models.Tag, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tag), args.Error(1)
}

// MockCommentService mocks the CommentService
type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) Create(ctx context.Context, orgID, userID, taskID uuid.UUID, content string) (*models.Comment, error) {
	args := m.Called(ctx, orgID, userID, taskID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentService) List(ctx context.Context, orgID, taskID uuid.UUID) ([]models.Comment, error) {
	args := m.Called(ctx, orgID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockCommentService) Delete(ctx context.Context, orgID, userID, commentID uuid.UUID) error {
	args := m.Called(ctx, orgID, userID, commentID)
	return args.Error(0)
}

// MockSearchService mocks the SearchService
type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, orgID uuid.UUID, query string) (*models.SearchResults, error) {
	args := m.Called(ctx, orgID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SearchResults), args.Error(1)
}

// MockEmailService mocks the EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockEmailService) SendOrganizationInvite(to, orgName, inviterName, acceptURL string) error {
	args := m.Called(to, orgName, inviterName, acceptURL)
	return args.Error(0)
}

// MockEventPublisher records published organization events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(orgID uuid.UUID, eventType string, data interface{}) bool {
	args := m.Called(orgID, eventType, data)
	return args.Bool(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID uuid.UUID, email, role string) (*services.TokenPair, error) {
	args := m.Called(userID, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

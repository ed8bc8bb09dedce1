package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 15*time.Minute, 24*time.Hour)
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, email string) string {
	t.Helper()
	pair, err := jwtSvc.GenerateTokenPair(userID, email, models.GlobalRoleUser)
	require.NoError(t, err)
	return pair.AccessToken
}

// newApp serves a single route behind the body parser and the given middleware.
func newApp(method, path string, h drift.HandlerFunc, mws ...drift.HandlerFunc) http.Handler {
	app := drift.New()
	app.Use(driftmw.BodyParser())
	for _, mw := range mws {
		app.Use(mw)
	}

	switch method {
	case http.MethodGet:
		app.Get(path, h)
	case http.MethodPost:
		app.Post(path, h)
	case http.MethodPatch:
		app.Patch(path, h)
	case http.MethodDelete:
		app.Delete(path, h)
	}
	return app
}

// userApp serves a single authenticated route.
func userApp(t *testing.T, method, path string, h drift.HandlerFunc) (http.Handler, uuid.UUID, string) {
	t.Helper()
	jwtSvc := newTestJWTService()
	userID := uuid.New()

	app := newApp(method, path, h, middleware.Auth(jwtSvc))
	return app, userID, generateTestToken(t, jwtSvc, userID, "member@example.com")
}

type orgTestApp struct {
	handler http.Handler
	token   string
	userID  uuid.UUID
	orgID   uuid.UUID
	member  *models.Member
}

// orgApp serves a single organization-scoped route for a caller holding an
// active membership with the given role.
func orgApp(t *testing.T, role, method, path string, h drift.HandlerFunc) orgTestApp {
	t.Helper()
	jwtSvc := newTestJWTService()
	userID, orgID := uuid.New(), uuid.New()
	member := &models.Member{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         &userID,
		Role:           role,
		Status:         models.MemberStatusActive,
	}

	lookup := new(testutil.MockMembershipService)
	lookup.On("GetMembership", mock.Anything, orgID, userID).Return(member, nil)

	return orgTestApp{
		handler: newApp(method, path, h,
			middleware.Auth(jwtSvc),
			middleware.OrganizationMember(lookup, zap.NewNop()),
		),
		token:   generateTestToken(t, jwtSvc, userID, "member@example.com"),
		userID:  userID,
		orgID:   orgID,
		member:  member,
	}
}

func (a orgTestApp) path(suffix string) string {
	return "/organizations/" + a.orgID.String() + suffix
}

func (a orgTestApp) do(method, suffix string, body interface{}) *httptest.ResponseRecorder {
	return doRequest(a.handler, method, a.path(suffix), a.token, body)
}

func doRequest(app http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		jsonBody, _ := json.Marshal(b)
		reader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func newEventPublisher() *testutil.MockEventPublisher {
	events := new(testutil.MockEventPublisher)
	events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(true).Maybe()
	return events
}

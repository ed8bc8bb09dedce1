package middleware

import (
	"net/http"
	"strings"

	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
)

// TokenValidator is the part of the JWT service the middleware needs.
type TokenValidator interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}

// Auth accepts "Bearer <access token>" and stores the caller's id, email and
// global role on the context. Refresh tokens are not accepted here.
func Auth(tokens TokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			abort(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, claims.Role)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if email, ok := c.Get(UserEmailKey); ok {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}

// GetUserRole returns the caller's global role from the access token.
func GetUserRole(c *drift.Context) string {
	if role, ok := c.Get(UserRoleKey); ok {
		if r, ok := role.(string); ok {
			return r
		}
	}
	return ""
}

func abort(c *drift.Context, status int, message string) {
	_ = c.JSON(status, dto.NewResponse(status, message, nil))
	c.Abort()
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type AuthHandler struct {
	userService  UserServiceInterface
	tokenService TokenServiceInterface
	jwtService   JWTServiceInterface
	log          *zap.Logger
}

func NewAuthHandler(
	userService UserServiceInterface,
	tokenService TokenServiceInterface,
	jwtService JWTServiceInterface,
	log *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
		jwtService:   jwtService,
		log:          log,
	}
}

func (h *AuthHandler) Register(c *drift.Context) {
	var req dto.RegisterRequest
	if !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, org, err := h.userService.Register(ctx, services.RegisterInput{
		Email:            req.Email,
		Name:             req.Name,
		Password:         req.Password,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	tokens, err := h.issueTokens(ctx, user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("organization_id", org.ID.String()),
	)

	respond(c, http.StatusCreated, "registration successful", dto.AuthResponse{
		User:          user,
		Organization:  org,
		TokenResponse: *tokens,
	})
}

func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	tokens, err := h.issueTokens(ctx, user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "login successful", dto.AuthResponse{
		User:          user,
		TokenResponse: *tokens,
	})
}

// RefreshToken exchanges a refresh token for a new pair. The presented token
// is consumed, so replaying it fails.
func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if !bind(c, &req) {
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	tokenPair, err := h.jwtService.GenerateTokenPair(user.ID, user.Email, user.GlobalRole)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	ownerID, err := h.tokenService.RotateRefreshToken(ctx,
		services.HashToken(req.RefreshToken), services.HashToken(tokenPair.RefreshToken), expiresAt)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if ownerID != userID {
		_ = h.tokenService.RevokeRefreshToken(ctx, services.HashToken(tokenPair.RefreshToken))
		fail(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	respond(c, http.StatusOK, "token refreshed", dto.TokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if !bind(c, &req) {
		return
	}

	if err := h.tokenService.RevokeRefreshToken(c.Request.Context(), services.HashToken(req.RefreshToken)); err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "all sessions logged out", nil)
}

func (h *AuthHandler) issueTokens(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	tokenPair, err := h.jwtService.GenerateTokenPair(user.ID, user.Email, user.GlobalRole)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(h.jwtService.RefreshExpiry())
	if err := h.tokenService.StoreRefreshToken(ctx, user.ID, services.HashToken(tokenPair.RefreshToken), expiresAt); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

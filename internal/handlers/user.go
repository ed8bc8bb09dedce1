package handlers

import (
	"net/http"

	"github.com/dimitrije/orbit-api/internal/middleware"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService UserServiceInterface
	log         *zap.Logger
}

func NewUserHandler(userService UserServiceInterface, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "user retrieved", user)
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req dto.UpdateProfileRequest
	if !bind(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "profile updated", user)
}

func (h *UserHandler) ChangePassword(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req dto.ChangePasswordRequest
	if !bind(c, &req) {
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "password changed", nil)
}

func (h *UserHandler) ListOrganizations(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	memberships, err := h.userService.ListMemberships(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "organizations retrieved", memberships)
}

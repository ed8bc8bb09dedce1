package dto

import "github.com/dimitrije/orbit-api/internal/models"

type RegisterRequest struct {
	Email            string `json:"email" validate:"required,email,max=255"`
	Name             string `json:"name" validate:"required,min=1,max=100"`
	Password         string `json:"password" validate:"required,min=8,max=72"`
	OrganizationName string `json:"organization_name" validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthResponse struct {
	User         *models.User         `json:"user"`
	Organization *models.Organization `json:"organization,omitempty"`
	TokenResponse
}

package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
)

// LoginRequest captures the owner credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token pair and owner produced by a successful login.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Owner        *OwnerDTO `json:"owner"`
}

// RefreshRequest carries the expired access token plus the refresh token it
// was issued with.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse returns the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UpdateAccountRequest updates owner profile fields. CurrentPassword is always
// required; NewPassword is optional.
type UpdateAccountRequest struct {
	Username        *string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	CurrentPassword string  `json:"current_password" validate:"required"`
	NewPassword     *string `json:"new_password,omitempty" validate:"omitempty,min=8"`
}

// OwnerDTO is the API-facing owner shape, never carrying the password hash.
type OwnerDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// FromModel maps a stored owner onto the API shape.
func FromModel(owner *models.Owner) *OwnerDTO {
	if owner == nil {
		return nil
	}
	return &OwnerDTO{
		ID:          owner.ID,
		Username:    owner.Username,
		FirstName:   owner.FirstName,
		LastName:    owner.LastName,
		Email:       owner.Email,
		LastLoginAt: owner.LastLoginAt,
	}
}

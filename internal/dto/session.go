package dto

import (
	"time"

	"github.com/noah-isme/buspass-portal/internal/models"
)

// LoginRequest carries portal sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse describes an opened portal session.
type LoginResponse struct {
	SessionID string           `json:"session_id"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      models.Principal `json:"user"`
}

package repository

import (
	"context"
	"net/http"
	"strings"

	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

// AuthRepository exchanges user credentials for a backend identity.
type AuthRepository struct {
	client *BackendClient
}

// NewAuthRepository constructs an auth repository.
func NewAuthRepository(client *BackendClient) *AuthRepository {
	return &AuthRepository{client: client}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    models.ID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
	Token string    `json:"token"`
}

// Login authenticates against the backend and returns the resulting principal.
func (r *AuthRepository) Login(ctx context.Context, email, password string) (*models.Principal, error) {
	var resp loginResponse
	found, err := r.client.do(ctx, call{
		method: http.MethodPost,
		route:  "/auth/login",
		path:   "/auth/login",
		body:   loginRequest{Email: strings.TrimSpace(email), Password: password},
	}, &resp)
	if err != nil {
		if status := StatusCodeOf(err); status == http.StatusBadRequest || status == http.StatusNotFound {
			return nil, appErrors.WrapAs(err, appErrors.ErrUnauthorized, "invalid email or password")
		}
		return nil, err
	}
	if !found || resp.Token == "" || resp.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid email or password")
	}
	role, ok := models.ParseRole(resp.Role)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account role is not supported")
	}
	return &models.Principal{
		ID:         resp.ID,
		Name:       resp.Name,
		Email:      resp.Email,
		Role:       role,
		Credential: resp.Token,
	}, nil
}

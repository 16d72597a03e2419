package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

type authenticator interface {
	Login(ctx context.Context, email, password string) (*models.Principal, error)
}

type sessionStore interface {
	Save(ctx context.Context, sessionID string, p models.Principal, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*models.Principal, error)
	Delete(ctx context.Context, sessionID string) error
}

// SessionService establishes the session context: it logs a principal in,
// keeps it for the session's lifetime, and discards it on logout.
type SessionService struct {
	auth      authenticator
	store     sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	ttl       time.Duration
	now       func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(auth authenticator, store sessionStore, validate *validator.Validate, logger *zap.Logger, ttl time.Duration) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionService{auth: auth, store: store, validator: validate, logger: logger, ttl: ttl, now: time.Now}
}

// Login authenticates against the backend and opens a portal session.
func (s *SessionService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	principal, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	ttl := s.sessionTTL(principal.Credential)
	if ttl <= 0 {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "credential already expired")
	}

	sessionID := uuid.NewString()
	if err := s.store.Save(ctx, sessionID, *principal, ttl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open session")
	}

	s.logger.Info("session opened",
		zap.String("principal", principal.ID.String()),
		zap.String("role", string(principal.Role)),
	)

	return &dto.LoginResponse{
		SessionID: sessionID,
		ExpiresAt: s.now().Add(ttl).UTC(),
		User:      *principal,
	}, nil
}

// Principal returns the principal bound to a session.
func (s *SessionService) Principal(ctx context.Context, sessionID string) (*models.Principal, error) {
	principal, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, appErrors.ErrSessionMiss) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return principal, nil
}

// Logout discards the session.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close session")
	}
	return nil
}

// sessionTTL caps the configured TTL at the credential's own expiry when the
// credential is a JWT. The portal cannot verify the backend's signature.
func (s *SessionService) sessionTTL(credential string) time.Duration {
	ttl := s.ttl
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, &claims); err != nil {
		return ttl
	}
	if claims.ExpiresAt == nil {
		return ttl
	}
	if remaining := claims.ExpiresAt.Time.Sub(s.now()); remaining < ttl {
		return remaining
	}
	return ttl
}

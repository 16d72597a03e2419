package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

const sessionKeyPrefix = "buspass:session:"

// SessionRepository stores portal sessions in Redis.
type SessionRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{client: client, logger: logger}
}

// sessionRecord keeps the credential, which Principal never serialises.
type sessionRecord struct {
	ID         models.ID       `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       models.UserRole `json:"role"`
	Credential string          `json:"credential"`
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Save stores the principal under the session id with the given TTL.
func (r *SessionRepository) Save(ctx context.Context, sessionID string, p models.Principal, ttl time.Duration) error {
	if r.client == nil {
		return appErrors.Clone(appErrors.ErrInternal, "session store unavailable")
	}
	payload, err := json.Marshal(sessionRecord{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Role:       p.Role,
		Credential: p.Credential,
	})
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sessionID, err)
	}
	if err := r.client.Set(ctx, sessionKey(sessionID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Get loads a principal; a missing or expired session yields ErrSessionMiss.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*models.Principal, error) {
	if r.client == nil || sessionID == "" {
		return nil, appErrors.ErrSessionMiss
	}
	raw, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrSessionMiss
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		r.logger.Warn("discarding unreadable session", zap.Error(err))
		_ = r.client.Del(ctx, sessionKey(sessionID)).Err()
		return nil, appErrors.ErrSessionMiss
	}
	return &models.Principal{
		ID:         rec.ID,
		Name:       rec.Name,
		Email:      rec.Email,
		Role:       rec.Role,
		Credential: rec.Credential,
	}, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if r.client == nil || sessionID == "" {
		return nil
	}
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Ping reports whether the session store is reachable.
func (r *SessionRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return appErrors.Clone(appErrors.ErrInternal, "session store unavailable")
	}
	return r.client.Ping(ctx).Err()
}

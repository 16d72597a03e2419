package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
	"github.com/noah-isme/buspass-portal/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing the session principal.
	ContextUserKey = "currentUser"
	// ContextSessionKey is the gin context key storing the session id.
	ContextSessionKey = "sessionID"
	// SessionHeader lets non-browser clients pass the session id without a cookie.
	SessionHeader = "X-Session-ID"
)

type principalLoader interface {
	Principal(ctx context.Context, sessionID string) (*models.Principal, error)
}

// Session resolves the portal session from the cookie, the session header or
// a bearer token and stores the principal on the context.
func Session(loader principalLoader, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := SessionID(c, cookieName)
		if sessionID == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		principal, err := loader.Principal(c.Request.Context(), sessionID)
		if err != nil {
			if appErrors.HasCode(err, appErrors.ErrSessionMiss.Code) {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "session expired, please sign in again"))
			} else {
				response.Error(c, err)
			}
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, sessionID)
		c.Set(ContextUserKey, principal)
		c.Next()
	}
}

// SessionID extracts the session id from the request.
func SessionID(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(c.GetHeader(SessionHeader)); v != "" {
		return v
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

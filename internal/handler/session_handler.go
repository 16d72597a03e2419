package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
	"github.com/noah-isme/buspass-portal/pkg/response"
)

// SessionService is the subset of the session service used by the handler.
type SessionService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, sessionID string) error
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SessionHandler opens and closes portal sessions.
type SessionHandler struct {
	service  SessionService
	cookie   CookieConfig
	onLogout func(models.ID)
}

// NewSessionHandler creates a new handler. onLogout may be nil.
func NewSessionHandler(svc SessionService, cookie CookieConfig, onLogout func(models.ID)) *SessionHandler {
	return &SessionHandler{service: svc, cookie: cookie, onLogout: onLogout}
}

// Login godoc
// @Summary Sign in
// @Description Authenticate against the bus pass service and open a portal session
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *SessionHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	maxAge := int(time.Until(res.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, res.SessionID, maxAge, "/", "", h.cookie.Secure, true)
	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Sign out
// @Description Discard the current portal session
// @Tags Session
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), sessionIDFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	if principal := principalFromContext(c); principal != nil && h.onLogout != nil {
		h.onLogout(principal.ID)
	}
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	response.NoContent(c)
}

// Me godoc
// @Summary Current principal
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me [get]
func (h *SessionHandler) Me(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, principal, nil, map[string]interface{}{
		"canRaiseSOS": principal.CanRaiseSOS(),
	})
}

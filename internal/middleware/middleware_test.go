package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

type loaderStub map[string]models.Principal

func (s loaderStub) Principal(ctx context.Context, sessionID string) (*models.Principal, error) {
	p, ok := s[sessionID]
	if !ok {
		return nil, appErrors.ErrSessionMiss
	}
	return &p, nil
}

func newRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	loader := loaderStub{
		"student-session": {ID: "7", Role: models.RoleStudent, Credential: "t"},
		"admin-session":   {ID: "1", Role: models.RoleAdmin, Credential: "t"},
	}
	r.GET("/guarded", Session(loader, "buspass_session"), RequireRoles(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestSessionMiddleware(t *testing.T) {
	r := newRouter(models.RoleStudent, models.RoleUser)

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{name: "no session", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "unknown session", setup: func(req *http.Request) { req.Header.Set(SessionHeader, "nope") }, status: http.StatusUnauthorized},
		{name: "cookie", setup: func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "buspass_session", Value: "student-session"})
		}, status: http.StatusOK},
		{name: "header", setup: func(req *http.Request) { req.Header.Set(SessionHeader, "student-session") }, status: http.StatusOK},
		{name: "bearer", setup: func(req *http.Request) { req.Header.Set("Authorization", "Bearer student-session") }, status: http.StatusOK},
		{name: "wrong role", setup: func(req *http.Request) { req.Header.Set(SessionHeader, "admin-session") }, status: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRBACWithoutPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

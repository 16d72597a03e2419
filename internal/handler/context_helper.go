package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/buspass-portal/internal/middleware"
	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

func principalFromContext(c *gin.Context) *models.Principal {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	principal, ok := value.(*models.Principal)
	if !ok {
		return nil
	}
	return principal
}

func sessionIDFromContext(c *gin.Context) string {
	return c.GetString(middleware.ContextSessionKey)
}

func parseIDParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

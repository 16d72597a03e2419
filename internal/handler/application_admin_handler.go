package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
	"github.com/noah-isme/buspass-portal/pkg/response"
)

// ApplicationReviewer is the subset of the review service used by the handler.
type ApplicationReviewer interface {
	List(ctx context.Context, p models.Principal, filter dto.ApplicationFilter) (*dto.ApplicationListResponse, error)
	Review(ctx context.Context, p models.Principal, id int64, req dto.UpdateApplicationStatusRequest) (*dto.ApplicationListResponse, error)
}

// ApplicationAdminHandler serves the administrator application review.
type ApplicationAdminHandler struct {
	service ApplicationReviewer
}

// NewApplicationAdminHandler creates a new handler.
func NewApplicationAdminHandler(svc ApplicationReviewer) *ApplicationAdminHandler {
	return &ApplicationAdminHandler{service: svc}
}

// List godoc
// @Summary List pass applications
// @Tags Admin Applications
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/applications [get]
func (h *ApplicationAdminHandler) List(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter dto.ApplicationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	resp, err := h.service.List(c.Request.Context(), *principal, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// UpdateStatus godoc
// @Summary Approve or reject an application
// @Tags Admin Applications
// @Accept json
// @Produce json
// @Param id path int true "Application ID"
// @Param payload body dto.UpdateApplicationStatusRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/applications/{id}/status [put]
func (h *ApplicationAdminHandler) UpdateStatus(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	resp, err := h.service.Review(c.Request.Context(), *principal, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

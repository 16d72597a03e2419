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

// SOSRaiser is the subset of the SOS service used by the handler.
type SOSRaiser interface {
	RaiseReported(ctx context.Context, p models.Principal, req dto.SendAlertRequest) (*models.SosAlert, error)
}

// SOSHandler accepts emergency alerts from riders.
type SOSHandler struct {
	service SOSRaiser
}

// NewSOSHandler creates a new handler.
func NewSOSHandler(svc SOSRaiser) *SOSHandler {
	return &SOSHandler{service: svc}
}

// Send godoc
// @Summary Raise an SOS alert
// @Description Send an emergency alert with the location the browser acquired
// @Tags SOS
// @Accept json
// @Produce json
// @Param payload body dto.SendAlertRequest true "Alert payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /sos/alerts [post]
func (h *SOSHandler) Send(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SendAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid alert payload"))
		return
	}
	alert, err := h.service.RaiseReported(c.Request.Context(), *principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.AlertView{SosAlert: *alert, MapURL: alert.MapURL()})
}

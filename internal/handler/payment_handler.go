package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/internal/service"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
	"github.com/noah-isme/buspass-portal/pkg/response"
)

// PaymentCoordinator is the subset of the payment service used by the handler.
type PaymentCoordinator interface {
	CreateOrder(ctx context.Context, p models.Principal, applicationID int64) (*models.OrderHandle, error)
	VerifyPayment(ctx context.Context, p models.Principal, applicationID int64, result models.GatewayResult) (*service.PaymentOutcome, error)
}

// PaymentHandler exposes the two server legs of the payment round trip. The
// gateway widget itself runs in the browser between them.
type PaymentHandler struct {
	service PaymentCoordinator
}

// NewPaymentHandler creates a new handler.
func NewPaymentHandler(svc PaymentCoordinator) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// CreateOrder godoc
// @Summary Create payment order
// @Description Open a gateway order for the caller's approved, unpaid application
// @Tags Payment
// @Accept json
// @Produce json
// @Param payload body dto.CreateOrderRequest false "Order payload"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /pass/payment/order [post]
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid order payload"))
			return
		}
	}
	if req.ApplicationID < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid applicationId"))
		return
	}
	order, err := h.service.CreateOrder(c.Request.Context(), *principal, req.ApplicationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

// Verify godoc
// @Summary Verify payment
// @Description Relay the gateway signature fields for verification and return the refreshed standing
// @Tags Payment
// @Accept json
// @Produce json
// @Param payload body dto.VerifyPaymentRequest true "Gateway result"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /pass/payment/verify [post]
func (h *PaymentHandler) Verify(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}
	outcome, err := h.service.VerifyPayment(c.Request.Context(), *principal, req.ApplicationID, models.GatewayResult{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

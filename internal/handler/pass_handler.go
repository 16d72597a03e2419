package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/internal/service"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
	"github.com/noah-isme/buspass-portal/pkg/response"
)

// PassLifecycle is the subset of the lifecycle service used by the handler.
type PassLifecycle interface {
	ResolveStanding(ctx context.Context, p models.Principal) (*models.Standing, error)
	Apply(ctx context.Context, p models.Principal, req dto.SubmitApplicationRequest) (*models.Application, error)
	Describe(p models.Principal, standing models.Standing) dto.StandingResponse
	Clock(pass models.Pass, tick time.Duration, onTick func(models.Countdown)) *service.ExpiryClock
}

// PassHandler serves the pass standing, application and countdown views.
type PassHandler struct {
	service PassLifecycle
	tick    time.Duration
}

// NewPassHandler creates a new handler ticking countdown streams every tick.
func NewPassHandler(svc PassLifecycle, tick time.Duration) *PassHandler {
	return &PassHandler{service: svc, tick: tick}
}

// Standing godoc
// @Summary Current pass standing
// @Description Resolve the caller's pass standing from the current pass and latest application
// @Tags Pass
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /pass/standing [get]
func (h *PassHandler) Standing(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	standing, err := h.service.ResolveStanding(c.Request.Context(), *principal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.service.Describe(*principal, *standing), nil)
}

// Apply godoc
// @Summary Apply for a pass
// @Description Submit a pass application when the current standing allows a new one
// @Tags Pass
// @Accept json
// @Produce json
// @Param payload body dto.SubmitApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /pass/applications [post]
func (h *PassHandler) Apply(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}
	app, err := h.service.Apply(c.Request.Context(), *principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// Countdown godoc
// @Summary Pass countdown
// @Description Remaining validity of the caller's pass, computed from its end date
// @Tags Pass
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pass/countdown [get]
func (h *PassHandler) Countdown(c *gin.Context) {
	clock, err := h.clockFor(c, nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clock.Snapshot(), nil)
}

// CountdownStream godoc
// @Summary Live pass countdown
// @Description Server-sent countdown events until the client disconnects
// @Tags Pass
// @Produce text/event-stream
// @Success 200 {string} string "countdown events"
// @Failure 404 {object} response.Envelope
// @Router /pass/countdown/stream [get]
func (h *PassHandler) CountdownStream(c *gin.Context) {
	events := make(chan models.Countdown, 1)
	clock, err := h.clockFor(c, func(cd models.Countdown) { latest(events, cd) })
	if err != nil {
		response.Error(c, err)
		return
	}

	clock.Start(c.Request.Context())
	defer clock.Stop()
	streamEvents(c, "countdown", events)
}

func (h *PassHandler) clockFor(c *gin.Context, onTick func(models.Countdown)) (*service.ExpiryClock, error) {
	principal := principalFromContext(c)
	if principal == nil {
		return nil, appErrors.ErrUnauthorized
	}
	standing, err := h.service.ResolveStanding(c.Request.Context(), *principal)
	if err != nil {
		return nil, err
	}
	if standing.Pass == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no pass has been issued yet")
	}
	return h.service.Clock(*standing.Pass, h.tick, onTick), nil
}

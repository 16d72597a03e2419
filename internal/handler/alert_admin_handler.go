package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/internal/service"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
	"github.com/noah-isme/buspass-portal/pkg/response"
)

// AlertMonitors hands out alert monitors to administrators.
type AlertMonitors interface {
	Shared(ctx context.Context, p models.Principal, force bool) (*service.AlertMonitor, error)
	NewMonitor(p models.Principal) (*service.AlertMonitor, error)
}

// AlertAdminHandler serves the administrator alert view.
type AlertAdminHandler struct {
	monitors AlertMonitors
}

// NewAlertAdminHandler creates a new handler.
func NewAlertAdminHandler(monitors AlertMonitors) *AlertAdminHandler {
	return &AlertAdminHandler{monitors: monitors}
}

// List godoc
// @Summary List SOS alerts
// @Description Newest-first alerts, paginated over the last fetched list. refresh=true forces a refetch.
// @Tags Admin SOS
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param refresh query bool false "Force a refetch"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /admin/sos/alerts [get]
func (h *AlertAdminHandler) List(c *gin.Context) {
	monitor, ok := h.sharedMonitor(c, isTrue(c.Query("refresh")))
	if !ok {
		return
	}
	h.respondPage(c, monitor, queryInt(c, "page", 1))
}

// ActiveCount godoc
// @Summary Active alert count
// @Tags Admin SOS
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/sos/active-count [get]
func (h *AlertAdminHandler) ActiveCount(c *gin.Context) {
	monitor, ok := h.sharedMonitor(c, false)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"activeCount": monitor.ActiveCount()}, nil)
}

// Resolve godoc
// @Summary Resolve an SOS alert
// @Description Resolve an alert and return the first page of the refetched list
// @Tags Admin SOS
// @Produce json
// @Param id path int true "Alert ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /admin/sos/alerts/{id}/resolve [post]
func (h *AlertAdminHandler) Resolve(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	monitor, ok := h.sharedMonitor(c, false)
	if !ok {
		return
	}
	if err := monitor.Resolve(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	h.respondPage(c, monitor, queryInt(c, "page", 1))
}

// Stream godoc
// @Summary Live SOS alert feed
// @Description Polls the alert list while the connection stays open and pushes each refresh
// @Tags Admin SOS
// @Produce text/event-stream
// @Success 200 {string} string "alert snapshots"
// @Router /admin/sos/alerts/stream [get]
func (h *AlertAdminHandler) Stream(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	monitor, err := h.monitors.NewMonitor(*principal)
	if err != nil {
		response.Error(c, err)
		return
	}

	events := make(chan service.MonitorSnapshot, 1)
	monitor.Start(c.Request.Context(), func(snap service.MonitorSnapshot) { latest(events, snap) })
	defer monitor.Stop()
	streamEvents(c, "alerts", events)
}

func (h *AlertAdminHandler) sharedMonitor(c *gin.Context, force bool) (*service.AlertMonitor, bool) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	monitor, err := h.monitors.Shared(c.Request.Context(), *principal, force)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return monitor, true
}

func (h *AlertAdminHandler) respondPage(c *gin.Context, monitor *service.AlertMonitor, n int) {
	page := monitor.Page(n)
	resp := dto.AlertPageResponse{
		Alerts:      dto.NewAlertViews(page.Alerts),
		ActiveCount: page.ActiveCount,
		Pagination:  page.Pagination,
		RefreshedAt: page.RefreshedAt,
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

func isTrue(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

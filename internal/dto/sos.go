package dto

import (
	"time"

	"github.com/noah-isme/buspass-portal/internal/models"
)

// SendAlertRequest raises an SOS alert from a browser-acquired position.
// A missing location carries the reason the browser could not acquire one.
type SendAlertRequest struct {
	Latitude      *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Accuracy      float64  `json:"accuracy" validate:"omitempty,gte=0"`
	LocationError string   `json:"locationError" validate:"omitempty,oneof=PERMISSION_DENIED UNAVAILABLE TIMEOUT UNKNOWN"`
	Message       string   `json:"message"`
}

// AlertPageResponse is one page of the administrator alert view.
type AlertPageResponse struct {
	Alerts      []AlertView       `json:"alerts"`
	ActiveCount int               `json:"activeCount"`
	Pagination  models.Pagination `json:"pagination"`
	RefreshedAt time.Time         `json:"refreshedAt"`
}

// AlertView is an alert with derived display fields.
type AlertView struct {
	models.SosAlert
	MapURL string `json:"mapUrl,omitempty"`
}

// NewAlertViews decorates alerts for display.
func NewAlertViews(alerts []models.SosAlert) []AlertView {
	views := make([]AlertView, 0, len(alerts))
	for _, alert := range alerts {
		views = append(views, AlertView{SosAlert: alert, MapURL: alert.MapURL()})
	}
	return views
}

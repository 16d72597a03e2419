package dto

import (
	"github.com/noah-isme/buspass-portal/internal/models"
)

// SubmitApplicationRequest is the payload for applying for a pass.
type SubmitApplicationRequest struct {
	PassType    models.PassType      `json:"passType" validate:"required,oneof=MONTHLY QUARTERLY YEARLY"`
	Source      string               `json:"source" validate:"omitempty,max=120"`
	Destination string               `json:"destination" validate:"omitempty,max=120"`
	Documents   []models.DocumentRef `json:"documents" validate:"required,min=1,dive"`
}

// UpdateApplicationStatusRequest is an administrator's decision on an application.
type UpdateApplicationStatusRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

// ApplicationFilter narrows the administrator application list.
type ApplicationFilter struct {
	Status models.ApplicationStatus `form:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
}

// StandingResponse is the standing enriched with what the pass view renders next to it.
type StandingResponse struct {
	State         models.StandingState `json:"state"`
	Pass          *models.Pass         `json:"pass,omitempty"`
	Application   *models.Application  `json:"application,omitempty"`
	CanApply      bool                 `json:"canApply"`
	CanPay        bool                 `json:"canPay"`
	EstimatedFare *FareEstimate        `json:"estimatedFare,omitempty"`
	Countdown     *models.Countdown    `json:"countdown,omitempty"`
	Notice        *models.ExpiryNotice `json:"notice,omitempty"`
	Route         *models.RouteScope   `json:"route,omitempty"`
}

// FareEstimate is the published price for a pass type.
type FareEstimate struct {
	PassType models.PassType `json:"passType"`
	Amount   float64         `json:"amount"`
	Currency string          `json:"currency"`
}

// ApplicationListResponse pairs an application page with status counts.
type ApplicationListResponse struct {
	Applications []models.Application     `json:"applications"`
	Counts       models.ApplicationCounts `json:"counts"`
}

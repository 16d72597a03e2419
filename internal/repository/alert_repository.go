package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/noah-isme/buspass-portal/internal/models"
)

// AlertRepository raises, lists and resolves SOS alerts through the backend.
type AlertRepository struct {
	client *BackendClient
}

// NewAlertRepository constructs an alert repository.
func NewAlertRepository(client *BackendClient) *AlertRepository {
	return &AlertRepository{client: client}
}

// NewAlert is the payload for raising an SOS alert.
type NewAlert struct {
	ReporterID models.ID `json:"userId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Message    string    `json:"message"`
}

// Create raises an alert. The backend assigns id, status and createdAt.
func (r *AlertRepository) Create(ctx context.Context, p models.Principal, alert NewAlert) (*models.SosAlert, error) {
	var created models.SosAlert
	found, err := r.client.do(ctx, call{
		method:     http.MethodPost,
		route:      "/sos/alerts",
		path:       "/sos/alerts",
		body:       alert,
		credential: p.Credential,
		idempotent: true,
	}, &created)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &created, nil
}

// List returns every alert visible to an administrator, in backend order.
func (r *AlertRepository) List(ctx context.Context, p models.Principal, status models.AlertStatus) ([]models.SosAlert, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}
	var alerts alertsPayload
	if _, err := r.client.do(ctx, call{
		method:     http.MethodGet,
		route:      "/sos/alerts",
		path:       "/sos/alerts",
		query:      query,
		credential: p.Credential,
	}, &alerts); err != nil {
		return nil, err
	}
	if alerts.items == nil {
		return []models.SosAlert{}, nil
	}
	return alerts.items, nil
}

// Resolve marks an alert resolved. Resolving an already resolved alert is accepted by the backend.
func (r *AlertRepository) Resolve(ctx context.Context, p models.Principal, id int64) error {
	_, err := r.client.do(ctx, call{
		method:     http.MethodPost,
		route:      "/sos/alerts/:id/resolve",
		path:       fmt.Sprintf("/sos/alerts/%d/resolve", id),
		credential: p.Credential,
	}, nil)
	return err
}

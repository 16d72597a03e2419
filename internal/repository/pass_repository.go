package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

// PassRepository reads pass state and submits applications through the backend.
type PassRepository struct {
	client *BackendClient
}

// NewPassRepository constructs a pass repository.
func NewPassRepository(client *BackendClient) *PassRepository {
	return &PassRepository{client: client}
}

// NewApplication is the submission payload for a pass application.
type NewApplication struct {
	PassType  models.PassType      `json:"passType"`
	Source    string               `json:"source,omitempty"`
	Dest      string               `json:"destination,omitempty"`
	Documents []models.DocumentRef `json:"documents"`
}

// CurrentPass returns the principal's pass, or nil when none has been issued.
func (r *PassRepository) CurrentPass(ctx context.Context, p models.Principal) (*models.Pass, error) {
	var pass models.Pass
	found, err := r.client.do(ctx, call{
		method:     http.MethodGet,
		route:      "/pass/current",
		path:       "/pass/current",
		query:      principalQuery(p),
		credential: p.Credential,
	}, &pass)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
			return nil, nil
		}
		return nil, err
	}
	if !found || pass.ID == 0 {
		return nil, nil
	}
	return &pass, nil
}

// LatestApplication returns the principal's most recent application, or nil.
// The backend may answer with a single object or with the full history.
func (r *PassRepository) LatestApplication(ctx context.Context, p models.Principal) (*models.Application, error) {
	var history applicationsPayload
	found, err := r.client.do(ctx, call{
		method:     http.MethodGet,
		route:      "/applications/latest",
		path:       "/applications/latest",
		query:      principalQuery(p),
		credential: p.Credential,
	}, &history)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound.Code) {
			return nil, nil
		}
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return models.LatestApplication(history.items), nil
}

// CreateApplication submits a new application; the backend assigns id and status.
func (r *PassRepository) CreateApplication(ctx context.Context, p models.Principal, app NewApplication) (*models.Application, error) {
	var created models.Application
	found, err := r.client.do(ctx, call{
		method:     http.MethodPost,
		route:      "/applications",
		path:       "/applications",
		query:      principalQuery(p),
		body:       app,
		credential: p.Credential,
		idempotent: true,
	}, &created)
	if err != nil {
		return nil, err
	}
	if !found || created.ID == 0 {
		return nil, nil
	}
	return &created, nil
}

// ListApplications returns every application visible to an administrator.
func (r *PassRepository) ListApplications(ctx context.Context, p models.Principal, status models.ApplicationStatus) ([]models.Application, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}
	var history applicationsPayload
	if _, err := r.client.do(ctx, call{
		method:     http.MethodGet,
		route:      "/applications",
		path:       "/applications",
		query:      query,
		credential: p.Credential,
	}, &history); err != nil {
		return nil, err
	}
	if history.items == nil {
		return []models.Application{}, nil
	}
	return history.items, nil
}

// UpdateApplicationStatus records an administrator decision on an application.
func (r *PassRepository) UpdateApplicationStatus(ctx context.Context, p models.Principal, id int64, status models.ApplicationStatus) (*models.Application, error) {
	var updated models.Application
	found, err := r.client.do(ctx, call{
		method:     http.MethodPut,
		route:      "/applications/:id/status",
		path:       fmt.Sprintf("/applications/%d/status", id),
		body:       map[string]string{"status": string(status)},
		credential: p.Credential,
	}, &updated)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &updated, nil
}

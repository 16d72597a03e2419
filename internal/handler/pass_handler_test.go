package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/internal/service"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

type fakeLifecycle struct {
	standing *models.Standing
	err      error
	applied  *dto.SubmitApplicationRequest
	applyErr error
	now      time.Time
}

func (f *fakeLifecycle) ResolveStanding(context.Context, models.Principal) (*models.Standing, error) {
	return f.standing, f.err
}

func (f *fakeLifecycle) Apply(_ context.Context, _ models.Principal, req dto.SubmitApplicationRequest) (*models.Application, error) {
	f.applied = &req
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return &models.Application{ID: 11, PassType: models.PassType(req.PassType), Status: models.ApplicationPending}, nil
}

func (f *fakeLifecycle) Describe(_ models.Principal, standing models.Standing) dto.StandingResponse {
	return dto.StandingResponse{State: standing.State, Pass: standing.Pass}
}

func (f *fakeLifecycle) Clock(pass models.Pass, _ time.Duration, onTick func(models.Countdown)) *service.ExpiryClock {
	return service.NewExpiryClock(pass.EndDate, onTick, service.ClockConfig{
		Location: time.UTC,
		Now:      func() time.Time { return f.now },
	})
}

func TestPassHandlerStandingRequiresPrincipal(t *testing.T) {
	h := NewPassHandler(&fakeLifecycle{}, time.Second)
	c, rec := newContext(http.MethodGet, "/pass/standing", nil, nil)

	h.Standing(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPassHandlerStandingMapsServiceErrors(t *testing.T) {
	h := NewPassHandler(&fakeLifecycle{err: appErrors.Clone(appErrors.ErrUnknownStanding, "")}, time.Second)
	c, rec := newContext(http.MethodGet, "/pass/standing", nil, studentPrincipal)

	h.Standing(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "UNKNOWN_STANDING", envelope.Error.Code)
}

func TestPassHandlerStandingSuccess(t *testing.T) {
	h := NewPassHandler(&fakeLifecycle{standing: &models.Standing{State: models.StandingPending}}, time.Second)
	c, rec := newContext(http.MethodGet, "/pass/standing", nil, studentPrincipal)

	h.Standing(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &body))
	assert.Equal(t, "PENDING", body.State)
}

func TestPassHandlerApplyRejectsMalformedBody(t *testing.T) {
	svc := &fakeLifecycle{}
	h := NewPassHandler(svc, time.Second)
	c, rec := newContext(http.MethodPost, "/pass/applications", "{", studentPrincipal)

	h.Apply(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.applied)
}

func TestPassHandlerApplyCreated(t *testing.T) {
	svc := &fakeLifecycle{}
	h := NewPassHandler(svc, time.Second)
	c, rec := newContext(http.MethodPost, "/pass/applications", dto.SubmitApplicationRequest{
		PassType:    "MONTHLY",
		Source:      "North Gate",
		Destination: "Library",
	}, studentPrincipal)

	h.Apply(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.applied)
	assert.Equal(t, "North Gate", svc.applied.Source)
}

func TestPassHandlerApplyPrecondition(t *testing.T) {
	h := NewPassHandler(&fakeLifecycle{applyErr: appErrors.Clone(appErrors.ErrPreconditionFailed, "an application is already pending")}, time.Second)
	c, rec := newContext(http.MethodPost, "/pass/applications", dto.SubmitApplicationRequest{PassType: "MONTHLY"}, studentPrincipal)

	h.Apply(c)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestPassHandlerCountdownWithoutPass(t *testing.T) {
	h := NewPassHandler(&fakeLifecycle{standing: &models.Standing{State: models.StandingNone}}, time.Second)
	c, rec := newContext(http.MethodGet, "/pass/countdown", nil, studentPrincipal)

	h.Countdown(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPassHandlerCountdownSnapshot(t *testing.T) {
	pass := &models.Pass{ID: 3, EndDate: models.NewDate(2024, time.March, 10), Status: models.PassActive}
	h := NewPassHandler(&fakeLifecycle{
		standing: &models.Standing{State: models.StandingActive, Pass: pass},
		now:      time.Date(2024, time.March, 8, 23, 59, 59, 0, time.UTC),
	}, time.Second)
	c, rec := newContext(http.MethodGet, "/pass/countdown", nil, studentPrincipal)

	h.Countdown(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var cd models.Countdown
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &cd))
	assert.Equal(t, int64(2), cd.Days)
	assert.False(t, cd.IsExpired)
}

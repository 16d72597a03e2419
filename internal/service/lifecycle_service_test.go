package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/internal/repository"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

var lifecycleNow = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

func newLifecycle(repo *passRepoStub, now time.Time) *LifecycleService {
	return NewLifecycleService(repo, nil, nil, LifecycleConfig{Location: time.UTC, Now: fixedClock(now)})
}

func TestResolveStandingScenarios(t *testing.T) {
	active := &models.Pass{ID: 1, ApplicationID: 10, EndDate: models.NewDate(2026, 4, 14), Status: models.PassActive}
	expired := &models.Pass{ID: 2, ApplicationID: 10, EndDate: models.NewDate(2026, 3, 1), Status: models.PassActive}

	cases := []struct {
		name  string
		pass  *models.Pass
		app   *models.Application
		state models.StandingState
	}{
		{name: "fresh user", state: models.StandingNone},
		{name: "pending", app: &models.Application{ID: 10, Status: models.ApplicationPending}, state: models.StandingPending},
		{name: "rejected", app: &models.Application{ID: 10, Status: models.ApplicationRejected}, state: models.StandingRejected},
		{name: "approved unpaid", app: &models.Application{ID: 10, Status: models.ApplicationApproved, PaymentStatus: models.PaymentUnpaid}, state: models.StandingApprovedUnpaid},
		{name: "paid without pass", app: &models.Application{ID: 10, Status: models.ApplicationApproved, PaymentStatus: models.PaymentPaid}, state: models.StandingPaidProcessing},
		{name: "active pass", pass: active, app: &models.Application{ID: 10, Status: models.ApplicationApproved, PaymentStatus: models.PaymentPaid}, state: models.StandingActive},
		{name: "expired pass alone", pass: expired, state: models.StandingExpired},
		{name: "expired pass of latest application", pass: expired, app: &models.Application{ID: 10, Status: models.ApplicationApproved, PaymentStatus: models.PaymentPaid}, state: models.StandingExpired},
		{name: "expired pass with newer application", pass: expired, app: &models.Application{ID: 11, Status: models.ApplicationPending}, state: models.StandingPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newLifecycle(&passRepoStub{pass: tc.pass, app: tc.app}, lifecycleNow)
			standing, err := svc.ResolveStanding(context.Background(), studentPrincipal)
			require.NoError(t, err)
			assert.Equal(t, tc.state, standing.State)
		})
	}
}

func TestResolveStandingQueriesPassFirst(t *testing.T) {
	repo := &passRepoStub{app: &models.Application{ID: 3, Status: models.ApplicationPending}}
	_, err := newLifecycle(repo, lifecycleNow).ResolveStanding(context.Background(), studentPrincipal)
	require.NoError(t, err)
	assert.Equal(t, []string{"pass", "application"}, repo.calls)

	repo = &passRepoStub{pass: &models.Pass{ID: 1, EndDate: models.NewDate(2026, 12, 31)}}
	_, err = newLifecycle(repo, lifecycleNow).ResolveStanding(context.Background(), studentPrincipal)
	require.NoError(t, err)
	assert.Equal(t, []string{"pass"}, repo.calls)
}

func TestResolveStandingIgnoresStoredPassStatus(t *testing.T) {
	stale := &models.Pass{ID: 1, EndDate: models.NewDate(2026, 3, 14), Status: models.PassActive}
	standing, err := newLifecycle(&passRepoStub{pass: stale}, lifecycleNow).ResolveStanding(context.Background(), studentPrincipal)
	require.NoError(t, err)
	assert.Equal(t, models.StandingExpired, standing.State)

	flagged := &models.Pass{ID: 1, EndDate: models.NewDate(2026, 3, 15), Status: models.PassExpired}
	standing, err = newLifecycle(&passRepoStub{pass: flagged}, lifecycleNow).ResolveStanding(context.Background(), studentPrincipal)
	require.NoError(t, err)
	assert.Equal(t, models.StandingActive, standing.State)
}

func TestResolveStandingBoundary(t *testing.T) {
	pass := &models.Pass{ID: 1, EndDate: models.NewDate(2026, 3, 15)}
	lastMoment := time.Date(2026, 3, 15, 23, 59, 59, int(999*time.Millisecond), time.UTC)

	standing, err := newLifecycle(&passRepoStub{pass: pass}, lastMoment).ResolveStanding(context.Background(), studentPrincipal)
	require.NoError(t, err)
	assert.Equal(t, models.StandingActive, standing.State)

	standing, err = newLifecycle(&passRepoStub{pass: pass}, lastMoment.Add(time.Millisecond)).ResolveStanding(context.Background(), studentPrincipal)
	require.NoError(t, err)
	assert.Equal(t, models.StandingExpired, standing.State)
}

func TestResolveStandingIsIdempotent(t *testing.T) {
	svc := newLifecycle(&passRepoStub{app: &models.Application{ID: 4, Status: models.ApplicationApproved, PaymentStatus: models.PaymentPaid}}, lifecycleNow)
	first, err := svc.ResolveStanding(context.Background(), studentPrincipal)
	require.NoError(t, err)
	second, err := svc.ResolveStanding(context.Background(), studentPrincipal)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveStandingUnknownCombination(t *testing.T) {
	app := &models.Application{ID: 4, Status: models.ApplicationApproved, PaymentStatus: models.PaymentStatus("REFUNDED")}
	_, err := newLifecycle(&passRepoStub{app: app}, lifecycleNow).ResolveStanding(context.Background(), studentPrincipal)
	assert.ErrorIs(t, err, appErrors.ErrUnknownStanding)
}

func TestResolveStandingTransportFailure(t *testing.T) {
	_, err := newLifecycle(&passRepoStub{passErr: transportErr}, lifecycleNow).ResolveStanding(context.Background(), studentPrincipal)
	assert.ErrorIs(t, err, appErrors.ErrTransport)

	_, err = newLifecycle(&passRepoStub{appErr: transportErr}, lifecycleNow).ResolveStanding(context.Background(), studentPrincipal)
	assert.ErrorIs(t, err, appErrors.ErrTransport)
}

func validStudentRequest() dto.SubmitApplicationRequest {
	return dto.SubmitApplicationRequest{
		PassType: models.PassTypeMonthly,
		Documents: []models.DocumentRef{
			{Kind: models.DocumentPhoto, Reference: "uploads/photo.jpg"},
			{Kind: models.DocumentStudentID, Reference: "uploads/id.jpg"},
		},
	}
}

func TestSubmitApplicationValidatesWithoutNetwork(t *testing.T) {
	repo := &passRepoStub{}
	svc := newLifecycle(repo, lifecycleNow)

	req := validStudentRequest()
	req.PassType = ""
	_, err := svc.SubmitApplication(context.Background(), studentPrincipal, req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req = validStudentRequest()
	req.PassType = "WEEKLY"
	_, err = svc.SubmitApplication(context.Background(), studentPrincipal, req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req = validStudentRequest()
	req.Documents = req.Documents[:1]
	_, err = svc.SubmitApplication(context.Background(), studentPrincipal, req)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "STUDENT_ID")

	assert.Empty(t, repo.calls)
}

func TestSubmitApplicationRequiredDocumentsDependOnRole(t *testing.T) {
	repo := &passRepoStub{}
	req := validStudentRequest()
	req.Documents = req.Documents[:1]
	req.PassType = "quarterly"

	app, err := newLifecycle(repo, lifecycleNow).SubmitApplication(context.Background(), userPrincipal, req)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.PassTypeQuarterly, repo.created[0].PassType)
}

func TestSubmitApplicationTransportBecomesSubmissionError(t *testing.T) {
	repo := &passRepoStub{createFn: func(repository.NewApplication) (*models.Application, error) { return nil, transportErr }}
	_, err := newLifecycle(repo, lifecycleNow).SubmitApplication(context.Background(), studentPrincipal, validStudentRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrSubmission)
}

func TestApplyRequiresApplicableStanding(t *testing.T) {
	repo := &passRepoStub{app: &models.Application{ID: 5, Status: models.ApplicationPending}}
	_, err := newLifecycle(repo, lifecycleNow).Apply(context.Background(), studentPrincipal, validStudentRequest())
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
	assert.NotContains(t, repo.calls, "create")

	repo = &passRepoStub{app: &models.Application{ID: 5, Status: models.ApplicationRejected}}
	app, err := newLifecycle(repo, lifecycleNow).Apply(context.Background(), studentPrincipal, validStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(99), app.ID)
}

func TestDescribeAddsFareAndCountdown(t *testing.T) {
	svc := newLifecycle(&passRepoStub{}, lifecycleNow)

	unpaid := models.Standing{State: models.StandingApprovedUnpaid, Application: &models.Application{ID: 3, PassType: models.PassTypeQuarterly}}
	resp := svc.Describe(studentPrincipal, unpaid)
	require.NotNil(t, resp.EstimatedFare)
	assert.Equal(t, 960.0, resp.EstimatedFare.Amount)
	assert.True(t, resp.CanPay)
	assert.False(t, resp.CanApply)
	assert.Nil(t, resp.Countdown)

	active := models.Standing{State: models.StandingActive, Pass: &models.Pass{ID: 1, EndDate: models.NewDate(2026, 3, 15), Source: "All Routes"}}
	resp = svc.Describe(studentPrincipal, active)
	require.NotNil(t, resp.Countdown)
	assert.Equal(t, int64(0), resp.Countdown.Days)
	assert.Equal(t, int64(14), resp.Countdown.Hours)
	assert.Equal(t, "Your pass expires today!", resp.Notice.Message)
	assert.True(t, resp.Route.Universal)
	assert.Nil(t, resp.EstimatedFare)
}

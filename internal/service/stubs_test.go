package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/internal/repository"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

var (
	studentPrincipal = models.Principal{ID: "7", Name: "Asha", Role: models.RoleStudent, Credential: "token-7"}
	userPrincipal    = models.Principal{ID: "8", Name: "Dev", Role: models.RoleUser, Credential: "token-8"}
	adminPrincipal   = models.Principal{ID: "1", Name: "Ops", Role: models.RoleAdmin, Credential: "token-1"}
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var transportErr = appErrors.WrapAs(context.DeadlineExceeded, appErrors.ErrTransport, "")

type passRepoStub struct {
	mu       sync.Mutex
	pass     *models.Pass
	app      *models.Application
	apps     []models.Application
	passErr  error
	appErr   error
	createFn func(repository.NewApplication) (*models.Application, error)
	updateFn func(id int64, status models.ApplicationStatus) (*models.Application, error)
	calls    []string
	created  []repository.NewApplication
}

func (s *passRepoStub) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *passRepoStub) CurrentPass(ctx context.Context, p models.Principal) (*models.Pass, error) {
	s.record("pass")
	if s.passErr != nil {
		return nil, s.passErr
	}
	return s.pass, nil
}

func (s *passRepoStub) LatestApplication(ctx context.Context, p models.Principal) (*models.Application, error) {
	s.record("application")
	if s.appErr != nil {
		return nil, s.appErr
	}
	return s.app, nil
}

func (s *passRepoStub) CreateApplication(ctx context.Context, p models.Principal, app repository.NewApplication) (*models.Application, error) {
	s.record("create")
	s.created = append(s.created, app)
	if s.createFn != nil {
		return s.createFn(app)
	}
	return &models.Application{ID: 99, OwnerID: p.ID, PassType: app.PassType, Status: models.ApplicationPending, PaymentStatus: models.PaymentUnpaid}, nil
}

func (s *passRepoStub) ListApplications(ctx context.Context, p models.Principal, status models.ApplicationStatus) ([]models.Application, error) {
	s.record("list")
	if s.appErr != nil {
		return nil, s.appErr
	}
	return s.apps, nil
}

func (s *passRepoStub) UpdateApplicationStatus(ctx context.Context, p models.Principal, id int64, status models.ApplicationStatus) (*models.Application, error) {
	s.record("update")
	if s.updateFn != nil {
		return s.updateFn(id, status)
	}
	for i := range s.apps {
		if s.apps[i].ID == id {
			s.apps[i].Status = status
			app := s.apps[i]
			return &app, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

type paymentRepoStub struct {
	order     *models.OrderHandle
	orderErr  error
	verifyErr error
	onVerify  func()
	orders    []int64
	verified  []models.GatewayResult
}

func (s *paymentRepoStub) CreateOrder(ctx context.Context, p models.Principal, applicationID int64) (*models.OrderHandle, error) {
	s.orders = append(s.orders, applicationID)
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	order := *s.order
	order.ApplicationID = applicationID
	return &order, nil
}

func (s *paymentRepoStub) VerifyPayment(ctx context.Context, p models.Principal, applicationID int64, result models.GatewayResult) (*models.VerifiedPayment, error) {
	s.verified = append(s.verified, result)
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	if s.onVerify != nil {
		s.onVerify()
	}
	return &models.VerifiedPayment{ApplicationID: applicationID, OrderID: result.OrderID, PaymentID: result.PaymentID}, nil
}

type widgetStub struct {
	result models.GatewayResult
	err    error
	opened []models.OrderHandle
}

func (w *widgetStub) Open(ctx context.Context, order models.OrderHandle, p models.Principal) (models.GatewayResult, error) {
	w.opened = append(w.opened, order)
	return w.result, w.err
}

type alertRepoStub struct {
	mu         sync.Mutex
	alerts     []models.SosAlert
	listErr    error
	resolveErr error
	listCalls  int
	resolved   []int64
	created    []repository.NewAlert
	createErr  error
	listGate   chan struct{}
}

func (s *alertRepoStub) List(ctx context.Context, p models.Principal, status models.AlertStatus) ([]models.SosAlert, error) {
	s.mu.Lock()
	s.listCalls++
	gate := s.listGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.SosAlert, len(s.alerts))
	copy(out, s.alerts)
	return out, nil
}

func (s *alertRepoStub) Resolve(ctx context.Context, p models.Principal, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolveErr != nil {
		return s.resolveErr
	}
	s.resolved = append(s.resolved, id)
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Status = models.AlertResolved
		}
	}
	return nil
}

func (s *alertRepoStub) Create(ctx context.Context, p models.Principal, alert repository.NewAlert) (*models.SosAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, alert)
	if s.createErr != nil {
		return nil, s.createErr
	}
	created := models.SosAlert{
		ID:         int64(len(s.alerts) + 1),
		ReporterID: alert.ReporterID,
		Latitude:   alert.Latitude,
		Longitude:  alert.Longitude,
		Message:    alert.Message,
		Status:     models.AlertActive,
		CreatedAt:  models.Timestamp{Time: time.Date(2026, 3, 1, 12, 0, len(s.alerts), 0, time.UTC)},
	}
	s.alerts = append(s.alerts, created)
	return &created, nil
}

func (s *alertRepoStub) listCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

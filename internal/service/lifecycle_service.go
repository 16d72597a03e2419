package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/internal/repository"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

type passRepository interface {
	CurrentPass(ctx context.Context, p models.Principal) (*models.Pass, error)
	LatestApplication(ctx context.Context, p models.Principal) (*models.Application, error)
	CreateApplication(ctx context.Context, p models.Principal, app repository.NewApplication) (*models.Application, error)
}

type standingMetrics interface {
	RecordStanding(state models.StandingState)
}

// LifecycleConfig tunes the Pass Lifecycle Controller.
type LifecycleConfig struct {
	Location *time.Location
	Now      func() time.Time
	Metrics  standingMetrics
}

// LifecycleService derives the principal's pass standing and submits applications.
type LifecycleService struct {
	repo      passRepository
	validator *validator.Validate
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
	metrics   standingMetrics
}

// NewLifecycleService constructs a LifecycleService.
func NewLifecycleService(repo passRepository, validate *validator.Validate, logger *zap.Logger, cfg LifecycleConfig) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LifecycleService{
		repo:      repo,
		validator: validate,
		logger:    logger,
		loc:       cfg.Location,
		now:       cfg.Now,
		metrics:   cfg.Metrics,
	}
}

// Location returns the calendar zone used for end-of-day computations.
func (s *LifecycleService) Location() *time.Location {
	return s.loc
}

// ResolveStanding queries the pass before the application. An active pass wins;
// once the pass is past its window the latest application decides, unless that
// application is the one the expired pass was issued from.
func (s *LifecycleService) ResolveStanding(ctx context.Context, p models.Principal) (*models.Standing, error) {
	pass, err := s.repo.CurrentPass(ctx, p)
	if err != nil {
		s.logger.Warn("current pass lookup failed", zap.String("principal", p.ID.String()), zap.Error(err))
		return nil, err
	}

	now := s.now()
	if pass != nil && pass.ActiveAt(now, s.loc) {
		return s.record(&models.Standing{State: models.StandingActive, Pass: pass, ResolvedAt: now}), nil
	}

	app, err := s.repo.LatestApplication(ctx, p)
	if err != nil {
		s.logger.Warn("latest application lookup failed", zap.String("principal", p.ID.String()), zap.Error(err))
		return nil, err
	}

	switch {
	case app == nil && pass == nil:
		return s.record(&models.Standing{State: models.StandingNone, ResolvedAt: now}), nil
	case app == nil:
		return s.record(&models.Standing{State: models.StandingExpired, Pass: pass, ResolvedAt: now}), nil
	case pass != nil && pass.IssuedFrom(*app):
		return s.record(&models.Standing{State: models.StandingExpired, Pass: pass, Application: app, ResolvedAt: now}), nil
	}

	state, ok := models.MapApplication(*app)
	if !ok {
		s.logger.Warn("unmappable application",
			zap.Int64("application_id", app.ID),
			zap.String("status", string(app.Status)),
			zap.String("payment_status", string(app.PaymentStatus)),
		)
		return nil, appErrors.Clone(appErrors.ErrUnknownStanding,
			fmt.Sprintf("pass status could not be determined (status %q, payment %q)", app.Status, app.PaymentStatus))
	}
	return s.record(&models.Standing{State: state, Application: app, ResolvedAt: now}), nil
}

func (s *LifecycleService) record(standing *models.Standing) *models.Standing {
	if s.metrics != nil {
		s.metrics.RecordStanding(standing.State)
	}
	return standing
}

// SubmitApplication validates locally and creates a pending application. The
// caller re-resolves standing afterwards.
func (s *LifecycleService) SubmitApplication(ctx context.Context, p models.Principal, req dto.SubmitApplicationRequest) (*models.Application, error) {
	req.PassType = models.PassType(strings.ToUpper(strings.TrimSpace(string(req.PassType))))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "pass type and required documents must be provided")
	}
	if missing := missingDocuments(p.Role, req.Documents); len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing required document: %s", strings.Join(missing, ", ")))
	}

	app, err := s.repo.CreateApplication(ctx, p, repository.NewApplication{
		PassType:  req.PassType,
		Source:    strings.TrimSpace(req.Source),
		Dest:      strings.TrimSpace(req.Destination),
		Documents: req.Documents,
	})
	if err != nil {
		s.logger.Warn("application submission failed", zap.String("principal", p.ID.String()), zap.Error(err))
		if isAuthFailure(err) {
			return nil, err
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrSubmission, "")
	}
	if app == nil {
		return nil, appErrors.Clone(appErrors.ErrSubmission, "the server did not return the new application")
	}

	s.logger.Info("application submitted", zap.Int64("application_id", app.ID), zap.String("pass_type", string(app.PassType)))
	return app, nil
}

// Apply submits an application only when the current standing allows one.
func (s *LifecycleService) Apply(ctx context.Context, p models.Principal, req dto.SubmitApplicationRequest) (*models.Application, error) {
	standing, err := s.ResolveStanding(ctx, p)
	if err != nil {
		return nil, err
	}
	if !standing.State.CanApply() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("a new application cannot be submitted while the pass is %s", standing.State))
	}
	return s.SubmitApplication(ctx, p, req)
}

// Describe enriches a standing with the fare, countdown, notice and route
// scope that the pass view shows next to it.
func (s *LifecycleService) Describe(p models.Principal, standing models.Standing) dto.StandingResponse {
	resp := dto.StandingResponse{
		State:       standing.State,
		Pass:        standing.Pass,
		Application: standing.Application,
		CanApply:    standing.State.CanApply(),
		CanPay:      standing.State.CanPay(),
	}

	if standing.State == models.StandingApprovedUnpaid && standing.Application != nil {
		resp.EstimatedFare = &dto.FareEstimate{
			PassType: standing.Application.PassType,
			Amount:   models.EstimateFare(standing.Application.PassType, p.Role),
			Currency: models.FareCurrency,
		}
	}

	if standing.Pass != nil {
		now := s.now()
		countdown := models.ComputeCountdown(standing.Pass.EndDate, now, s.loc)
		notice := models.NoticeFor(standing.Pass.EndDate, now, s.loc)
		scope := standing.Pass.Scope()
		resp.Countdown = &countdown
		resp.Notice = &notice
		resp.Route = &scope
	}
	return resp
}

func missingDocuments(role models.UserRole, docs []models.DocumentRef) []string {
	present := make(map[models.DocumentKind]bool, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Reference) != "" {
			present[models.DocumentKind(strings.ToUpper(string(doc.Kind)))] = true
		}
	}
	var missing []string
	for _, kind := range models.RequiredDocuments(role) {
		if !present[kind] {
			missing = append(missing, string(kind))
		}
	}
	return missing
}

func isAuthFailure(err error) bool {
	return appErrors.HasCode(err, appErrors.ErrUnauthorized.Code) || appErrors.HasCode(err, appErrors.ErrForbidden.Code)
}

// Clock builds an expiry clock for a pass using the controller's zone and time source.
func (s *LifecycleService) Clock(pass models.Pass, tick time.Duration, onTick func(models.Countdown)) *ExpiryClock {
	return NewExpiryClock(pass.EndDate, onTick, ClockConfig{
		Tick:     tick,
		Location: s.loc,
		Now:      s.now,
		Logger:   s.logger,
	})
}

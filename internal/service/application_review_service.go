package service

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

type applicationReviewRepository interface {
	ListApplications(ctx context.Context, p models.Principal, status models.ApplicationStatus) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, p models.Principal, id int64, status models.ApplicationStatus) (*models.Application, error)
}

// ApplicationReviewService lets administrators list and decide on applications.
type ApplicationReviewService struct {
	repo      applicationReviewRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApplicationReviewService constructs an ApplicationReviewService.
func NewApplicationReviewService(repo applicationReviewRepository, validate *validator.Validate, logger *zap.Logger) *ApplicationReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ApplicationReviewService{repo: repo, validator: validate, logger: logger}
}

// List returns applications newest first with counts computed over the whole list.
func (s *ApplicationReviewService) List(ctx context.Context, p models.Principal, filter dto.ApplicationFilter) (*dto.ApplicationListResponse, error) {
	if !p.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(filter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application filter")
	}

	apps, err := s.repo.ListApplications(ctx, p, "")
	if err != nil {
		s.logger.Warn("application list failed", zap.Error(err))
		return nil, err
	}

	ordered := make([]models.Application, len(apps))
	copy(ordered, apps)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID > ordered[j].ID })

	visible := ordered
	if filter.Status != "" {
		visible = make([]models.Application, 0, len(ordered))
		for _, app := range ordered {
			if app.Status == filter.Status {
				visible = append(visible, app)
			}
		}
	}

	return &dto.ApplicationListResponse{
		Applications: visible,
		Counts:       models.CountApplications(ordered),
	}, nil
}

// Review records an approval or rejection and refetches the list.
func (s *ApplicationReviewService) Review(ctx context.Context, p models.Principal, id int64, req dto.UpdateApplicationStatusRequest) (*dto.ApplicationListResponse, error) {
	if !p.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid application id")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status must be APPROVED or REJECTED")
	}

	if _, err := s.repo.UpdateApplicationStatus(ctx, p, id, req.Status); err != nil {
		s.logger.Warn("application review failed", zap.Int64("application_id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("application reviewed", zap.Int64("application_id", id), zap.String("status", string(req.Status)))

	return s.List(ctx, p, dto.ApplicationFilter{})
}

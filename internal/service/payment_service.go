package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

type paymentRepository interface {
	CreateOrder(ctx context.Context, p models.Principal, applicationID int64) (*models.OrderHandle, error)
	VerifyPayment(ctx context.Context, p models.Principal, applicationID int64, result models.GatewayResult) (*models.VerifiedPayment, error)
}

type standingResolver interface {
	ResolveStanding(ctx context.Context, p models.Principal) (*models.Standing, error)
}

type paymentMetrics interface {
	RecordPayment(result string)
}

// PaymentWidget is the third-party checkout overlay. Open blocks until the
// user completes or dismisses it; dismissal is a result, not an error.
type PaymentWidget interface {
	Open(ctx context.Context, order models.OrderHandle, p models.Principal) (models.GatewayResult, error)
}

// PaymentOutcome reports a finished payment round trip together with the
// standing observed afterwards.
type PaymentOutcome struct {
	Payment   *models.VerifiedPayment `json:"payment,omitempty"`
	Standing  *models.Standing        `json:"standing,omitempty"`
	Cancelled bool                    `json:"cancelled"`
}

// PaymentService coordinates create-order, the gateway widget and verification.
// It never records payment state locally: every success ends with a re-resolve.
type PaymentService struct {
	repo     paymentRepository
	standing standingResolver
	logger   *zap.Logger
	metrics  paymentMetrics
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(repo paymentRepository, standing standingResolver, logger *zap.Logger, metrics paymentMetrics) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, standing: standing, logger: logger, metrics: metrics}
}

// CreateOrder opens a gateway order. It is only allowed from APPROVED_UNPAID
// and only for the application that standing was derived from; zero selects it.
func (s *PaymentService) CreateOrder(ctx context.Context, p models.Principal, applicationID int64) (*models.OrderHandle, error) {
	standing, err := s.standing.ResolveStanding(ctx, p)
	if err != nil {
		return nil, err
	}
	if !standing.State.CanPay() || standing.Application == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment is only available for an approved, unpaid application")
	}
	if applicationID == 0 {
		applicationID = standing.Application.ID
	}
	if applicationID != standing.Application.ID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment is only available for your latest approved application")
	}

	order, err := s.repo.CreateOrder(ctx, p, applicationID)
	if err != nil {
		s.logger.Warn("payment order failed", zap.Int64("application_id", applicationID), zap.Error(err))
		s.recordPayment("order_error")
		if isAuthFailure(err) || errors.Is(err, appErrors.ErrOrder) {
			return nil, err
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrOrder, "")
	}
	s.logger.Info("payment order created", zap.Int64("application_id", applicationID), zap.String("order_id", order.OrderID))
	return order, nil
}

// VerifyPayment relays the gateway signature fields and re-resolves standing.
// A failed re-resolve does not undo a verified payment.
func (s *PaymentService) VerifyPayment(ctx context.Context, p models.Principal, applicationID int64, result models.GatewayResult) (*PaymentOutcome, error) {
	if applicationID <= 0 || !result.Complete() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment result is incomplete")
	}

	verified, err := s.repo.VerifyPayment(ctx, p, applicationID, result)
	if err != nil {
		s.logger.Warn("payment verification failed",
			zap.Int64("application_id", applicationID),
			zap.String("order_id", result.OrderID),
			zap.Error(err),
		)
		s.recordPayment("verification_error")
		return nil, err
	}
	s.recordPayment("verified")
	s.logger.Info("payment verified", zap.Int64("application_id", applicationID), zap.String("payment_id", verified.PaymentID))

	outcome := &PaymentOutcome{Payment: verified}
	standing, err := s.standing.ResolveStanding(ctx, p)
	if err != nil {
		s.logger.Warn("standing refresh after payment failed", zap.Int64("application_id", applicationID), zap.Error(err))
		return outcome, nil
	}
	outcome.Standing = standing
	return outcome, nil
}

// Pay runs the full round trip through the widget. A dismissed widget ends
// the flow without a verify call, so standing stays APPROVED_UNPAID.
func (s *PaymentService) Pay(ctx context.Context, p models.Principal, widget PaymentWidget) (*PaymentOutcome, error) {
	order, err := s.CreateOrder(ctx, p, 0)
	if err != nil {
		return nil, err
	}

	result, err := widget.Open(ctx, *order, p)
	if err != nil {
		s.recordPayment("widget_error")
		if ctx.Err() != nil {
			return &PaymentOutcome{Cancelled: true}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrOrder.Code, appErrors.ErrOrder.Status, "the payment window failed to open")
	}
	if result.Cancelled || !result.Complete() {
		s.recordPayment("cancelled")
		s.logger.Info("payment cancelled", zap.Int64("application_id", order.ApplicationID))
		return &PaymentOutcome{Cancelled: true}, nil
	}
	if result.OrderID != order.OrderID {
		return nil, appErrors.Clone(appErrors.ErrVerification, "payment result does not belong to this order")
	}

	return s.VerifyPayment(ctx, p, order.ApplicationID, result)
}

func (s *PaymentService) recordPayment(result string) {
	if s.metrics != nil {
		s.metrics.RecordPayment(result)
	}
}

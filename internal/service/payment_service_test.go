package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

func approvedUnpaidRepo() *passRepoStub {
	return &passRepoStub{app: &models.Application{ID: 12, Status: models.ApplicationApproved, PaymentStatus: models.PaymentUnpaid, PassType: models.PassTypeMonthly}}
}

func newPaymentService(passRepo *passRepoStub, payRepo *paymentRepoStub) *PaymentService {
	return NewPaymentService(payRepo, newLifecycle(passRepo, lifecycleNow), nil, nil)
}

func TestPayHappyPathReResolves(t *testing.T) {
	passRepo := approvedUnpaidRepo()
	payRepo := &paymentRepoStub{order: &models.OrderHandle{OrderID: "order_1", Amount: 40000, Currency: "INR", GatewayKey: "rzp"}}
	payRepo.onVerify = func() {
		passRepo.app = &models.Application{ID: 12, Status: models.ApplicationApproved, PaymentStatus: models.PaymentPaid}
	}
	widget := &widgetStub{result: models.GatewayResult{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"}}

	outcome, err := newPaymentService(passRepo, payRepo).Pay(context.Background(), studentPrincipal, widget)
	require.NoError(t, err)
	assert.False(t, outcome.Cancelled)
	require.NotNil(t, outcome.Payment)
	assert.Equal(t, "pay_1", outcome.Payment.PaymentID)
	require.NotNil(t, outcome.Standing)
	assert.Contains(t, []models.StandingState{models.StandingPaidProcessing, models.StandingActive}, outcome.Standing.State)
	assert.Equal(t, []int64{12}, payRepo.orders)
	require.Len(t, widget.opened, 1)
	assert.Equal(t, int64(12), widget.opened[0].ApplicationID)
}

func TestPayCancelledSkipsVerification(t *testing.T) {
	passRepo := approvedUnpaidRepo()
	payRepo := &paymentRepoStub{order: &models.OrderHandle{OrderID: "order_1"}}
	widget := &widgetStub{result: models.GatewayResult{Cancelled: true}}

	svc := newPaymentService(passRepo, payRepo)
	outcome, err := svc.Pay(context.Background(), studentPrincipal, widget)
	require.NoError(t, err)
	assert.True(t, outcome.Cancelled)
	assert.Empty(t, payRepo.verified)

	standing, err := newLifecycle(passRepo, lifecycleNow).ResolveStanding(context.Background(), studentPrincipal)
	require.NoError(t, err)
	assert.Equal(t, models.StandingApprovedUnpaid, standing.State)
}

func TestCreateOrderRequiresApprovedUnpaid(t *testing.T) {
	payRepo := &paymentRepoStub{order: &models.OrderHandle{OrderID: "order_1"}}
	pending := &passRepoStub{app: &models.Application{ID: 12, Status: models.ApplicationPending}}

	_, err := newPaymentService(pending, payRepo).CreateOrder(context.Background(), studentPrincipal, 12)
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)

	_, err = newPaymentService(approvedUnpaidRepo(), payRepo).CreateOrder(context.Background(), studentPrincipal, 11)
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
	assert.Empty(t, payRepo.orders)
}

func TestCreateOrderFailureIsOrderError(t *testing.T) {
	payRepo := &paymentRepoStub{orderErr: transportErr}
	_, err := newPaymentService(approvedUnpaidRepo(), payRepo).CreateOrder(context.Background(), studentPrincipal, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrOrder)
}

func TestVerifyFailureLeavesStandingUnpaid(t *testing.T) {
	passRepo := approvedUnpaidRepo()
	payRepo := &paymentRepoStub{
		order:     &models.OrderHandle{OrderID: "order_1"},
		verifyErr: appErrors.Clone(appErrors.ErrVerification, ""),
	}
	widget := &widgetStub{result: models.GatewayResult{OrderID: "order_1", PaymentID: "pay_1", Signature: "bad"}}

	_, err := newPaymentService(passRepo, payRepo).Pay(context.Background(), studentPrincipal, widget)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrVerification)
	assert.False(t, errors.Is(err, appErrors.ErrTransport))

	standing, err := newLifecycle(passRepo, lifecycleNow).ResolveStanding(context.Background(), studentPrincipal)
	require.NoError(t, err)
	assert.Equal(t, models.StandingApprovedUnpaid, standing.State)
}

func TestVerifyPaymentRejectsIncompleteResult(t *testing.T) {
	payRepo := &paymentRepoStub{}
	_, err := newPaymentService(approvedUnpaidRepo(), payRepo).VerifyPayment(context.Background(), studentPrincipal, 12, models.GatewayResult{OrderID: "order_1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, payRepo.verified)
}

func TestPayWidgetFailure(t *testing.T) {
	payRepo := &paymentRepoStub{order: &models.OrderHandle{OrderID: "order_1"}}
	widget := &widgetStub{err: errors.New("script blocked")}
	_, err := newPaymentService(approvedUnpaidRepo(), payRepo).Pay(context.Background(), studentPrincipal, widget)
	assert.ErrorIs(t, err, appErrors.ErrOrder)
	assert.Empty(t, payRepo.verified)
}

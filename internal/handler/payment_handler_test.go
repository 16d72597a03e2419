package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/buspass-portal/internal/dto"
	"github.com/noah-isme/buspass-portal/internal/models"
	"github.com/noah-isme/buspass-portal/internal/service"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

type fakePayments struct {
	orderAppID  int64
	orderErr    error
	verified    *models.GatewayResult
	verifyAppID int64
	verifyErr   error
}

func (f *fakePayments) CreateOrder(_ context.Context, _ models.Principal, applicationID int64) (*models.OrderHandle, error) {
	f.orderAppID = applicationID
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &models.OrderHandle{ApplicationID: 5, OrderID: "order_1", Amount: 400, Currency: "INR"}, nil
}

func (f *fakePayments) VerifyPayment(_ context.Context, _ models.Principal, applicationID int64, result models.GatewayResult) (*service.PaymentOutcome, error) {
	f.verifyAppID = applicationID
	f.verified = &result
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &service.PaymentOutcome{
		Payment:  &models.VerifiedPayment{ApplicationID: applicationID, OrderID: result.OrderID},
		Standing: &models.Standing{State: models.StandingPaidProcessing},
	}, nil
}

func TestPaymentHandlerCreateOrderWithoutBody(t *testing.T) {
	svc := &fakePayments{}
	h := NewPaymentHandler(svc)
	c, rec := newContext(http.MethodPost, "/pass/payment/order", nil, studentPrincipal)

	h.CreateOrder(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Zero(t, svc.orderAppID)
}

func TestPaymentHandlerCreateOrderForApplication(t *testing.T) {
	svc := &fakePayments{}
	h := NewPaymentHandler(svc)
	c, rec := newContext(http.MethodPost, "/pass/payment/order", dto.CreateOrderRequest{ApplicationID: 5}, studentPrincipal)

	h.CreateOrder(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(5), svc.orderAppID)
}

func TestPaymentHandlerCreateOrderPrecondition(t *testing.T) {
	h := NewPaymentHandler(&fakePayments{orderErr: appErrors.Clone(appErrors.ErrPreconditionFailed, "no approved application awaiting payment")})
	c, rec := newContext(http.MethodPost, "/pass/payment/order", nil, studentPrincipal)

	h.CreateOrder(c)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestPaymentHandlerVerifyRelaysGatewayFields(t *testing.T) {
	svc := &fakePayments{}
	h := NewPaymentHandler(svc)
	c, rec := newContext(http.MethodPost, "/pass/payment/verify", map[string]interface{}{
		"applicationId":       5,
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "sig",
	}, studentPrincipal)

	h.Verify(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.verified)
	assert.Equal(t, int64(5), svc.verifyAppID)
	assert.Equal(t, models.GatewayResult{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"}, *svc.verified)
}

func TestPaymentHandlerVerifyFailure(t *testing.T) {
	h := NewPaymentHandler(&fakePayments{verifyErr: appErrors.Clone(appErrors.ErrVerification, "")})
	c, rec := newContext(http.MethodPost, "/pass/payment/verify", map[string]interface{}{"applicationId": 5}, studentPrincipal)

	h.Verify(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VERIFICATION_ERROR", envelope.Error.Code)
}

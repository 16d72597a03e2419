package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

// PaymentRepository brokers gateway orders and signature verification through the backend.
type PaymentRepository struct {
	client *BackendClient
}

// NewPaymentRepository constructs a payment repository.
func NewPaymentRepository(client *BackendClient) *PaymentRepository {
	return &PaymentRepository{client: client}
}

type createOrderRequest struct {
	ApplicationID int64 `json:"applicationId"`
}

type verifyPaymentRequest struct {
	OrderID       string `json:"razorpay_order_id"`
	PaymentID     string `json:"razorpay_payment_id"`
	Signature     string `json:"razorpay_signature"`
	ApplicationID int64  `json:"applicationId"`
}

// CreateOrder asks the backend to open a gateway order for an approved application.
func (r *PaymentRepository) CreateOrder(ctx context.Context, p models.Principal, applicationID int64) (*models.OrderHandle, error) {
	var handle models.OrderHandle
	found, err := r.client.do(ctx, call{
		method:     http.MethodPost,
		route:      "/payment/order",
		path:       "/payment/order",
		body:       createOrderRequest{ApplicationID: applicationID},
		credential: p.Credential,
		idempotent: true,
	}, &handle)
	if err != nil {
		return nil, err
	}
	if !found || handle.OrderID == "" {
		return nil, appErrors.Clone(appErrors.ErrOrder, "payment order response was empty")
	}
	if handle.ApplicationID == 0 {
		handle.ApplicationID = applicationID
	}
	return &handle, nil
}

// VerifyPayment submits the gateway signature triple for server-side verification.
// Client errors from the backend mean the signature was rejected.
func (r *PaymentRepository) VerifyPayment(ctx context.Context, p models.Principal, applicationID int64, result models.GatewayResult) (*models.VerifiedPayment, error) {
	var verified verifiedPayload
	_, err := r.client.do(ctx, call{
		method: http.MethodPost,
		route:  "/payment/verify",
		path:   "/payment/verify",
		body: verifyPaymentRequest{
			OrderID:       result.OrderID,
			PaymentID:     result.PaymentID,
			Signature:     result.Signature,
			ApplicationID: applicationID,
		},
		credential: p.Credential,
	}, &verified)
	if err != nil {
		status := StatusCodeOf(err)
		if status >= 400 && status < 500 && status != http.StatusUnauthorized && status != http.StatusForbidden {
			return nil, appErrors.WrapAs(err, appErrors.ErrVerification, "")
		}
		return nil, err
	}
	payment := verified.VerifiedPayment
	if payment.ApplicationID == 0 {
		payment.ApplicationID = applicationID
	}
	if payment.OrderID == "" {
		payment.OrderID = result.OrderID
	}
	if payment.PaymentID == "" {
		payment.PaymentID = result.PaymentID
	}
	if payment.Message == "" {
		payment.Message = verified.text
	}
	return &payment, nil
}

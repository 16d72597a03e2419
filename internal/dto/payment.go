package dto

// CreateOrderRequest optionally names the application to pay for. When empty
// the latest approved application is used.
type CreateOrderRequest struct {
	ApplicationID int64 `json:"applicationId" validate:"omitempty,gt=0"`
}

// VerifyPaymentRequest relays the gateway result back for verification.
type VerifyPaymentRequest struct {
	ApplicationID int64  `json:"applicationId" validate:"required,gt=0"`
	OrderID       string `json:"razorpay_order_id" validate:"required"`
	PaymentID     string `json:"razorpay_payment_id" validate:"required"`
	Signature     string `json:"razorpay_signature" validate:"required"`
}

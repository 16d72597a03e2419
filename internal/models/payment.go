package models

// OrderHandle is the gateway-issued descriptor needed to open the payment widget.
type OrderHandle struct {
	ApplicationID int64   `json:"applicationId"`
	GatewayKey    string  `json:"keyId"`
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

// GatewayResult is what the payment widget hands back. Cancelled results
// carry no signature fields.
type GatewayResult struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// Complete reports whether every signature field is present.
func (r GatewayResult) Complete() bool {
	return !r.Cancelled && r.OrderID != "" && r.PaymentID != "" && r.Signature != ""
}

// VerifiedPayment is the backend acknowledgement of a settled payment.
type VerifiedPayment struct {
	ApplicationID int64     `json:"applicationId"`
	OrderID       string    `json:"orderId"`
	PaymentID     string    `json:"paymentId"`
	Message       string    `json:"message,omitempty"`
	VerifiedAt    Timestamp `json:"verifiedAt"`
}

const (
	studentDiscount = 0.20
	// FareCurrency is the currency of the fare table.
	FareCurrency = "INR"
)

var baseFares = map[PassType]float64{
	PassTypeMonthly:   500,
	PassTypeQuarterly: 1200,
	PassTypeYearly:    4000,
}

// EstimateFare is the published price for a pass type and role. The order
// handle's amount stays authoritative at payment time.
func EstimateFare(passType PassType, role UserRole) float64 {
	base, ok := baseFares[passType]
	if !ok {
		base = baseFares[PassTypeMonthly]
	}
	if role == RoleStudent {
		return base - base*studentDiscount
	}
	return base
}

package models

import "time"

// StandingState is the client's derived view of a user's pass status.
type StandingState string

const (
	StandingNone           StandingState = "NONE"
	StandingPending        StandingState = "PENDING"
	StandingRejected       StandingState = "REJECTED"
	StandingApprovedUnpaid StandingState = "APPROVED_UNPAID"
	StandingPaidProcessing StandingState = "PAID_PROCESSING"
	StandingActive         StandingState = "ACTIVE"
	StandingExpired        StandingState = "EXPIRED"
)

// CanApply reports whether a new application may be submitted from this state.
func (s StandingState) CanApply() bool {
	switch s {
	case StandingNone, StandingRejected, StandingExpired:
		return true
	}
	return false
}

// CanPay reports whether the payment round trip may start from this state.
func (s StandingState) CanPay() bool {
	return s == StandingApprovedUnpaid
}

// Transitional reports whether the state is expected to change without user action.
func (s StandingState) Transitional() bool {
	return s == StandingPaidProcessing || s == StandingPending
}

// Standing couples the derived state with the records it was derived from.
type Standing struct {
	State       StandingState `json:"state"`
	Pass        *Pass         `json:"pass,omitempty"`
	Application *Application  `json:"application,omitempty"`
	ResolvedAt  time.Time     `json:"resolvedAt"`
}

// MapApplication maps (status, paymentStatus) to a standing. The second
// return value is false for combinations the mapping does not define.
func MapApplication(app Application) (StandingState, bool) {
	payment := app.PaymentStatus
	if payment == "" {
		payment = PaymentUnpaid
	}
	switch app.Status {
	case ApplicationPending:
		return StandingPending, true
	case ApplicationRejected:
		return StandingRejected, true
	case ApplicationApproved:
		switch payment {
		case PaymentUnpaid:
			return StandingApprovedUnpaid, true
		case PaymentPaid:
			return StandingPaidProcessing, true
		}
	}
	return "", false
}

// IssuedFrom reports whether the pass was issued for the application. Passes
// without an application reference are attributed to a paid application.
func (p Pass) IssuedFrom(app Application) bool {
	if p.ApplicationID != 0 {
		return p.ApplicationID == app.ID
	}
	return app.Status == ApplicationApproved && app.PaymentStatus == PaymentPaid
}

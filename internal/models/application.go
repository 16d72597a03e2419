package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// PassType enumerates the pass durations on offer.
type PassType string

const (
	PassTypeMonthly   PassType = "MONTHLY"
	PassTypeQuarterly PassType = "QUARTERLY"
	PassTypeYearly    PassType = "YEARLY"
)

// Valid reports whether the pass type is one of the known durations.
func (t PassType) Valid() bool {
	switch t {
	case PassTypeMonthly, PassTypeQuarterly, PassTypeYearly:
		return true
	}
	return false
}

// Months is the validity length of the pass type.
func (t PassType) Months() int {
	switch t {
	case PassTypeQuarterly:
		return 3
	case PassTypeYearly:
		return 12
	default:
		return 1
	}
}

// ApplicationStatus is the admin decision on an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// PaymentStatus tracks settlement of an approved application.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

// UnmarshalJSON folds the backend's "no payment row yet" and pending payment
// markers into UNPAID. Any other unknown value is kept verbatim so the
// standing mapping can reject it.
func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = PaymentUnpaid
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch normalized := strings.ToUpper(strings.TrimSpace(raw)); normalized {
	case "", "UNPAID", "PENDING", "CREATED":
		*s = PaymentUnpaid
	default:
		*s = PaymentStatus(normalized)
	}
	return nil
}

// DocumentKind names a supporting document attached to an application.
type DocumentKind string

const (
	DocumentPhoto     DocumentKind = "PHOTO"
	DocumentIDProof   DocumentKind = "ID_PROOF"
	DocumentStudentID DocumentKind = "STUDENT_ID"
)

// RequiredDocuments lists the documents a principal must attach when applying.
func RequiredDocuments(role UserRole) []DocumentKind {
	if role == RoleStudent {
		return []DocumentKind{DocumentPhoto, DocumentStudentID}
	}
	return []DocumentKind{DocumentPhoto}
}

// DocumentRef points at an uploaded document owned by the backend.
type DocumentRef struct {
	Kind      DocumentKind `json:"kind" validate:"required"`
	Reference string       `json:"reference" validate:"required"`
}

// Application is a request for a pass, mutated only by the backend.
type Application struct {
	ID            int64             `json:"id"`
	OwnerID       ID                `json:"userId"`
	PassType      PassType          `json:"passType"`
	Status        ApplicationStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"paymentStatus"`
	Documents     []DocumentRef     `json:"submittedDocuments,omitempty"`
	OwnerName     string            `json:"userName,omitempty"`
	OwnerEmail    string            `json:"userEmail,omitempty"`
	CreatedAt     Timestamp         `json:"createdAt"`
}

// LatestApplication returns the authoritative application: the one with the highest id.
func LatestApplication(apps []Application) *Application {
	var latest *Application
	for i := range apps {
		if latest == nil || apps[i].ID > latest.ID {
			latest = &apps[i]
		}
	}
	if latest == nil {
		return nil
	}
	copy := *latest
	return &copy
}

// ApplicationCounts summarises a list of applications for the admin dashboard.
type ApplicationCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Paid     int `json:"paid"`
}

// CountApplications is a pure filter over an already fetched list.
func CountApplications(apps []Application) ApplicationCounts {
	counts := ApplicationCounts{Total: len(apps)}
	for _, app := range apps {
		switch app.Status {
		case ApplicationPending:
			counts.Pending++
		case ApplicationApproved:
			counts.Approved++
			if app.PaymentStatus == PaymentPaid {
				counts.Paid++
			}
		case ApplicationRejected:
			counts.Rejected++
		}
	}
	return counts
}

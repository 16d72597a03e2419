package models

import (
	"strings"
	"time"
)

// PassStatus is the stored status of a pass. It may lag real time and is
// never consulted for expiry decisions.
type PassStatus string

const (
	PassActive  PassStatus = "ACTIVE"
	PassExpired PassStatus = "EXPIRED"
)

// UniversalRoute is the backend's marker for network-wide passes.
const UniversalRoute = "All Routes"

// RouteScope is either a source/destination pair or the whole network.
type RouteScope struct {
	Universal   bool   `json:"universal"`
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// Pass is issued by the backend once payment is verified. Read-only here.
type Pass struct {
	ID            int64      `json:"id"`
	ApplicationID int64      `json:"applicationId,omitempty"`
	OwnerID       ID         `json:"userId,omitempty"`
	OwnerName     string     `json:"userName,omitempty"`
	PassType      PassType   `json:"passType"`
	PassNumber    string     `json:"passNumber"`
	StartDate     Date       `json:"startDate"`
	EndDate       Date       `json:"endDate"`
	Status        PassStatus `json:"status"`
	Source        string     `json:"source,omitempty"`
	Destination   string     `json:"destination,omitempty"`
}

// ValidUntil is the inclusive end of the validity window in loc.
func (p Pass) ValidUntil(loc *time.Location) time.Time {
	return p.EndDate.EndOfDay(loc)
}

// IsExpired reports whether now lies past the last millisecond of the end date.
func (p Pass) IsExpired(now time.Time, loc *time.Location) bool {
	return now.After(p.ValidUntil(loc))
}

// ActiveAt reports whether the pass covers now. Only the end date is checked.
func (p Pass) ActiveAt(now time.Time, loc *time.Location) bool {
	return !p.EndDate.IsZero() && !p.IsExpired(now, loc)
}

// EffectiveStatus derives ACTIVE/EXPIRED from the end date instead of the stored field.
func (p Pass) EffectiveStatus(now time.Time, loc *time.Location) PassStatus {
	if p.ActiveAt(now, loc) {
		return PassActive
	}
	return PassExpired
}

// IsUniversalRoute reports whether the pass grants access to every route.
func (p Pass) IsUniversalRoute() bool {
	return isUniversalEndpoint(p.Source) || isUniversalEndpoint(p.Destination)
}

// Scope returns the route scope of the pass.
func (p Pass) Scope() RouteScope {
	if p.IsUniversalRoute() {
		return RouteScope{Universal: true}
	}
	return RouteScope{Source: p.Source, Destination: p.Destination}
}

func isUniversalEndpoint(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, UniversalRoute) || strings.EqualFold(v, "ALL")
}

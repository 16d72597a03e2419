package models

import (
	"fmt"
	"sort"
	"time"
)

// AlertStatus is the lifecycle of an SOS alert.
type AlertStatus string

const (
	AlertActive   AlertStatus = "ACTIVE"
	AlertResolved AlertStatus = "RESOLVED"
)

// Coordinates is a single device location fix.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

// Valid reports whether the coordinates lie within WGS84 bounds.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

// SosAlert is an emergency alert owned by the backend.
type SosAlert struct {
	ID            int64       `json:"id"`
	ReporterID    ID          `json:"userId"`
	Latitude      float64     `json:"latitude"`
	Longitude     float64     `json:"longitude"`
	Message       string      `json:"message"`
	Status        AlertStatus `json:"status"`
	CreatedAt     Timestamp   `json:"createdAt"`
	ResolvedAt    *Timestamp  `json:"resolvedAt,omitempty"`
	ReporterName  string      `json:"userName,omitempty"`
	ReporterEmail string      `json:"userEmail,omitempty"`
	ReporterPhone string      `json:"userPhone,omitempty"`
}

// Coordinates returns the reported location.
func (a SosAlert) Coordinates() Coordinates {
	return Coordinates{Latitude: a.Latitude, Longitude: a.Longitude}
}

// HasLocation reports whether the alert carries a usable location.
func (a SosAlert) HasLocation() bool {
	return (a.Latitude != 0 || a.Longitude != 0) && a.Coordinates().Valid()
}

// MapURL links to the alert location on a public map.
func (a SosAlert) MapURL() string {
	if !a.HasLocation() {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%f,%f", a.Latitude, a.Longitude)
}

// IsActive reports whether the alert still awaits an operator.
func (a SosAlert) IsActive() bool {
	return a.Status == AlertActive
}

// SortAlertsNewestFirst returns a copy ordered by createdAt descending. Equal
// timestamps fall back to id descending so the order is total.
func SortAlertsNewestFirst(alerts []SosAlert) []SosAlert {
	sorted := make([]SosAlert, len(alerts))
	copy(sorted, alerts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return newerThan(sorted[i], sorted[j])
	})
	return sorted
}

func newerThan(a, b SosAlert) bool {
	if !a.CreatedAt.Equal(b.CreatedAt.Time) {
		return a.CreatedAt.After(b.CreatedAt.Time)
	}
	return a.ID > b.ID
}

// ActiveAlertCount is a pure filter over an already fetched list.
func ActiveAlertCount(alerts []SosAlert) int {
	count := 0
	for _, a := range alerts {
		if a.IsActive() {
			count++
		}
	}
	return count
}

// AlertAge is how long ago the alert was raised.
func AlertAge(a SosAlert, now time.Time) time.Duration {
	if a.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(a.CreatedAt.Time)
}

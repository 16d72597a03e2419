package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func alertAt(id int64, ts time.Time, status AlertStatus) SosAlert {
	return SosAlert{ID: id, CreatedAt: Timestamp{Time: ts}, Status: status}
}

func TestSortAlertsNewestFirstIsTotal(t *testing.T) {
	base := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	input := []SosAlert{
		alertAt(1, base, AlertResolved),
		alertAt(2, base.Add(time.Minute), AlertActive),
		alertAt(3, base, AlertActive),
		alertAt(4, base.Add(-time.Hour), AlertActive),
	}
	sorted := SortAlertsNewestFirst(input)

	ids := make([]int64, 0, len(sorted))
	for _, a := range sorted {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int64{2, 3, 1, 4}, ids)
	assert.Equal(t, int64(1), input[0].ID, "input must not be reordered")

	for i := 1; i < len(sorted); i++ {
		assert.True(t, newerThan(sorted[i-1], sorted[i]))
	}
}

func TestResolvingDoesNotReorder(t *testing.T) {
	base := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	alerts := SortAlertsNewestFirst([]SosAlert{
		alertAt(1, base, AlertActive),
		alertAt(2, base.Add(time.Minute), AlertActive),
		alertAt(3, base.Add(2*time.Minute), AlertActive),
	})
	resolved := make([]SosAlert, len(alerts))
	copy(resolved, alerts)
	resolved[1].Status = AlertResolved

	after := SortAlertsNewestFirst(resolved)
	for i := range alerts {
		assert.Equal(t, alerts[i].ID, after[i].ID)
	}
	assert.Equal(t, 2, ActiveAlertCount(after))
}

func TestMapURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/maps?q=12.971600,77.594600", SosAlert{Latitude: 12.9716, Longitude: 77.5946}.MapURL())
	assert.Empty(t, SosAlert{}.MapURL())
	assert.False(t, Coordinates{Latitude: 91}.Valid())
}

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassExpiryBoundary(t *testing.T) {
	loc := time.UTC
	pass := Pass{EndDate: NewDate(2026, time.March, 10)}

	lastMilli := time.Date(2026, time.March, 10, 23, 59, 59, int(999*time.Millisecond), loc)
	nextMidnight := time.Date(2026, time.March, 11, 0, 0, 0, 0, loc)

	assert.False(t, pass.IsExpired(lastMilli, loc))
	assert.True(t, pass.ActiveAt(lastMilli, loc))
	assert.True(t, pass.IsExpired(nextMidnight, loc))
	assert.Equal(t, PassExpired, pass.EffectiveStatus(nextMidnight, loc))
}

func TestPassExpiryIgnoresStoredStatus(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, loc)

	stale := Pass{Status: PassActive, EndDate: NewDate(2026, time.April, 30)}
	assert.True(t, stale.IsExpired(now, loc))

	lagging := Pass{Status: PassExpired, EndDate: NewDate(2026, time.May, 1)}
	assert.Equal(t, PassActive, lagging.EffectiveStatus(now, loc))
}

func TestPassExpiryProperty(t *testing.T) {
	loc := time.UTC
	end := NewDate(2026, time.June, 15)
	pass := Pass{EndDate: end}
	start := time.Date(2026, time.June, 14, 0, 0, 0, 0, loc)
	for offset := time.Duration(0); offset < 72*time.Hour; offset += 37 * time.Minute {
		now := start.Add(offset)
		assert.Equal(t, now.After(end.EndOfDay(loc)), pass.IsExpired(now, loc), now.String())
	}
}

func TestIsUniversalRoute(t *testing.T) {
	assert.True(t, Pass{}.IsUniversalRoute())
	assert.True(t, Pass{Source: "All Routes", Destination: "All Routes"}.IsUniversalRoute())
	assert.False(t, Pass{Source: "Main Gate", Destination: "Library"}.IsUniversalRoute())
	assert.Equal(t, RouteScope{Source: "Main Gate", Destination: "Library"}, Pass{Source: "Main Gate", Destination: "Library"}.Scope())
	assert.Equal(t, RouteScope{Universal: true}, Pass{}.Scope())
}

func TestPassDecodesBackendPayload(t *testing.T) {
	payload := `{"id":7,"applicationId":3,"userId":12,"passNumber":"BP-0007","passType":"MONTHLY",
		"startDate":"2026-01-01","endDate":"2026-02-01","status":"ACTIVE"}`
	var pass Pass
	require.NoError(t, json.Unmarshal([]byte(payload), &pass))
	assert.Equal(t, ID("12"), pass.OwnerID)
	assert.Equal(t, NewDate(2026, time.February, 1), pass.EndDate)
	assert.Equal(t, int64(3), pass.ApplicationID)

	out, err := json.Marshal(pass)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"endDate":"2026-02-01"`)
}

func TestApplicationDecodesPaymentStatusAliases(t *testing.T) {
	cases := map[string]PaymentStatus{
		`null`:       PaymentUnpaid,
		`"PENDING"`:  PaymentUnpaid,
		`"paid"`:     PaymentPaid,
		`"REFUNDED"`: "REFUNDED",
	}
	for raw, want := range cases {
		var app Application
		require.NoError(t, json.Unmarshal([]byte(`{"id":1,"status":"APPROVED","paymentStatus":`+raw+`}`), &app))
		assert.Equal(t, want, app.PaymentStatus, raw)
	}
}

func TestTimestampAcceptsZonelessValues(t *testing.T) {
	var alert SosAlert
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"createdAt":"2026-03-01T10:15:30.5"}`), &alert))
	assert.Equal(t, time.Date(2026, time.March, 1, 10, 15, 30, int(500*time.Millisecond), time.UTC), alert.CreatedAt.Time)

	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"createdAt":"2026-03-01T10:15:30+05:30"}`), &alert))
	assert.Equal(t, 4, alert.CreatedAt.UTC().Hour())
}

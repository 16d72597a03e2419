package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/buspass-portal/internal/models"
)

func TestAlertCreate(t *testing.T) {
	var payload NewAlert
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = io.WriteString(w, `{"id":5,"userId":7,"latitude":12.97,"longitude":77.59,"message":"help","status":"ACTIVE","createdAt":"2026-03-01T10:00:00"}`)
	})

	alert, err := NewAlertRepository(client).Create(context.Background(), testPrincipal, NewAlert{
		ReporterID: "7", Latitude: 12.97, Longitude: 77.59, Message: "help",
	})
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, models.ID("7"), payload.ReporterID)
	assert.Equal(t, int64(5), alert.ID)
	assert.Equal(t, models.AlertActive, alert.Status)
}

func TestAlertListAcceptsWrappedPayload(t *testing.T) {
	for _, body := range []string{
		`[{"id":1,"status":"ACTIVE"},{"id":2,"status":"RESOLVED"}]`,
		`{"data":[{"id":1,"status":"ACTIVE"},{"id":2,"status":"RESOLVED"}]}`,
	} {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		alerts, err := NewAlertRepository(client).List(context.Background(), testPrincipal, "")
		require.NoError(t, err)
		assert.Len(t, alerts, 2)
	}
}

func TestAlertListEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	alerts, err := NewAlertRepository(client).List(context.Background(), testPrincipal, models.AlertActive)
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestAlertResolve(t *testing.T) {
	var path string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = io.WriteString(w, "Alert resolved")
	})
	require.NoError(t, NewAlertRepository(client).Resolve(context.Background(), testPrincipal, 5))
	assert.Equal(t, "/sos/alerts/5/resolve", path)
}

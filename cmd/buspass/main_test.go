package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/buspass-portal/internal/models"
	appErrors "github.com/noah-isme/buspass-portal/pkg/errors"
)

func TestSessionFileRoundTripKeepsCredential(t *testing.T) {
	store := &sessionFile{path: filepath.Join(t.TempDir(), "nested", "session.json")}

	p, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, store.Save(models.Principal{ID: "7", Name: "Asha", Role: models.RoleStudent, Credential: "token-7"}))
	p, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "token-7", p.Credential)
	assert.Equal(t, models.RoleStudent, p.Role)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	p, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestTerminalWidgetCompletesPayment(t *testing.T) {
	var out bytes.Buffer
	w := newTerminalWidget(strings.NewReader("pay_1\nsig_1\n"), &out)

	res, err := w.Open(context.Background(), models.OrderHandle{OrderID: "order_1", ApplicationID: 5, Amount: 400, Currency: "INR"}, models.Principal{Name: "Asha"})

	require.NoError(t, err)
	assert.True(t, res.Complete())
	assert.Equal(t, "order_1", res.OrderID)
	assert.Contains(t, out.String(), "order_1")
}

func TestTerminalWidgetBlankInputCancels(t *testing.T) {
	w := newTerminalWidget(strings.NewReader("\n"), &bytes.Buffer{})

	res, err := w.Open(context.Background(), models.OrderHandle{OrderID: "order_1"}, models.Principal{})

	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.False(t, res.Complete())
}

func TestDocumentFlags(t *testing.T) {
	var docs documentFlags
	require.NoError(t, docs.Set("photo=uploads/1.jpg"))
	require.NoError(t, docs.Set("STUDENT_ID = uploads/2.pdf"))
	require.Error(t, docs.Set("photo"))

	require.Len(t, docs, 2)
	assert.Equal(t, models.DocumentPhoto, docs[0].Kind)
	assert.Equal(t, "uploads/2.pdf", docs[1].Reference)
}

func TestDescribePrefersPortalMessage(t *testing.T) {
	assert.Equal(t, "no pass has been issued yet", describe(appErrors.Clone(appErrors.ErrNotFound, "no pass has been issued yet")))
}

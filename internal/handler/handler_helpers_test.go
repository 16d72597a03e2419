package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/buspass-portal/internal/middleware"
	"github.com/noah-isme/buspass-portal/internal/models"
)

var (
	studentPrincipal = &models.Principal{ID: "7", Name: "Asha", Role: models.RoleStudent, Credential: "token-7"}
	adminPrincipal   = &models.Principal{ID: "1", Name: "Ops", Role: models.RoleAdmin, Credential: "token-1"}
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Meta       map[string]interface{} `json:"meta"`
	Pagination *models.Pagination     `json:"pagination"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newContext(method, target string, body interface{}, principal *models.Principal) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var payload *bytes.Reader
	switch v := body.(type) {
	case nil:
		payload = bytes.NewReader(nil)
	case string:
		payload = bytes.NewReader([]byte(v))
	default:
		raw, _ := json.Marshal(v)
		payload = bytes.NewReader(raw)
	}
	c.Request = httptest.NewRequest(method, target, payload)
	c.Request.Header.Set("Content-Type", "application/json")
	if principal != nil {
		c.Set(middleware.ContextUserKey, principal)
	}
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

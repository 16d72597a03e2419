package repository

import (
	"bytes"
	"encoding/json"

	"github.com/noah-isme/buspass-portal/internal/models"
)

// applicationsPayload accepts either a single application or an array of them.
type applicationsPayload struct {
	items []models.Application
}

func (p *applicationsPayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &p.items)
	}
	var single models.Application
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single.ID != 0 {
		p.items = []models.Application{single}
	}
	return nil
}

// alertsPayload accepts a bare array or an object wrapping it under "data".
type alertsPayload struct {
	items []models.SosAlert
}

func (p *alertsPayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &p.items)
	}
	var wrapped struct {
		Data []models.SosAlert `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	p.items = wrapped.Data
	return nil
}

// verifiedPayload accepts a structured acknowledgement or a plain-text one.
type verifiedPayload struct {
	models.VerifiedPayment
	text string
}

func (p *verifiedPayload) SetText(text string) {
	p.text = text
}

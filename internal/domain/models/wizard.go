package models

import "time"

// WizardState is the short lived server side record of one browser session.
type WizardState struct {
	SessionID     string            `json:"sessionId"`
	Otp           OtpSession        `json:"otp"`
	Pending       *BookingRequest   `json:"pending,omitempty"`
	Contact       ContactDetails    `json:"contact"`
	PlacesTokens  map[string]string `json:"placesTokens,omitempty"`
	LastBookingID string            `json:"lastBookingId,omitempty"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func NewWizardState(sessionID string) *WizardState {
	return &WizardState{
		SessionID:    sessionID,
		Otp:          OtpSession{State: OtpIdle},
		PlacesTokens: map[string]string{},
	}
}

// PlacesToken returns the autocomplete session token for field, minting one
// with newToken on first use.
func (w *WizardState) PlacesToken(field string, newToken func() string) string {
	if w.PlacesTokens == nil {
		w.PlacesTokens = map[string]string{}
	}
	if tok, ok := w.PlacesTokens[field]; ok && tok != "" {
		return tok
	}
	tok := newToken()
	w.PlacesTokens[field] = tok
	return tok
}

// ResetPlacesToken starts a new billing group once a suggestion is picked.
func (w *WizardState) ResetPlacesToken(field string) {
	delete(w.PlacesTokens, field)
}

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"dotrip/internal/domain"
)

// SendOtp asks the backend to text a code to phone (digits only).
func (c *Client) SendOtp(ctx context.Context, phone string) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/send-otp", "auth-send-otp",
		map[string]string{"mobileNumber": phone}, nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		msg := resp.Text()
		if msg == "" {
			msg = fmt.Sprintf("Failed to send OTP (%d)", resp.Status)
		}
		return domain.BackendError{Status: resp.Status, Msg: msg, Body: resp.Text()}
	}
	return nil
}

// VerifyOtp exchanges a code for an access token. The token may be named
// access_token, accessToken or token.
func (c *Client) VerifyOtp(ctx context.Context, phone, code string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/verify-otp", "auth-verify-otp",
		map[string]string{"mobileNumber": phone, "otp": strings.TrimSpace(code)}, nil)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		msg := resp.Text()
		if msg == "" {
			msg = fmt.Sprintf("OTP verification failed (%d)", resp.Status)
		}
		return "", domain.BackendError{Status: resp.Status, Msg: msg, Body: resp.Text()}
	}

	var body struct {
		AccessToken      string `json:"access_token"`
		AccessTokenCamel string `json:"accessToken"`
		Token            string `json:"token"`
	}
	_ = json.Unmarshal(resp.Body, &body)
	for _, tok := range []string{body.AccessToken, body.AccessTokenCamel, body.Token} {
		if strings.TrimSpace(tok) != "" {
			return strings.TrimSpace(tok), nil
		}
	}
	return "", domain.EmptyResponseError{Msg: "No access_token returned by /auth/verify-otp"}
}

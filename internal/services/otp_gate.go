package services

import (
	"context"
	"errors"
	"time"

	"dotrip/internal/domain"
	"dotrip/internal/domain/models"
	"dotrip/internal/metrics"
	"dotrip/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgOtpSendFailed   = "Could not send OTP. Please try again."
	msgOtpVerifyFailed = "OTP verification failed"
	msgOtpCodeRequired = "Please enter the OTP sent to your phone."
	msgOtpWaitResend   = "Please wait before requesting a new OTP."
)

// OtpGate drives models.OtpSession against the auth endpoints. Failures are
// surfaced on the session and returned; nothing is retried.
type OtpGate struct {
	Auth     AuthAPI
	Users    UserAPI
	Cooldown time.Duration
	Now      func() time.Time
	Metrics  *metrics.Metrics
}

func (g OtpGate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Send moves IDLE to SENDING and on to AWAITING_CODE (modal open, code
// cleared, cooldown started) or back to IDLE with the error.
func (g OtpGate) Send(ctx context.Context, st *models.WizardState, phone string) error {
	st.Otp.ChangePhone(phone)
	if err := st.Otp.BeginSend(phone, g.now()); err != nil {
		if errors.Is(err, models.ErrOtpCooldownActive) {
			st.Otp.Reopen(g.now())
			return domain.ValidationError{Field: "otp", Msg: msgOtpWaitResend, Err: err}
		}
		return domain.InternalError{Msg: "otp: cannot send in state " + string(st.Otp.State), Err: err}
	}

	if err := g.Auth.SendOtp(ctx, phone); err != nil {
		msg := msgOtpSendFailed
		var be domain.BackendError
		if errors.As(err, &be) && be.Msg != "" {
			msg = be.Msg
		}
		st.Otp.SendFailed(msg)
		g.Metrics.Otp("send_failed")
		return err
	}

	st.Otp.SendSucceeded(uuid.NewString(), g.Cooldown, g.now())
	g.Metrics.Otp("sent")
	return nil
}

// Resend is only allowed from AWAITING_CODE once the cooldown reached zero.
func (g OtpGate) Resend(ctx context.Context, st *models.WizardState) error {
	if !st.Otp.CanResend(g.now()) {
		if st.Otp.State == models.OtpAwaitingCode {
			return domain.ValidationError{Field: "otp", Msg: msgOtpWaitResend, Err: models.ErrOtpCooldownActive}
		}
		return domain.InternalError{Msg: "otp: nothing to resend", Err: models.ErrOtpTransition}
	}
	return g.Send(ctx, st, st.Otp.Phone)
}

// Verify exchanges the code for a token. On success the token is stored,
// the modal closes and the contact draft is prefilled from the profile.
// A rejection leaves the session in AWAITING_CODE with the code kept.
func (g OtpGate) Verify(ctx context.Context, st *models.WizardState, tokens Tokens, code string) error {
	code = utils.TrimOrEmpty(code)
	if code == "" {
		st.Otp.LastError = msgOtpCodeRequired
		return domain.ValidationError{Field: "otp", Msg: msgOtpCodeRequired}
	}
	if err := st.Otp.BeginVerify(code); err != nil {
		return domain.InternalError{Msg: "otp: cannot verify in state " + string(st.Otp.State), Err: err}
	}

	token, err := g.Auth.VerifyOtp(ctx, st.Otp.Phone, code)
	if err != nil {
		msg := msgOtpVerifyFailed
		var be domain.BackendError
		var ee domain.EmptyResponseError
		switch {
		case errors.As(err, &be) && be.Msg != "":
			msg = be.Msg
		case errors.As(err, &ee):
			msg = ee.Error()
		}
		st.Otp.VerifyFailed(msg)
		g.Metrics.Otp("verify_rejected")
		return err
	}

	tokens.SetToken(token)
	st.Otp.VerifySucceeded(g.now())
	g.Metrics.Otp("verified")
	g.Prefill(ctx, st, tokens)
	return nil
}

func (g OtpGate) Cancel(st *models.WizardState) {
	st.Otp.Cancel()
	g.Metrics.Otp("cancelled")
}

func (g OtpGate) Dismiss(st *models.WizardState) {
	st.Otp.Dismiss(g.now())
}

// Prefill copies GET /users/me onto the contact draft. Failures are ignored.
func (g OtpGate) Prefill(ctx context.Context, st *models.WizardState, tokens Tokens) {
	if g.Users == nil || tokens.Token() == "" {
		return
	}
	me, err := g.Users.Me(ctx, tokens)
	if err != nil {
		utils.GetLogger().Debug("profile prefill skipped", zap.Error(err))
		return
	}
	st.Contact = me.Prefill(st.Contact)
}

package models

import (
	"errors"
	"math"
	"time"
)

type OtpState string

const (
	OtpIdle         OtpState = "IDLE"
	OtpSending      OtpState = "SENDING"
	OtpAwaitingCode OtpState = "AWAITING_CODE"
	OtpVerifying    OtpState = "VERIFYING"
	OtpVerified     OtpState = "VERIFIED"
)

const DefaultOtpResend = 60 * time.Second

var (
	ErrOtpTransition     = errors.New("otp: invalid state transition")
	ErrOtpCooldownActive = errors.New("otp: resend cooldown still running")
)

// OtpSession is the phone verification state of one booking attempt.
//
// The resend cooldown only runs while the modal is open: CooldownLeft holds
// the remaining time as of CooldownFrom, and the clock is frozen (CooldownFrom
// zero) while the modal is dismissed.
type OtpSession struct {
	RequestID    string        `json:"requestId"`
	Phone        string        `json:"phone"`
	State        OtpState      `json:"state"`
	Verified     bool          `json:"verified"`
	ModalOpen    bool          `json:"modalOpen"`
	Code         string        `json:"code"`
	LastError    string        `json:"lastError,omitempty"`
	CooldownLeft time.Duration `json:"cooldownLeft"`
	CooldownFrom time.Time     `json:"cooldownFrom"`
}

func (o *OtpSession) normalize() {
	if o.State == "" {
		o.State = OtpIdle
	}
}

// BeginSend moves IDLE (or AWAITING_CODE for a resend) to SENDING.
func (o *OtpSession) BeginSend(phone string, now time.Time) error {
	o.normalize()
	switch o.State {
	case OtpIdle:
	case OtpAwaitingCode:
		if o.Phone == phone && o.Remaining(now) > 0 {
			return ErrOtpCooldownActive
		}
	default:
		return ErrOtpTransition
	}
	o.Phone = phone
	o.State = OtpSending
	o.LastError = ""
	return nil
}

// SendSucceeded opens the modal, clears the code and starts the cooldown.
func (o *OtpSession) SendSucceeded(requestID string, cooldown time.Duration, now time.Time) {
	if o.State != OtpSending {
		return
	}
	if cooldown <= 0 {
		cooldown = DefaultOtpResend
	}
	o.RequestID = requestID
	o.State = OtpAwaitingCode
	o.Verified = false
	o.ModalOpen = true
	o.Code = ""
	o.LastError = ""
	o.CooldownLeft = cooldown
	o.CooldownFrom = now
}

// SendFailed returns to IDLE with the error surfaced.
func (o *OtpSession) SendFailed(msg string) {
	if o.State != OtpSending {
		return
	}
	o.State = OtpIdle
	o.LastError = msg
}

func (o *OtpSession) BeginVerify(code string) error {
	o.normalize()
	if o.State != OtpAwaitingCode {
		return ErrOtpTransition
	}
	o.Code = code
	o.State = OtpVerifying
	o.LastError = ""
	return nil
}

// VerifyFailed goes back to AWAITING_CODE keeping the code for correction.
func (o *OtpSession) VerifyFailed(msg string) {
	if o.State != OtpVerifying {
		return
	}
	o.State = OtpAwaitingCode
	o.LastError = msg
}

func (o *OtpSession) VerifySucceeded(now time.Time) {
	if o.State != OtpVerifying {
		return
	}
	o.freeze(now)
	o.State = OtpVerified
	o.Verified = true
	o.ModalOpen = false
	o.LastError = ""
}

// Cancel resets to IDLE. VERIFIED is terminal and is left alone.
func (o *OtpSession) Cancel() {
	o.normalize()
	if o.State == OtpVerified {
		return
	}
	o.reset()
}

// ChangePhone resets any progress when the number differs from the one being
// verified. It also clears a previous verification.
func (o *OtpSession) ChangePhone(phone string) bool {
	o.normalize()
	if o.Phone == "" || o.Phone == phone {
		return false
	}
	o.reset()
	return true
}

// Expire is used after a 401: verification no longer holds.
func (o *OtpSession) Expire(msg string) {
	o.reset()
	o.LastError = msg
}

// Dismiss closes the modal and freezes the countdown.
func (o *OtpSession) Dismiss(now time.Time) {
	o.freeze(now)
	o.ModalOpen = false
}

// Reopen shows the modal again and resumes the countdown.
func (o *OtpSession) Reopen(now time.Time) {
	if o.State != OtpAwaitingCode {
		return
	}
	o.freeze(now)
	o.ModalOpen = true
	o.CooldownFrom = now
}

// Remaining is the cooldown left at now.
func (o *OtpSession) Remaining(now time.Time) time.Duration {
	left := o.CooldownLeft
	if o.ModalOpen && !o.CooldownFrom.IsZero() {
		left -= now.Sub(o.CooldownFrom)
	}
	if left < 0 {
		return 0
	}
	return left
}

// RemainingSeconds rounds up, so the display never shows 0 early.
func (o *OtpSession) RemainingSeconds(now time.Time) int {
	return int(math.Ceil(o.Remaining(now).Seconds()))
}

func (o *OtpSession) CanResend(now time.Time) bool {
	return o.State == OtpAwaitingCode && o.Remaining(now) == 0
}

func (o *OtpSession) freeze(now time.Time) {
	o.CooldownLeft = o.Remaining(now)
	o.CooldownFrom = time.Time{}
}

func (o *OtpSession) reset() {
	*o = OtpSession{State: OtpIdle}
}

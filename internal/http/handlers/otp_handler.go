package handlers

import (
	"net/http"
	"net/url"
	"time"

	"dotrip/internal/domain/models"
	"dotrip/internal/services"

	"github.com/gin-gonic/gin"
)

// otpView is what the modal and /api/otp/status show.
type otpView struct {
	State            models.OtpState `json:"state"`
	Phone            string          `json:"phone,omitempty"`
	ModalOpen        bool            `json:"modalOpen"`
	Verified         bool            `json:"verified"`
	Code             string          `json:"-"`
	RemainingSeconds int             `json:"remainingSeconds"`
	CanResend        bool            `json:"canResend"`
	Error            string          `json:"error,omitempty"`
}

func newOtpView(o models.OtpSession, now time.Time) otpView {
	state := o.State
	if state == "" {
		state = models.OtpIdle
	}
	return otpView{
		State:            state,
		Phone:            o.Phone,
		ModalOpen:        o.ModalOpen,
		Verified:         o.Verified,
		Code:             o.Code,
		RemainingSeconds: o.RemainingSeconds(now),
		CanResend:        o.CanResend(now),
		Error:            o.LastError,
	}
}

// otpRequest is the booking an OTP form belongs to: the buffered one, or
// the one named by the form's q field.
func otpRequest(c *gin.Context, st *models.WizardState) models.BookingRequest {
	values, _ := url.ParseQuery(c.PostForm("q"))
	return requestFor(st, values)
}

// OtpStatus reports the modal state and the remaining cooldown.
func (h *Handlers) OtpStatus(c *gin.Context) {
	st := wizard(c)
	c.JSON(http.StatusOK, newOtpView(st.Otp, h.now()))
}

// VerifyOtp checks the code and, when accepted, creates the buffered booking.
func (h *Handlers) VerifyOtp(c *gin.Context) {
	st := wizard(c)
	req := otpRequest(c, st)

	res, err := h.Booking.VerifyOtp(c.Request.Context(), st, tokens(c), c.PostForm("otp"))
	h.saveState(c)

	if wantsJSON(c) {
		h.otpJSON(c, st, res, err)
		return
	}
	if err != nil {
		h.bookingFailed(c, st, req, err)
		return
	}
	h.bookingOutcome(c, req, res)
}

// ResendOtp is accepted only once the cooldown reached zero.
func (h *Handlers) ResendOtp(c *gin.Context) {
	st := wizard(c)
	req := otpRequest(c, st)

	err := h.Booking.ResendOtp(c.Request.Context(), st)
	h.saveState(c)

	if wantsJSON(c) {
		h.otpJSON(c, st, services.SubmitResult{Outcome: services.OutcomeOtpRequired}, err)
		return
	}
	if err != nil {
		h.bookingFailed(c, st, req, err)
		return
	}
	redirect(c, bookingURL(req))
}

// CancelOtp drops the buffered booking and resets verification.
func (h *Handlers) CancelOtp(c *gin.Context) {
	st := wizard(c)
	req := otpRequest(c, st)

	h.Booking.CancelOtp(st)
	h.saveState(c)

	if wantsJSON(c) {
		h.otpJSON(c, st, services.SubmitResult{}, nil)
		return
	}
	redirect(c, bookingURL(req))
}

// DismissOtp closes the modal; the countdown stops until it is reopened.
func (h *Handlers) DismissOtp(c *gin.Context) {
	st := wizard(c)
	req := otpRequest(c, st)

	h.Booking.Gate.Dismiss(st)
	h.saveState(c)

	if wantsJSON(c) {
		h.otpJSON(c, st, services.SubmitResult{}, nil)
		return
	}
	redirect(c, bookingURL(req))
}

func (h *Handlers) otpJSON(c *gin.Context, st *models.WizardState, res services.SubmitResult, err error) {
	if err != nil && st.Otp.LastError != "" && st.Otp.State != models.OtpVerified {
		// The gate already turned the failure into the modal's message.
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": st.Otp.LastError,
			"otp":   newOtpView(st.Otp, h.now()),
		})
		return
	}
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outcome":   res.Outcome,
		"bookingId": res.BookingID,
		"redirect":  res.Redirect,
		"otp":       newOtpView(st.Otp, h.now()),
	})
}

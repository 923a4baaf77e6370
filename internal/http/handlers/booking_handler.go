package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"dotrip/internal/domain/models"
	"dotrip/internal/http/middleware"
	"dotrip/internal/services"
	"dotrip/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bookingRequestFromValues reads the trip, car and fare a car card forwarded.
func bookingRequestFromValues(v url.Values) models.BookingRequest {
	return models.BookingRequest{
		Trip:    models.TripQueryFromValues(v),
		Vehicle: strings.TrimSpace(v.Get(models.ParamCar)),
		Fare:    strings.TrimSpace(v.Get(models.ParamFare)),
	}
}

// bookingQuery is the inverse of bookingRequestFromValues.
func bookingQuery(req models.BookingRequest) string {
	v := req.Trip.Values()
	v.Set(models.ParamCar, req.Vehicle)
	v.Set(models.ParamFare, req.Fare)
	return v.Encode()
}

func bookingURL(req models.BookingRequest) string {
	return services.BookingPath + "?" + bookingQuery(req)
}

// requestFor picks the booking the page is about: the query string, or the
// buffered request when the query carries no trip.
func requestFor(st *models.WizardState, v url.Values) models.BookingRequest {
	req := bookingRequestFromValues(v)
	if req.Trip.OriginLabel == "" && req.Vehicle == "" && st.Pending != nil {
		return *st.Pending
	}
	return req
}

// BookingPage shows the contact form, prefilled from the profile when a
// token is held.
func (h *Handlers) BookingPage(c *gin.Context) {
	st := wizard(c)
	tok := tokens(c)
	req := requestFor(st, c.Request.URL.Query())

	if tok.Token() != "" && strings.TrimSpace(st.Contact.Name) == "" {
		h.Booking.Gate.Prefill(c.Request.Context(), st, tok)
		h.saveState(c)
	}
	h.renderBooking(c, http.StatusOK, st, req, "")
}

// SubmitBooking handles "Confirm booking".
func (h *Handlers) SubmitBooking(c *gin.Context) {
	st := wizard(c)
	values, _ := url.ParseQuery(c.PostForm("q"))
	req := bookingRequestFromValues(values)

	var contact models.ContactDetails
	if err := c.ShouldBind(&contact); err != nil {
		h.renderBooking(c, http.StatusBadRequest, st, req, services.MsgRequiredFields)
		return
	}
	req.Contact = contact

	res, err := h.Booking.SubmitBooking(c.Request.Context(), st, tokens(c), req)
	h.saveState(c)
	if err != nil {
		h.bookingFailed(c, st, req, err)
		return
	}
	h.bookingOutcome(c, req, res)
}

func (h *Handlers) bookingOutcome(c *gin.Context, req models.BookingRequest, res services.SubmitResult) {
	switch res.Outcome {
	case services.OutcomeCreated:
		utils.LogEvent(middleware.GetRequestID(c), "booking", "created", "booking_id="+res.BookingID)
		redirect(c, res.Redirect)
	default:
		redirect(c, bookingURL(req))
	}
}

func (h *Handlers) bookingFailed(c *gin.Context, st *models.WizardState, req models.BookingRequest, err error) {
	status, code := errorStatus(err)
	utils.GetLogger().Info("booking attempt failed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("code", code),
		zap.Error(err))

	msg := services.ErrorMessage(err)
	if st.Otp.ModalOpen && st.Otp.LastError != "" {
		// Shown inside the modal instead.
		msg = ""
	}
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		_ = c.Error(err)
	}
	h.renderBooking(c, status, st, req, msg)
}

func (h *Handlers) renderBooking(c *gin.Context, status int, st *models.WizardState, req models.BookingRequest, errMsg string) {
	fareText := req.Fare
	if f, err := utils.ParseFare(req.Fare); err == nil {
		fareText = utils.FormatINR(f)
	}
	c.HTML(status, "booking.html", gin.H{
		"Title":     "Confirm your booking",
		"Trip":      req.Trip,
		"Car":       req.Vehicle,
		"Fare":      fareText,
		"Query":     bookingQuery(req),
		"Contact":   st.Contact,
		"Otp":       newOtpView(st.Otp, h.now()),
		"Error":     errMsg,
		"LoggedIn":  tokens(c).Token() != "",
		"RequestID": middleware.GetRequestID(c),
	})
}

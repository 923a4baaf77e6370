package handlers

import (
	"net/http"

	"dotrip/internal/http/middleware"
	"dotrip/internal/services"

	"github.com/gin-gonic/gin"
)

// confirmationID applies the id precedence: path, then ?id, then
// ?bookingId, then the id remembered for this browser session.
func confirmationID(c *gin.Context) string {
	return services.ResolveBookingID(c.Param("id"), c.Query("id"), c.Query("bookingId"), tokens(c).LastBookingID())
}

// Confirmation renders the booking the id resolves to.
func (h *Handlers) Confirmation(c *gin.Context) {
	id := confirmationID(c)
	if id == "" {
		h.renderConfirmation(c, http.StatusBadRequest, nil, services.MsgMissingBookingID)
		return
	}

	view, err := h.Confirm.Load(c.Request.Context(), tokens(c), id)
	if err != nil {
		status, _ := errorStatus(err)
		h.renderConfirmation(c, status, nil, services.ErrorMessage(err))
		return
	}
	h.renderConfirmation(c, http.StatusOK, view, "")
}

func (h *Handlers) renderConfirmation(c *gin.Context, status int, view *services.ConfirmationView, errMsg string) {
	c.HTML(status, "confirmation.html", gin.H{
		"Title":     "Booking confirmed",
		"View":      view,
		"Error":     errMsg,
		"RequestID": middleware.GetRequestID(c),
	})
}

package handlers

import (
	"net/http"
	"strings"
	"time"

	intconfig "dotrip/internal/config"
	"dotrip/internal/domain/models"
	"dotrip/internal/http/middleware"
	"dotrip/internal/services"
	"dotrip/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers carries everything the pages and the JSON API need.
type Handlers struct {
	Env      intconfig.Env
	Sessions *middleware.Sessions
	Cities   services.CityDirectory
	Cars     services.CarSelectionService
	Booking  *services.BookingService
	Confirm  services.ConfirmationService
	Places   *services.CancellableSearch
	Now      func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// RespondError sends standard error payload with request_id included.
// Keeps backward compatibility by always providing "message".
func RespondError(c *gin.Context, status int, message string, err error) {
	reqID := middleware.GetRequestID(c)
	payload := gin.H{
		"message":    message,
		"request_id": reqID,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// saveState persists the wizard state; a failure only costs the user a
// repeated step, so it is logged and the request goes on.
func (h *Handlers) saveState(c *gin.Context) {
	if h.Sessions == nil {
		return
	}
	if err := h.Sessions.SaveState(c); err != nil {
		utils.GetLogger().Warn("wizard state save failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("session_id", middleware.SessionID(c)),
			zap.Error(err))
	}
}

// updateState applies mutate to the request's state and to the latest
// stored copy. Side requests use it so they do not write back an OTP session
// or pending booking that a concurrent form post has since replaced.
func (h *Handlers) updateState(c *gin.Context, mutate func(*models.WizardState)) {
	if h.Sessions == nil {
		mutate(wizard(c))
		return
	}
	if err := h.Sessions.Update(c, mutate); err != nil {
		utils.GetLogger().Warn("wizard state update failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("session_id", middleware.SessionID(c)),
			zap.Error(err))
	}
}

// wizard never returns nil so handlers work outside the session middleware.
func wizard(c *gin.Context) *models.WizardState {
	if st := middleware.WizardState(c); st != nil {
		return st
	}
	st := models.NewWizardState(middleware.SessionID(c))
	middleware.SetWizardState(c, st)
	return st
}

// tokens returns the request's token store.
func tokens(c *gin.Context) services.Tokens {
	if t := middleware.Tokens(c); t != nil {
		return t
	}
	return noTokens{}
}

type noTokens struct{}

func (noTokens) Token() string { return "" }
func (noTokens) SetToken(string) {}
func (noTokens) ClearToken() {}
func (noTokens) SetLastBookingID(string) {}
func (noTokens) LastBookingID() string { return "" }

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// redirect answers a form POST with 303 so a reload does not resubmit.
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

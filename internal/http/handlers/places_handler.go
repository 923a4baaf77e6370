package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"dotrip/internal/backend"
	"dotrip/internal/domain/models"
	"dotrip/internal/http/middleware"
	"dotrip/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// placesField keeps one search slot per address input. Destination rows
// are to-0 .. to-5; a bare "to" is the first row.
func placesField(raw string) string {
	f := strings.ToLower(strings.TrimSpace(raw))
	switch f {
	case "from", "pickup", "drop":
		return f
	case "to":
		return "to-0"
	}
	if row, ok := strings.CutPrefix(f, "to-"); ok {
		if n, err := strconv.Atoi(row); err == nil && n >= 0 && n < models.MaxDestinations {
			return "to-" + strconv.Itoa(n)
		}
	}
	return "default"
}

// PlacesAutocomplete answers a keystroke. A newer keystroke for the same
// session and field supersedes this one, which then returns an empty list.
func (h *Handlers) PlacesAutocomplete(c *gin.Context) {
	st := wizard(c)
	field := placesField(c.Query("field"))

	_, had := st.PlacesTokens[field]
	token := st.PlacesToken(field, uuid.NewString)
	if !had {
		h.updateState(c, func(latest *models.WizardState) {
			latest.PlacesToken(field, func() string { return token })
		})
	}

	key := middleware.SessionID(c) + ":" + field
	out, err := h.Places.Search(c.Request.Context(), key, c.Query("input"), c.Query("bias"), token)
	if errors.Is(err, services.ErrSuperseded) {
		c.JSON(http.StatusOK, gin.H{"suggestions": []backend.Suggestion{}, "superseded": true})
		return
	}
	if err != nil {
		if c.Request.Context().Err() != nil {
			// The browser went away.
			c.Status(http.StatusNoContent)
			return
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": out})
}

// PlacesSelect ends the billing session of a field once a suggestion is picked.
func (h *Handlers) PlacesSelect(c *gin.Context) {
	field := placesField(c.PostForm("field"))
	h.updateState(c, func(latest *models.WizardState) {
		latest.ResetPlacesToken(field)
	})
	c.Status(http.StatusNoContent)
}

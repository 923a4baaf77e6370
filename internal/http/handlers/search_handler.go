package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"dotrip/internal/domain"
	"dotrip/internal/http/middleware"
	"dotrip/internal/services"

	"github.com/gin-gonic/gin"
)

// Home renders the trip search form with its defaults.
func (h *Handlers) Home(c *gin.Context) {
	h.renderHome(c, http.StatusOK, services.NewTripSearchForm(h.now()), nil)
}

// Search handles the three buttons of the search form: add a destination,
// remove one, or submit.
func (h *Handlers) Search(c *gin.Context) {
	form := parseSearchForm(c)

	if raw := c.PostForm("remove"); raw != "" {
		if i, err := strconv.Atoi(raw); err == nil {
			form.RemoveDestination(i)
		}
		h.renderHome(c, http.StatusOK, form, nil)
		return
	}
	if c.PostForm("action") == "add" {
		form.AddDestination()
		h.renderHome(c, http.StatusOK, form, nil)
		return
	}

	q, err := form.Submit()
	if err != nil {
		var fe services.FieldErrors
		if errors.As(err, &fe) {
			h.renderHome(c, http.StatusUnprocessableEntity, form, fe)
			return
		}
		RespondDomainError(c, err)
		return
	}
	if d, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("distance_km")), 64); err == nil && d > 0 {
		q.DistanceKm = d
	}
	redirect(c, services.SearchRedirect(q))
}

func parseSearchForm(c *gin.Context) services.TripSearchForm {
	tt, _ := domain.ParseTripType(c.PostForm("trip_type"))
	form := services.TripSearchForm{
		Origin:       strings.TrimSpace(c.PostForm("from")),
		Destinations: c.PostFormArray("to"),
		TripType:     tt,
		PickupDate:   strings.TrimSpace(c.PostForm("pickup_date")),
		PickupTime:   strings.TrimSpace(c.PostForm("pickup_time")),
		ReturnDate:   strings.TrimSpace(c.PostForm("return_date")),
		ReturnTime:   strings.TrimSpace(c.PostForm("return_time")),
	}
	form.Clamp()
	return form
}

func (h *Handlers) renderHome(c *gin.Context, status int, form services.TripSearchForm, errs services.FieldErrors) {
	var cities []string
	if h.Cities.API != nil {
		cities = h.Cities.Labels(c.Request.Context())
	}
	c.HTML(status, "home.html", gin.H{
		"Title":     "Book a cab",
		"Form":      form,
		"Errors":    errs,
		"Cities":    cities,
		"TripTypes": domain.TripTypes,
		"RequestID": middleware.GetRequestID(c),
	})
}

package handlers

import (
	"net/http"

	"dotrip/internal/domain/models"
	"dotrip/internal/http/middleware"
	"dotrip/internal/services"
	"dotrip/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SelectCars lists vehicle types priced for the trip in the query string.
func (h *Handlers) SelectCars(c *gin.Context) {
	trip := models.TripQueryFromValues(c.Request.URL.Query())

	cards, err := h.Cars.List(c.Request.Context(), trip)
	status := http.StatusOK
	msg := ""
	if err != nil {
		status, _ = errorStatus(err)
		msg = services.ErrorMessage(err)
		utils.GetLogger().Warn("vehicle list failed", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
	}

	c.HTML(status, "select_cars.html", gin.H{
		"Title":     "Select your car",
		"Trip":      trip,
		"Cards":     cards,
		"Error":     msg,
		"RequestID": middleware.GetRequestID(c),
	})
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"dotrip/internal/domain"
	"dotrip/internal/http/middleware"
	"dotrip/internal/services"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads for the JSON API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// errorStatus maps a domain error to the HTTP status and code it is reported with.
func errorStatus(err error) (int, string) {
	var be domain.BackendError
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	case domain.IsResolution(err):
		return http.StatusUnprocessableEntity, "resolution_failed"
	case errors.As(err, &be):
		if be.Status == http.StatusNotFound || be.Status == http.StatusUnauthorized || be.Status == http.StatusForbidden {
			return be.Status, "backend_rejected"
		}
		return http.StatusBadGateway, "backend_rejected"
	case domain.IsTransport(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway, "backend_unreachable"
	case domain.IsEmptyResponse(err), domain.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	var details any
	var re domain.ResolutionError
	if errors.As(err, &re) {
		details = re.Labels
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		respondError(c, status, code, "Something went wrong. Please try again.", nil)
		return
	}
	respondError(c, status, code, services.ErrorMessage(err), details)
}

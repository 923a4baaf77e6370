package handlers

import (
	"context"
	"net/http"

	"dotrip/internal/http/middleware"
	"dotrip/internal/services"

	"github.com/gin-gonic/gin"
)

// GetBookingReceiptPDF returns the receipt of the confirmed booking (inline).
func (h *Handlers) GetBookingReceiptPDF(c *gin.Context) {
	id := confirmationID(c)
	if id == "" {
		respondError(c, http.StatusBadRequest, "invalid_booking_id", services.MsgMissingBookingID, nil)
		return
	}

	tok := tokens(c)
	svc := services.DocsService{
		RequestID: middleware.GetRequestID(c),
		Loader: func(ctx context.Context, id string) (*services.ConfirmationView, error) {
			return h.Confirm.Load(ctx, tok, id)
		},
		Now: h.Now,
	}
	pdfBytes, filename, err := svc.GenerateReceipt(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
